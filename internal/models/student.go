package models

import "time"

// StudentIdentity is one entry of the student directory. UID is the canonical
// opaque identity results are keyed by; StudentID is the human-entered code
// that appears on uploads.
type StudentIdentity struct {
	UID       string    `db:"uid" json:"uid"`
	StudentID string    `db:"student_id" json:"student_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
