// Command bootstrap creates the database schema and optionally seeds the
// student directory from a CSV of uid,student_id,full_name,email rows.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/result-portal-api/pkg/config"
	"github.com/noah-isme/result-portal-api/pkg/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS students (
    uid        TEXT PRIMARY KEY,
    student_id TEXT NOT NULL UNIQUE,
    full_name  TEXT NOT NULL,
    email      TEXT NOT NULL,
    active     BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS students_email_lower_idx ON students (LOWER(email));

CREATE TABLE IF NOT EXISTS results (
    id            TEXT PRIMARY KEY,
    student_uid   TEXT NOT NULL REFERENCES students (uid),
    student_id    TEXT NOT NULL,
    student_name  TEXT NOT NULL,
    course        TEXT NOT NULL,
    semester      TEXT NOT NULL,
    subject_marks JSONB NOT NULL,
    total_marks   DOUBLE PRECISION NOT NULL,
    result_status TEXT NOT NULL,
    uploaded_at   TIMESTAMPTZ NOT NULL,
    updated_at    TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS results_identity_idx ON results (student_uid, course, semester);
`

func main() {
	var (
		seedPath string
		timeout  time.Duration
	)
	flag.StringVar(&seedPath, "seed", "", "Optional CSV of students to load (uid,student_id,full_name,email)")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Overall timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}
	log.Println("schema applied")

	if seedPath == "" {
		return
	}

	count, err := seedStudents(ctx, db, seedPath)
	if err != nil {
		log.Fatalf("failed to seed students: %v", err)
	}
	log.Printf("seeded %d students", count)
}

func seedStudents(ctx context.Context, db *sqlx.DB, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close() //nolint:errcheck

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return 0, err
	}

	const query = `INSERT INTO students (uid, student_id, full_name, email)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (uid) DO UPDATE SET student_id = EXCLUDED.student_id, full_name = EXCLUDED.full_name, email = EXCLUDED.email, updated_at = now()`

	count := 0
	for i, record := range records {
		if len(record) < 4 {
			return count, fmt.Errorf("line %d: expected 4 columns, got %d", i+1, len(record))
		}
		if _, err := db.ExecContext(ctx, query, record[0], record[1], record[2], record[3]); err != nil {
			return count, fmt.Errorf("line %d: %w", i+1, err)
		}
		count++
	}
	return count, nil
}
