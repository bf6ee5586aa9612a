package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Result Portal API",
        "description": "Student result ingestion and retrieval service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Results", "description": "Result upload, listing and marksheet downloads"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/results/upload": {
            "post": {
                "tags": ["Results"],
                "summary": "Upload a CSV of student results",
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "file", "in": "formData", "type": "file", "required": true},
                    {"name": "passing_percentage", "in": "formData", "type": "number"}
                ],
                "responses": {
                    "200": {"description": "Batch report", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Unusable payload"},
                    "422": {"description": "Invalid options"}
                }
            }
        },
        "/results/template": {
            "get": {
                "tags": ["Results"],
                "summary": "Download the CSV upload template",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "responses": {
                    "200": {"description": "CSV template"}
                }
            }
        },
        "/results": {
            "get": {
                "tags": ["Results"],
                "summary": "List result records",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentUid", "in": "query", "type": "string"},
                    {"name": "course", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "pageSize", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/results": {
            "get": {
                "tags": ["Results"],
                "summary": "List one student's results",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/results/export": {
            "get": {
                "tags": ["Results"],
                "summary": "Download one student's marksheet",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Rendered marksheet"},
                    "404": {"description": "No results for student"}
                }
            }
        }
    },
    "definitions": {
        "UploadResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "integer"},
                "failed": {"type": "integer"},
                "errors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ResultRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "student_uid": {"type": "string"},
                "student_id": {"type": "string"},
                "student_name": {"type": "string"},
                "course": {"type": "string"},
                "semester": {"type": "string"},
                "subject_marks": {"type": "object", "additionalProperties": {"type": "number"}},
                "total_marks": {"type": "number"},
                "result_status": {"type": "string", "enum": ["Pass", "Fail"]},
                "uploaded_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
