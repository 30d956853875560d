package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Exam Plan API",
        "description": "Exam scheduling and seat planning service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Exam Schedule", "description": "Exam timetable generation and persistence"},
        {"name": "Seat Plan", "description": "Per-exam seating arrangements"},
        {"name": "Conflict Pairs", "description": "Students that must not share a bench"},
        {"name": "Reports", "description": "Asynchronous CSV/PDF exports"},
        {"name": "Metrics", "description": "Operational metrics"}
    ],
    "paths": {
        "/exam-schedule/generate": {
            "post": {
                "tags": ["Exam Schedule"],
                "summary": "Generate an exam schedule proposal",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateExamScheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Scheduling failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-schedule/save": {
            "post": {
                "tags": ["Exam Schedule"],
                "summary": "Persist a previously generated proposal",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveExamScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exam-schedule/slots": {
            "get": {
                "tags": ["Exam Schedule"],
                "summary": "List saved exam slots",
                "parameters": [
                    {"name": "departmentId", "in": "query", "required": true, "type": "integer"},
                    {"name": "examType", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/seat-plan/build": {
            "post": {
                "tags": ["Seat Plan"],
                "summary": "Build a seating plan proposal for an exam slot",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BuildSeatPlanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Planning failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/seat-plan/save": {
            "post": {
                "tags": ["Seat Plan"],
                "summary": "Persist a seating plan proposal",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveSeatPlanRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/seat-plan/{examId}": {
            "get": {
                "tags": ["Seat Plan"],
                "summary": "Fetch the saved seating plan for an exam",
                "parameters": [
                    {"name": "examId", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/conflict-pairs": {
            "get": {
                "tags": ["Conflict Pairs"],
                "summary": "List conflict pairs",
                "parameters": [
                    {"name": "departmentId", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Conflict Pairs"],
                "summary": "Register a conflict pair",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConflictPairRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Conflict Pairs"],
                "summary": "Remove a conflict pair",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ConflictPairRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/reports/generate": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue an export job",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/status/{id}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Inspect export job status",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a finished export",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File stream"}
                }
            }
        },
        "/metrics/snapshot": {
            "get": {
                "tags": ["Metrics"],
                "summary": "Read aggregated system metrics",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GenerateExamScheduleRequest": {
            "type": "object",
            "properties": {
                "departmentId": {"type": "integer"},
                "dateStart": {"type": "string"},
                "dateEnd": {"type": "string"},
                "courseIds": {"type": "array", "items": {"type": "integer"}},
                "examType": {"type": "string"},
                "excludeWeekdays": {"type": "array", "items": {"type": "integer"}},
                "defaultDurationMin": {"type": "integer"},
                "bufferMin": {"type": "integer"},
                "globalNoOverlap": {"type": "boolean"},
                "perCourseDurations": {"type": "object"}
            },
            "required": ["departmentId", "dateStart", "dateEnd", "courseIds", "examType"]
        },
        "SaveExamScheduleRequest": {
            "type": "object",
            "properties": {
                "proposalId": {"type": "string"}
            },
            "required": ["proposalId"]
        },
        "BuildSeatPlanRequest": {
            "type": "object",
            "properties": {
                "departmentId": {"type": "integer"},
                "courseId": {"type": "integer"},
                "examType": {"type": "string"},
                "startAt": {"type": "string", "format": "date-time"},
                "preferFront": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["departmentId", "courseId", "examType", "startAt"]
        },
        "SaveSeatPlanRequest": {
            "type": "object",
            "properties": {
                "planId": {"type": "string"}
            },
            "required": ["planId"]
        },
        "ConflictPairRequest": {
            "type": "object",
            "properties": {
                "departmentId": {"type": "integer"},
                "studentA": {"type": "string"},
                "studentB": {"type": "string"}
            },
            "required": ["departmentId", "studentA", "studentB"]
        },
        "ReportRequest": {
            "type": "object",
            "properties": {
                "departmentId": {"type": "integer"},
                "type": {"type": "string"},
                "format": {"type": "string"},
                "examType": {"type": "string"},
                "examId": {"type": "integer"}
            },
            "required": ["departmentId", "type", "format"]
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
