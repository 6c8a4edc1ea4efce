package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable API",
        "description": "Weekly timetable generation for schools with academic and vocational tracks",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Timetable", "description": "Timetable generation and lookup"},
        {"name": "Observability", "description": "Health and metrics"}
    ],
    "paths": {
        "/schools/{schoolId}/timetable/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate the timetable of a whole school",
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateSchoolRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GenerationEnvelope"}},
                    "400": {"description": "Invalid scope", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Generation already running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schools/{schoolId}/classes/{classId}/timetable/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate the timetable of one class",
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/GenerateTargetRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GenerationEnvelope"}},
                    "404": {"description": "Class not found", "schema": {"$ref": "#/definitions/GenerationEnvelope"}}
                }
            }
        },
        "/schools/{schoolId}/teachers/{teacherId}/timetable/generate": {
            "post": {
                "tags": ["Timetable"],
                "summary": "Generate the timetable of one teacher or trainer",
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "teacherId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/GenerateTargetRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/GenerationEnvelope"}},
                    "404": {"description": "Teacher not found", "schema": {"$ref": "#/definitions/GenerationEnvelope"}}
                }
            }
        },
        "/schools/{schoolId}/timetable": {
            "get": {
                "tags": ["Timetable"],
                "summary": "List stored timetable entries",
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "teacherId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Timetable"],
                "summary": "Delete every timetable entry of a school",
                "parameters": [
                    {"name": "schoolId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "GenerateSchoolRequest": {
            "type": "object",
            "required": ["scope"],
            "properties": {
                "scope": {"type": "string", "enum": ["ALL_CLASSES", "ALL_TEACHERS", "BOTH"]},
                "regenerate": {"type": "boolean"}
            }
        },
        "GenerateTargetRequest": {
            "type": "object",
            "properties": {
                "incremental": {"type": "boolean"},
                "regenerate": {"type": "boolean"}
            }
        },
        "TimetableEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "school_id": {"type": "string"},
                "class_id": {"type": "string"},
                "teacher_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "module_id": {"type": "string"},
                "time_cell_id": {"type": "string"},
                "day": {"type": "string"},
                "period": {"type": "integer"},
                "created_at": {"type": "string", "format": "date-time"}
            }
        },
        "Conflict": {
            "type": "object",
            "properties": {
                "teacherId": {"type": "string"},
                "classId": {"type": "string"},
                "courseId": {"type": "string"},
                "kind": {"type": "string", "enum": ["SUBJECT", "MODULE"]},
                "track": {"type": "string", "enum": ["ACADEMIC", "TECHNICAL"]},
                "reason": {"type": "string", "enum": ["TEACHER_UNAVAILABLE", "TEACHER_OVERLOADED", "NO_FREE_SLOT_FOR_CLASS", "CONSECUTIVE_LIMIT"]}
            }
        },
        "Notice": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "enum": ["CLASS_NOT_FOUND", "TEACHER_NOT_FOUND", "NO_ASSIGNMENTS", "ALREADY_SCHEDULED"]},
                "message": {"type": "string"}
            }
        },
        "GenerationResult": {
            "type": "object",
            "properties": {
                "mode": {"type": "string", "enum": ["SCHOOL", "CLASS", "TEACHER"]},
                "scope": {"type": "string"},
                "success": {"type": "boolean"},
                "placed": {"type": "integer"},
                "deleted": {"type": "integer"},
                "entries": {"type": "array", "items": {"$ref": "#/definitions/TimetableEntry"}},
                "conflicts": {"type": "array", "items": {"$ref": "#/definitions/Conflict"}},
                "notice": {"$ref": "#/definitions/Notice"}
            }
        },
        "GenerationEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/GenerationResult"},
                "error": {"$ref": "#/definitions/APIError"}
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
