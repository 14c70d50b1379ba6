// Package docs holds the OpenAPI document served by the Swagger UI route.
// Regenerate with: swag init -g cmd/pactkeeper/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/contracts": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Contracts"],
                "summary": "List contracts (paginated)",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"},
                    {"enum": ["active", "paused", "archived"], "type": "string", "description": "Filter by status", "name": "status", "in": "query"},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListContractsResponse"}},
                    "304": {"description": "Not Modified"},
                    "400": {"description": "Unknown status", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Missing caller", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Contracts"],
                "summary": "Create a contract",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true},
                    {"description": "Contract", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateContractRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Contract"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Active contract limit reached", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/contracts/stream": {
            "get": {
                "produces": ["text/event-stream"],
                "tags": ["Contracts"],
                "summary": "Live contract snapshots",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "snapshot events", "schema": {"$ref": "#/definitions/live.Snapshot"}},
                    "401": {"description": "Missing caller", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/contracts/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Contracts"],
                "summary": "Get a contract",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "format": "uuid", "description": "Contract ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Contract"}},
                    "404": {"description": "Contract not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["Contracts"],
                "summary": "Void a contract",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "format": "uuid", "description": "Contract ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Contract not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/contracts/{id}/complete": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Contracts"],
                "summary": "Claim victory",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "format": "uuid", "description": "Contract ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Contract"}},
                    "409": {"description": "Not active, or end date not passed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/contracts/{id}/checkins": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Check-ins"],
                "summary": "Check in for today",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "description": "Retry key", "name": "Idempotency-Key", "in": "header"},
                    {"type": "string", "format": "uuid", "description": "Contract ID", "name": "id", "in": "path", "required": true},
                    {"description": "Check-in", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CheckInRequest"}}
                ],
                "responses": {
                    "200": {"description": "Replayed", "schema": {"$ref": "#/definitions/handlers.CheckInResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.CheckInResponse"}},
                    "409": {"description": "Already checked in, or not active", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/contracts/{id}/logs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Check-ins"],
                "summary": "List a contract's logs",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "format": "uuid", "description": "Contract ID", "name": "id", "in": "path", "required": true},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"},
                    {"type": "string", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListLogsResponse"}, "headers": {"ETag": {"type": "string", "description": "Weak ETag for current result"}}},
                    "304": {"description": "Not Modified"}
                }
            }
        },
        "/contracts/{id}/violations": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Check-ins"],
                "summary": "Report a violation",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "format": "uuid", "description": "Contract ID", "name": "id", "in": "path", "required": true},
                    {"description": "Violation", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ReportViolationRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.ViolationResponse"}},
                    "409": {"description": "Contract not active", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/contracts/{id}/audit": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Oracle"],
                "summary": "Audit a contract",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "format": "uuid", "description": "Contract ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.AuditResult"}}
                }
            }
        },
        "/contracts/{id}/judge": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Oracle"],
                "summary": "Judge a situation",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "format": "uuid", "description": "Contract ID", "name": "id", "in": "path", "required": true},
                    {"description": "Situation", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.JudgeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.JudgeResult"}}
                }
            }
        },
        "/contracts/{id}/temptations": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Oracle"],
                "summary": "Coach through a temptation",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "format": "uuid", "description": "Contract ID", "name": "id", "in": "path", "required": true},
                    {"description": "Context", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CoachRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/services.CoachResult"}}
                }
            }
        },
        "/contracts/{id}/journal": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Journal"],
                "summary": "List journal entries",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "format": "uuid", "description": "Contract ID", "name": "id", "in": "path", "required": true},
                    {"maximum": 200, "minimum": 1, "type": "integer", "default": 50, "description": "Max entries", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListJournalResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Journal"],
                "summary": "Add a journal entry",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "format": "uuid", "description": "Contract ID", "name": "id", "in": "path", "required": true},
                    {"description": "Entry", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.JournalEntryRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.JournalEntry"}}
                }
            }
        },
        "/contracts/{id}/journal/search": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Journal"],
                "summary": "Search journal entries",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "format": "uuid", "description": "Contract ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Query", "name": "q", "in": "query", "required": true},
                    {"maximum": 50, "minimum": 1, "type": "integer", "default": 5, "description": "Max results", "name": "k", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SearchJournalResponse"}}
                }
            }
        },
        "/oracle/draft": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Oracle"],
                "summary": "Draft a contract from a goal",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true},
                    {"description": "Goal", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.DraftRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.DraftResult"}}
                }
            }
        },
        "/oracle/violation": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Oracle"],
                "summary": "Judge a violation story",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true},
                    {"description": "Violation", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.VerdictRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.VerdictResult"}}
                }
            }
        },
        "/temptations/{id}/outcome": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Oracle"],
                "summary": "Record a temptation outcome",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "format": "uuid", "description": "Temptation ID", "name": "id", "in": "path", "required": true},
                    {"description": "Outcome", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ResolveTemptationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Temptation"}},
                    "409": {"description": "Already resolved", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/me/push-token": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Me"],
                "summary": "Set the push token",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true},
                    {"description": "Token", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.PushTokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}}
                }
            }
        },
        "/me/briefings": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Me"],
                "summary": "Read briefings",
                "parameters": [
                    {"type": "string", "description": "Caller id", "name": "X-User-ID", "in": "header", "required": true},
                    {"type": "string", "description": "YYYY-MM-DD", "name": "date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.BriefingsResponse"}},
                    "400": {"description": "Bad date", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "code": {"type": "string", "example": "not_found"},
                "message": {"type": "string", "example": "contract not found"}
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"}
            }
        },
        "handlers.CreateContractRequest": {
            "type": "object",
            "required": ["title", "behavior", "type"],
            "properties": {
                "title": {"type": "string"},
                "behavior": {"type": "string"},
                "type": {"type": "string", "enum": ["DO", "AVOID"]},
                "pillar": {"type": "string"},
                "penalty": {"type": "string"},
                "exceptions": {"type": "array", "items": {"type": "string"}},
                "start_date": {"type": "string", "example": "2025-06-01"},
                "end_date": {"type": "string", "example": "2025-07-01"},
                "times_per_week": {"type": "integer"},
                "auto_keep": {"type": "boolean"},
                "witness_linked": {"type": "boolean"}
            }
        },
        "handlers.ListContractsResponse": {
            "type": "object",
            "properties": {
                "contracts": {"type": "array", "items": {"$ref": "#/definitions/domain.Contract"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.CheckInRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["kept", "broken", "exception"]},
                "notes": {"type": "string"}
            }
        },
        "handlers.CheckInResponse": {
            "type": "object",
            "properties": {
                "log": {"$ref": "#/definitions/domain.DailyLog"},
                "contract": {"$ref": "#/definitions/domain.Contract"}
            }
        },
        "handlers.ListLogsResponse": {
            "type": "object",
            "properties": {
                "logs": {"type": "array", "items": {"$ref": "#/definitions/domain.DailyLog"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        },
        "handlers.ReportViolationRequest": {
            "type": "object",
            "required": ["reason", "decision"],
            "properties": {
                "reason": {"type": "string"},
                "story": {"type": "string"},
                "decision": {"type": "string", "enum": ["recommit", "pause", "retire"]}
            }
        },
        "handlers.ViolationResponse": {
            "type": "object",
            "properties": {
                "contract": {"$ref": "#/definitions/domain.Contract"},
                "violation": {"type": "object"},
                "log": {"$ref": "#/definitions/domain.DailyLog"}
            }
        },
        "handlers.JudgeRequest": {
            "type": "object",
            "required": ["situation"],
            "properties": {"situation": {"type": "string"}}
        },
        "handlers.DraftRequest": {
            "type": "object",
            "required": ["goal"],
            "properties": {"goal": {"type": "string"}}
        },
        "handlers.VerdictRequest": {
            "type": "object",
            "required": ["contract_id", "reason"],
            "properties": {
                "contract_id": {"type": "string"},
                "reason": {"type": "string"},
                "story": {"type": "string"},
                "decision": {"type": "string"}
            }
        },
        "handlers.CoachRequest": {
            "type": "object",
            "properties": {"context": {"type": "string"}}
        },
        "handlers.ResolveTemptationRequest": {
            "type": "object",
            "required": ["outcome"],
            "properties": {"outcome": {"type": "string", "enum": ["resisted", "relapsed"]}}
        },
        "handlers.JournalEntryRequest": {
            "type": "object",
            "required": ["content"],
            "properties": {"content": {"type": "string"}}
        },
        "handlers.ListJournalResponse": {
            "type": "object",
            "properties": {
                "entries": {"type": "array", "items": {"$ref": "#/definitions/domain.JournalEntry"}}
            }
        },
        "handlers.SearchJournalResponse": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "results": {"type": "array", "items": {"type": "object"}}
            }
        },
        "handlers.PushTokenRequest": {
            "type": "object",
            "properties": {"token": {"type": "string"}}
        },
        "handlers.BriefingsResponse": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "briefings": {"type": "array", "items": {"type": "object"}}
            }
        },
        "domain.Contract": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "title": {"type": "string"},
                "behavior": {"type": "string"},
                "type": {"type": "string"},
                "pillar": {"type": "string"},
                "penalty": {"type": "string"},
                "exceptions": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string", "enum": ["active", "paused", "archived"]},
                "outcome": {"type": "string", "enum": ["completed", "breached"]},
                "streak": {"type": "integer"},
                "week_start": {"type": "string"},
                "week_completed_count": {"type": "integer"},
                "witness_linked": {"type": "boolean"},
                "start_date": {"type": "string"},
                "end_date": {"type": "string"},
                "times_per_week": {"type": "integer"},
                "auto_keep": {"type": "boolean"},
                "failure_reason": {"type": "string"}
            }
        },
        "domain.DailyLog": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "contract_id": {"type": "string"},
                "date": {"type": "string"},
                "status": {"type": "string", "enum": ["kept", "broken", "exception"]},
                "notes": {"type": "string"},
                "source": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.JournalEntry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "contract_id": {"type": "string"},
                "type": {"type": "string", "enum": ["manual", "auto"]},
                "content": {"type": "string"},
                "reply": {"type": "string"}
            }
        },
        "domain.Temptation": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "contract_id": {"type": "string"},
                "context": {"type": "string"},
                "coaching": {"type": "string"},
                "outcome": {"type": "string"}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "push_token": {"type": "string"}
            }
        },
        "live.Snapshot": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"},
                "contracts": {"type": "array", "items": {"$ref": "#/definitions/domain.Contract"}},
                "at": {"type": "string"}
            }
        },
        "services.AuditResult": {
            "type": "object",
            "properties": {
                "weakness": {"type": "string"},
                "suggestion": {"type": "string"},
                "silent": {"type": "boolean"}
            }
        },
        "services.JudgeResult": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "explanation": {"type": "string"},
                "silent": {"type": "boolean"}
            }
        },
        "services.DraftResult": {
            "type": "object",
            "properties": {
                "draft": {"type": "object"},
                "message": {"type": "string"},
                "silent": {"type": "boolean"}
            }
        },
        "services.VerdictResult": {
            "type": "object",
            "properties": {
                "verdict": {"type": "string"},
                "reasoning": {"type": "string"},
                "silent": {"type": "boolean"}
            }
        },
        "services.CoachResult": {
            "type": "object",
            "properties": {
                "temptation": {"$ref": "#/definitions/domain.Temptation"},
                "coaching": {"type": "string"},
                "silent": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Pactkeeper API",
	Description:      "Behavior contracts with streaks, daily check-ins, violations and scheduled settlement.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
