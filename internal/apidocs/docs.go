// Package apidocs holds the OpenAPI document of the renderd HTTP API and
// registers it with swag so the Swagger UI can serve it.
package apidocs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/render": {
            "post": {
                "description": "Renders a fully assembled HTML document on the shared headless engine and returns the PDF.",
                "consumes": ["application/json"],
                "produces": ["application/pdf"],
                "tags": ["render"],
                "summary": "Render HTML to PDF",
                "parameters": [
                    {"description": "Document and page options", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/types.RenderRequest"}}
                ],
                "responses": {
                    "200": {"description": "PDF document", "schema": {"type": "file"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "504": {"description": "Gateway Timeout", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Engine and session status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        },
        "/sanity": {
            "get": {
                "produces": ["application/json"],
                "tags": ["status"],
                "summary": "Resolved launch strategy and executable check",
                "responses": {
                    "200": {"description": "Executable found"},
                    "503": {"description": "Executable missing"}
                }
            }
        },
        "/healthz": {"get": {"tags": ["status"], "summary": "Liveness", "responses": {"200": {"description": "ok"}}}},
        "/readyz": {"get": {"tags": ["status"], "summary": "Readiness", "responses": {"200": {"description": "ready"}, "503": {"description": "unavailable"}}}}
    },
    "definitions": {
        "types.Margins": {
            "type": "object",
            "properties": {
                "top": {"type": "string", "example": "0.5cm"},
                "right": {"type": "string", "example": "0.5cm"},
                "bottom": {"type": "string", "example": "0.5cm"},
                "left": {"type": "string", "example": "0.5cm"}
            }
        },
        "types.PageOptions": {
            "type": "object",
            "properties": {
                "format": {"type": "string", "enum": ["A4", "Letter"], "example": "A4"},
                "orientation": {"type": "string", "enum": ["portrait", "landscape"], "example": "portrait"},
                "margins": {"$ref": "#/definitions/types.Margins"}
            }
        },
        "types.RenderRequest": {
            "type": "object",
            "required": ["html"],
            "properties": {
                "html": {"type": "string", "example": "<!DOCTYPE html><html><body><h1>Report</h1></body></html>"},
                "name": {"type": "string", "example": "report-2024-001"},
                "page": {"$ref": "#/definitions/types.PageOptions"}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "rendering engine unavailable, retry later"},
                "details": {"type": "string", "example": "fork/exec /opt/chromium/chrome: text file busy"},
                "errorClass": {"type": "string", "example": "spawn_busy"},
                "code": {"type": "integer", "example": 503}
            }
        },
        "types.LaunchAttemptStatus": {
            "type": "object",
            "properties": {
                "attempt": {"type": "integer", "example": 2},
                "class": {"type": "string", "example": "spawn_busy"},
                "delay_ms": {"type": "integer", "example": 1000},
                "error": {"type": "string"}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "example": "ready"},
                "strategy": {"type": "string", "example": "local_default"},
                "pid": {"type": "integer", "example": 12345},
                "engine_created_unix": {"type": "integer"},
                "connected": {"type": "boolean"},
                "launches_total": {"type": "integer"},
                "relaunches_total": {"type": "integer"},
                "invalidations_total": {"type": "integer"},
                "last_launch_attempts": {"type": "array", "items": {"$ref": "#/definitions/types.LaunchAttemptStatus"}},
                "last_error": {"type": "string"},
                "last_error_class": {"type": "string"},
                "sessions_open": {"type": "integer"},
                "sessions_opened": {"type": "integer"},
                "sessions_closed": {"type": "integer"},
                "max_sessions": {"type": "integer", "example": 4},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "renderd API",
	Description:      "HTML to PDF rendering on a shared headless Chromium.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
