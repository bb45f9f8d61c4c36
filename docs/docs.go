// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with `swag init -g cmd/server/main.go -o docs` after changing
// handler annotations.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{.Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "produces": ["application/json"],
    "paths": {
        "/analytics/revenue": {
            "get": {
                "tags": ["analytics"],
                "summary": "Get revenue and margin",
                "parameters": [
                    {"$ref": "#/parameters/startDate"},
                    {"$ref": "#/parameters/endDate"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/analytics/forecast": {
            "get": {
                "tags": ["analytics"],
                "summary": "Get revenue forecast",
                "parameters": [
                    {"name": "history_days", "in": "query", "type": "integer", "minimum": 1, "maximum": 730, "description": "Days of history to fit (default 30)"},
                    {"name": "forecast_days", "in": "query", "type": "integer", "minimum": 1, "maximum": 365, "description": "Days to project (default 7)"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/analytics/inventory": {
            "get": {
                "tags": ["analytics"],
                "summary": "Get inventory metrics",
                "parameters": [
                    {"$ref": "#/parameters/startDate"},
                    {"$ref": "#/parameters/endDate"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/analytics/restock": {
            "get": {
                "tags": ["analytics"],
                "summary": "Get restock suggestions",
                "description": "Products needing replenishment as of end_date (default today), most urgent first",
                "parameters": [
                    {"name": "end_date", "in": "query", "type": "string", "description": "As-of date (YYYY-MM-DD)"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/analytics/products": {
            "get": {
                "tags": ["analytics"],
                "summary": "Get product performance",
                "parameters": [
                    {"$ref": "#/parameters/startDate"},
                    {"$ref": "#/parameters/endDate"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/analytics/segments": {
            "get": {
                "tags": ["analytics"],
                "summary": "Get customer segment summary",
                "parameters": [
                    {"$ref": "#/parameters/startDate"},
                    {"$ref": "#/parameters/endDate"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/analytics/customers": {
            "get": {
                "tags": ["analytics"],
                "summary": "Get customer RFM profiles",
                "parameters": [
                    {"$ref": "#/parameters/startDate"},
                    {"$ref": "#/parameters/endDate"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/analytics/unified-customers": {
            "get": {
                "tags": ["analytics"],
                "summary": "Get cross-channel customer identities",
                "parameters": [
                    {"$ref": "#/parameters/startDate"},
                    {"$ref": "#/parameters/endDate"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/analytics/cohorts": {
            "get": {
                "tags": ["analytics"],
                "summary": "Get monthly acquisition cohorts",
                "parameters": [
                    {"name": "months_back", "in": "query", "type": "integer", "minimum": 1, "maximum": 36, "description": "Months of cohorts, including the current one (default 12)"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/analytics/briefing": {
            "get": {
                "tags": ["analytics"],
                "summary": "Get the executive briefing",
                "description": "Health score and up to five prioritized insights for the period",
                "parameters": [
                    {"$ref": "#/parameters/startDate"},
                    {"$ref": "#/parameters/endDate"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/analytics/refresh": {
            "post": {
                "tags": ["analytics"],
                "summary": "Drop cached reports and snapshots",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        }
    },
    "parameters": {
        "startDate": {"name": "start_date", "in": "query", "required": true, "type": "string", "description": "Start date (YYYY-MM-DD)"},
        "endDate": {"name": "end_date", "in": "query", "required": true, "type": "string", "description": "End date, inclusive (YYYY-MM-DD)"}
    },
    "definitions": {
        "dto.ErrorInfo": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "request_id": {"type": "string"},
                "timestamp": {"type": "integer"}
            }
        },
        "dto.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"$ref": "#/definitions/dto.ErrorInfo"}
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
	Title:            "BI Analytics API",
	Description:      "Revenue, forecasting, inventory and customer analytics over commerce records",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
