// Package docs registers the OpenAPI description of the ledger API.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "basePath": "/api/v1",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/retailers": {
            "get": {"tags": ["retailers"], "summary": "List retailers", "parameters": [{"$ref": "#/parameters/page"}, {"$ref": "#/parameters/page_size"}], "responses": {"200": {"$ref": "#/responses/ok"}}},
            "post": {"tags": ["retailers"], "summary": "Create a retailer", "responses": {"201": {"$ref": "#/responses/ok"}, "400": {"$ref": "#/responses/error"}}}
        },
        "/retailers/{id}": {
            "get": {"tags": ["retailers"], "summary": "Get a retailer", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"$ref": "#/responses/ok"}, "404": {"$ref": "#/responses/error"}}},
            "put": {"tags": ["retailers"], "summary": "Update a retailer", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"$ref": "#/responses/ok"}, "404": {"$ref": "#/responses/error"}}},
            "delete": {"tags": ["retailers"], "summary": "Delete a retailer without invoices", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"204": {"description": "Deleted"}, "409": {"$ref": "#/responses/error"}}}
        },
        "/retailers/{id}/statement.xlsx": {
            "get": {"tags": ["retailers"], "summary": "Download the statement as a workbook", "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"], "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "Workbook"}}}
        },
        "/retailers/{id}/statement.pdf": {
            "get": {"tags": ["retailers"], "summary": "Download the statement as PDF", "produces": ["application/pdf"], "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"description": "PDF"}, "501": {"$ref": "#/responses/error"}}}
        },
        "/invoices": {
            "get": {"tags": ["invoices"], "summary": "List invoices", "parameters": [{"$ref": "#/parameters/page"}, {"$ref": "#/parameters/page_size"}, {"name": "status", "in": "query", "type": "string", "enum": ["paid", "due", "overdue"]}, {"name": "retailer_id", "in": "query", "type": "string", "format": "uuid"}], "responses": {"200": {"$ref": "#/responses/ok"}}},
            "post": {"tags": ["invoices"], "summary": "Create an invoice", "responses": {"201": {"$ref": "#/responses/ok"}, "400": {"$ref": "#/responses/error"}, "404": {"$ref": "#/responses/error"}}}
        },
        "/invoices/{id}": {
            "get": {"tags": ["invoices"], "summary": "Get an invoice", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"$ref": "#/responses/ok"}, "404": {"$ref": "#/responses/error"}}},
            "put": {"tags": ["invoices"], "summary": "Update an invoice", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"$ref": "#/responses/ok"}, "422": {"$ref": "#/responses/error"}}},
            "delete": {"tags": ["invoices"], "summary": "Delete an invoice without payments", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"204": {"description": "Deleted"}, "409": {"$ref": "#/responses/error"}}}
        },
        "/invoices/{id}/mark-paid": {
            "post": {"tags": ["invoices"], "summary": "Settle the remaining balance of an invoice", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"$ref": "#/responses/ok"}, "422": {"$ref": "#/responses/error"}}}
        },
        "/payments": {
            "get": {"tags": ["payments"], "summary": "List payments", "parameters": [{"$ref": "#/parameters/page"}, {"$ref": "#/parameters/page_size"}], "responses": {"200": {"$ref": "#/responses/ok"}}},
            "post": {"tags": ["payments"], "summary": "Record a payment with explicit allocations", "responses": {"201": {"$ref": "#/responses/ok"}, "400": {"$ref": "#/responses/error"}, "422": {"$ref": "#/responses/error"}}}
        },
        "/payments/allocate": {
            "post": {"tags": ["payments"], "summary": "Allocate a lump sum oldest due first", "responses": {"201": {"$ref": "#/responses/ok"}, "409": {"$ref": "#/responses/error"}, "422": {"$ref": "#/responses/error"}}}
        },
        "/payments/{id}": {
            "get": {"tags": ["payments"], "summary": "Get a payment with its allocations", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"$ref": "#/responses/ok"}, "404": {"$ref": "#/responses/error"}}},
            "delete": {"tags": ["payments"], "summary": "Delete a payment and restore its invoices", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"$ref": "#/responses/ok"}, "404": {"$ref": "#/responses/error"}}}
        },
        "/notifications": {
            "get": {"tags": ["notifications"], "summary": "List notifications", "parameters": [{"$ref": "#/parameters/page"}, {"$ref": "#/parameters/page_size"}], "responses": {"200": {"$ref": "#/responses/ok"}}}
        },
        "/notifications/unread-count": {
            "get": {"tags": ["notifications"], "summary": "Count unread notifications", "responses": {"200": {"$ref": "#/responses/ok"}}}
        },
        "/notifications/read-all": {
            "post": {"tags": ["notifications"], "summary": "Mark every notification read", "responses": {"200": {"$ref": "#/responses/ok"}}}
        },
        "/notifications/due-check": {
            "post": {"tags": ["notifications"], "summary": "Run today's due check for the tenant", "responses": {"200": {"$ref": "#/responses/ok"}}}
        },
        "/notifications/{id}/read": {
            "post": {"tags": ["notifications"], "summary": "Mark a notification read", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"200": {"$ref": "#/responses/ok"}, "404": {"$ref": "#/responses/error"}}}
        },
        "/notifications/{id}": {
            "delete": {"tags": ["notifications"], "summary": "Delete a notification", "parameters": [{"$ref": "#/parameters/id"}], "responses": {"204": {"description": "Deleted"}, "404": {"$ref": "#/responses/error"}}}
        },
        "/dashboard/summary": {
            "get": {"tags": ["dashboard"], "summary": "Pending and overdue totals with balances per retailer", "responses": {"200": {"$ref": "#/responses/ok"}}}
        },
        "/system/info": {
            "get": {"tags": ["system"], "summary": "Service version and uptime", "responses": {"200": {"$ref": "#/responses/ok"}}}
        },
        "/health": {
            "get": {"tags": ["system"], "summary": "Liveness and dependency checks", "security": [], "responses": {"200": {"$ref": "#/responses/ok"}, "503": {"$ref": "#/responses/ok"}}}
        }
    },
    "parameters": {
        "id": {"name": "id", "in": "path", "required": true, "type": "string", "format": "uuid"},
        "page": {"name": "page", "in": "query", "type": "integer", "minimum": 1},
        "page_size": {"name": "page_size", "in": "query", "type": "integer", "minimum": 1, "maximum": 100}
    },
    "responses": {
        "ok": {"description": "Success envelope", "schema": {"$ref": "#/definitions/Response"}},
        "error": {"description": "Error envelope with a ledger error code", "schema": {"$ref": "#/definitions/Response"}}
    },
    "definitions": {
        "Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/ErrorInfo"},
                "meta": {"$ref": "#/definitions/Meta"}
            }
        },
        "ErrorInfo": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "OVERPAYMENT"},
                "message": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "Meta": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo is served at /openapi.json
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Title:            "Ledgerly API",
	Description:      "Receivables ledger: retailers, invoices, payments with oldest-due-first allocation, due reminders and statements.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
