// Package docs holds the OpenAPI description served at /swagger. It follows
// the layout of swag's generated output; regenerate with `swag init -g cmd/salesapi/main.go`.
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
        "/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "User registration details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.registerRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.userResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Obtain an auth token",
                "parameters": [
                    {"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.tokenResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/logout": {
            "post": {
                "security": [{"TokenAuth": []}],
                "tags": ["auth"],
                "summary": "Revoke the current token",
                "responses": {
                    "204": {"description": "No Content"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/sales": {
            "get": {
                "security": [{"TokenAuth": []}],
                "produces": ["application/json"],
                "tags": ["sales"],
                "summary": "List the caller's sales",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.saleResponse"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "post": {
                "security": [{"TokenAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sales"],
                "summary": "Record a sale",
                "parameters": [
                    {"description": "Sale", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.saleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.saleResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/sales/schedule": {
            "post": {
                "security": [{"TokenAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sales"],
                "summary": "Preview a payment schedule",
                "parameters": [
                    {"description": "Sale terms", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.scheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.scheduleResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/sales/commission": {
            "get": {
                "security": [{"TokenAuth": []}],
                "produces": ["application/json"],
                "tags": ["sales"],
                "summary": "Commission earned on billed installments in a month",
                "parameters": [
                    {"type": "string", "description": "Month as YYYY-MM", "name": "month", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.commissionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/sales/{id}": {
            "get": {
                "security": [{"TokenAuth": []}],
                "produces": ["application/json"],
                "tags": ["sales"],
                "summary": "Get one of the caller's sales",
                "parameters": [{"type": "string", "description": "Sale id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.saleResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "patch": {
                "security": [{"TokenAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sales"],
                "summary": "Partially update a sale",
                "parameters": [
                    {"type": "string", "description": "Sale id", "name": "id", "in": "path", "required": true},
                    {"description": "Fields to change", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.saleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.saleResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"TokenAuth": []}],
                "tags": ["sales"],
                "summary": "Delete a sale",
                "parameters": [{"type": "string", "description": "Sale id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/health": {
            "get": {"produces": ["application/json"], "tags": ["health"], "summary": "Liveness probe", "responses": {"200": {"description": "OK"}}}
        },
        "/health/ready": {
            "get": {"produces": ["application/json"], "tags": ["health"], "summary": "Readiness probe", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        }
    },
    "definitions": {
        "api.errorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}
            }
        },
        "handler.registerRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"},
                "email": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "handler.userResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"}
            }
        },
        "handler.tokenResponse": {
            "type": "object",
            "properties": {"token": {"type": "string"}}
        },
        "handler.installmentPayload": {
            "type": "object",
            "properties": {
                "month": {"type": "integer", "example": 30},
                "value": {"type": "number", "example": 250},
                "commission": {"type": "number", "example": 25},
                "paymentDate": {"type": "string", "example": "05/06/2025"},
                "billed": {"type": "boolean"}
            }
        },
        "handler.saleRequest": {
            "type": "object",
            "properties": {
                "product_line": {"type": "string", "example": "aves"},
                "value": {"type": "string", "example": "1000.00"},
                "discount_percent": {"type": "string", "example": "0.00"},
                "payment_term": {"type": "integer", "minimum": 0, "maximum": 3600, "example": 120},
                "payment_dates": {"type": "array", "maxItems": 120, "items": {"$ref": "#/definitions/handler.installmentPayload"}},
                "buyer": {"type": "string", "example": "Granja Azul"}
            }
        },
        "handler.saleResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "product_line": {"type": "string"},
                "value": {"type": "string"},
                "discount_percent": {"type": "string"},
                "payment_term": {"type": "integer"},
                "payment_dates": {"type": "array", "items": {"$ref": "#/definitions/handler.installmentPayload"}},
                "buyer": {"type": "string"},
                "user": {"type": "string"}
            }
        },
        "handler.scheduleRequest": {
            "type": "object",
            "properties": {
                "value": {"type": "string", "example": "1000.00"},
                "payment_term": {"type": "integer", "minimum": 0, "maximum": 3600, "example": 120},
                "product_line": {"type": "string", "example": "aves"},
                "discount_percent": {"type": "string", "example": "5.00"},
                "start_date": {"type": "string", "example": "06/05/2025"}
            }
        },
        "handler.scheduleResponse": {
            "type": "object",
            "properties": {
                "commission_rate": {"type": "string"},
                "installments": {"type": "array", "items": {"$ref": "#/definitions/handler.installmentPayload"}}
            }
        },
        "handler.commissionResponse": {
            "type": "object",
            "properties": {
                "month": {"type": "string", "example": "2025-06"},
                "payout_month": {"type": "string", "example": "2025-07"},
                "total": {"type": "string", "example": "13.50"},
                "installments": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "TokenAuth": {
            "description": "Bearer <token> or Token <token>",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Sales API",
	Description:      "Per-user sales tracking with payment schedules and commission.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
