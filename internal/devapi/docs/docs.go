// Package docs registers the OpenAPI description of the reference users API
// with swag. Regenerate with `swag init -g cmd/devapi/main.go -o internal/devapi/docs`.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/login": {
            "post": {
                "description": "Exchanges email and password for a bearer token.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Log in",
                "parameters": [
                    {"description": "credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/userconsole.LoginResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/userconsole.User"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Create user",
                "parameters": [
                    {"description": "new account", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.createUserRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/userconsole.User"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get user",
                "parameters": [
                    {"type": "integer", "description": "user id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/userconsole.User"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "description": "Omitted fields keep their value; the password changes only when sent.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Update user",
                "parameters": [
                    {"type": "integer", "description": "user id", "name": "id", "in": "path", "required": true},
                    {"description": "changes", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.updateUserRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/userconsole.User"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Delete user",
                "parameters": [
                    {"type": "integer", "description": "user id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handlers.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/handlers.errorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.createUserRequest": {
            "type": "object",
            "required": ["email", "name", "password"],
            "properties": {
                "email": {"type": "string", "example": "bea@example.com"},
                "name": {"type": "string", "example": "Bea"},
                "password": {"type": "string", "example": "secret1"},
                "type": {"type": "string", "enum": ["regular", "admin"], "example": "regular"}
            }
        },
        "handlers.errorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "user not found"}
            }
        },
        "handlers.loginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "example": "admin@example.com"},
                "password": {"type": "string", "example": "admin123"}
            }
        },
        "handlers.updateUserRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string", "example": "bea@example.com"},
                "name": {"type": "string", "example": "Bea"},
                "password": {"type": "string"},
                "type": {"type": "string", "enum": ["regular", "admin"], "example": "regular"}
            }
        },
        "userconsole.LoginResult": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/userconsole.User"}
            }
        },
        "userconsole.User": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "type": {"type": "string", "enum": ["regular", "admin"]}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
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
	Title:            "Users API",
	Description:      "Reference users API backing the admin console.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
