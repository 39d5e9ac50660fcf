// Package docs holds the Swagger template served under /v1/swagger. Keep it in
// step with the handler annotations; `swag init -g cmd/api/main.go` rebuilds it.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "url": "http://www.swagger.io/support",
            "email": "support@swagger.io"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/authentication/token": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["authentication"],
                "summary": "Login to get Token",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/main.CreateUserTokenPayload"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.TokenResponse"}},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/authentication/user": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["authentication"],
                "summary": "Registers a user",
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/main.RegisterUserPayload"}}
                ],
                "responses": {
                    "201": {"description": "User registered"},
                    "409": {"description": "Username or email taken"},
                    "422": {"description": "Validation failed"}
                }
            }
        },
        "/businesses": {
            "get": {
                "produces": ["application/json"],
                "tags": ["businesses"],
                "summary": "List businesses",
                "parameters": [
                    {"type": "integer", "name": "category", "in": "query"},
                    {"type": "array", "items": {"type": "integer"}, "collectionFormat": "multi", "name": "tags", "in": "query"},
                    {"type": "string", "name": "q", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.BusinessListResponse"}},
                    "400": {"description": "Bad Request"}
                }
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["multipart/form-data"],
                "tags": ["businesses"],
                "summary": "Create a business",
                "parameters": [
                    {"type": "string", "name": "name", "in": "formData", "required": true},
                    {"type": "string", "name": "description", "in": "formData"},
                    {"type": "string", "name": "location", "in": "formData"},
                    {"type": "number", "name": "latitude", "in": "formData"},
                    {"type": "number", "name": "longitude", "in": "formData"},
                    {"type": "integer", "name": "category", "in": "formData"},
                    {"type": "array", "items": {"type": "integer"}, "collectionFormat": "multi", "name": "tags", "in": "formData"},
                    {"type": "file", "name": "image", "in": "formData"}
                ],
                "responses": {
                    "303": {"description": "See Other"},
                    "401": {"description": "Unauthorized"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/businesses/{businessID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["businesses"],
                "summary": "Business detail",
                "parameters": [
                    {"type": "integer", "name": "businessID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.BusinessDetailResponse"}},
                    "404": {"description": "Not Found"}
                }
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/x-www-form-urlencoded"],
                "tags": ["businesses"],
                "summary": "Comment on or rate a business",
                "parameters": [
                    {"type": "integer", "name": "businessID", "in": "path", "required": true},
                    {"type": "string", "name": "comment_submit", "in": "formData"},
                    {"type": "string", "name": "text", "in": "formData"},
                    {"type": "string", "name": "rating_submit", "in": "formData"},
                    {"type": "integer", "name": "stars", "in": "formData"}
                ],
                "responses": {
                    "303": {"description": "See Other"},
                    "400": {"description": "Bad Request"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/businesses/{businessID}/like-toggle": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["businesses"],
                "summary": "Like or dislike a business",
                "parameters": [
                    {"type": "integer", "name": "businessID", "in": "path", "required": true},
                    {"type": "string", "name": "value", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/likes.ToggleResult"}},
                    "400": {"description": "Bad Request"}
                }
            }
        },
        "/businesses/{businessID}/premium": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["premium"],
                "summary": "Premium upgrade page",
                "parameters": [
                    {"type": "integer", "name": "businessID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/main.PremiumPageResponse"}},
                    "403": {"description": "Forbidden"}
                }
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "tags": ["premium"],
                "summary": "Start a premium checkout",
                "parameters": [
                    {"type": "integer", "name": "businessID", "in": "path", "required": true}
                ],
                "responses": {
                    "303": {"description": "See Other"},
                    "403": {"description": "Forbidden"},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/main.PremiumPageResponse"}}
                }
            }
        },
        "/categories/{categoryID}": {
            "delete": {
                "security": [{"BasicAuth": []}],
                "description": "Businesses in the category are kept and lose their category.",
                "tags": ["taxonomy"],
                "summary": "Delete a category",
                "parameters": [
                    {"type": "integer", "description": "Category ID", "name": "categoryID", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}
            }
        },
        "/categories": {
            "get": {
                "produces": ["application/json"],
                "tags": ["taxonomy"],
                "summary": "List categories",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BasicAuth": []}],
                "consumes": ["application/json"],
                "tags": ["taxonomy"],
                "summary": "Create a category",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}
            }
        },
        "/tags": {
            "get": {
                "produces": ["application/json"],
                "tags": ["taxonomy"],
                "summary": "List tags",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BasicAuth": []}],
                "consumes": ["application/json"],
                "tags": ["taxonomy"],
                "summary": "Create a tag",
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}
            }
        },
        "/tags/{tagID}": {
            "delete": {
                "security": [{"BasicAuth": []}],
                "description": "Businesses keep existing; only their association with the tag is removed.",
                "tags": ["taxonomy"],
                "summary": "Delete a tag",
                "parameters": [
                    {"type": "integer", "description": "Tag ID", "name": "tagID", "in": "path", "required": true}
                ],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}
            }
        },
        "/health": {
            "get": {
                "security": [{"BasicAuth": []}],
                "description": "Reports service status, environment, version and database reachability.",
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Healthcheck",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "503": {"description": "Service Unavailable", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/payments/stripe/webhook": {
            "post": {
                "tags": ["payments"],
                "summary": "Stripe webhook",
                "parameters": [
                    {"type": "string", "name": "Stripe-Signature", "in": "header", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/payments/khalti/return": {
            "get": {
                "tags": ["payments"],
                "summary": "Khalti return URL",
                "parameters": [
                    {"type": "string", "name": "pidx", "in": "query", "required": true}
                ],
                "responses": {"303": {"description": "See Other"}, "400": {"description": "Bad Request"}}
            }
        }
    },
    "definitions": {
        "likes.ToggleResult": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "total_dislikes": {"type": "integer"},
                "total_likes": {"type": "integer"}
            }
        },
        "main.BusinessDetailResponse": {
            "type": "object",
            "properties": {
                "average_rating": {"type": "number"},
                "business": {"type": "object"},
                "comments": {"type": "array", "items": {"type": "object"}},
                "is_owner": {"type": "boolean"},
                "total_dislikes": {"type": "integer"},
                "total_likes": {"type": "integer"},
                "total_ratings": {"type": "integer"}
            }
        },
        "main.BusinessListResponse": {
            "type": "object",
            "properties": {
                "businesses": {"type": "array", "items": {"type": "object"}},
                "cancelled": {"type": "boolean"},
                "categories": {"type": "array", "items": {"type": "object"}},
                "query": {"type": "string"},
                "selected_category": {"type": "integer"},
                "selected_tags": {"type": "array", "items": {"type": "integer"}},
                "success": {"type": "boolean"},
                "tags": {"type": "array", "items": {"type": "object"}}
            }
        },
        "main.CreateUserTokenPayload": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "maxLength": 255},
                "password": {"type": "string", "maxLength": 72}
            }
        },
        "main.PremiumPageResponse": {
            "type": "object",
            "properties": {
                "business": {"type": "object"},
                "currency": {"type": "string"},
                "error": {"type": "string"},
                "price_minor": {"type": "integer"},
                "provider": {"type": "string"},
                "publishable_key": {"type": "string"}
            }
        },
        "main.RegisterUserPayload": {
            "type": "object",
            "required": ["email", "password", "username"],
            "properties": {
                "email": {"type": "string", "maxLength": 255},
                "password": {"type": "string", "maxLength": 72, "minLength": 8},
                "username": {"type": "string", "maxLength": 150}
            }
        },
        "main.TokenResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "user_id": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        },
        "BasicAuth": {
            "type": "basic"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "",
	Host:             "",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "Biznesnet API",
	Description:      "API for Biznesnet, a business directory with comments, ratings, reactions and premium listings.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
