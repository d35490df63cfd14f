// Package docs holds the Swagger document served under /swagger. Regenerate
// with `swag init -g cmd/api/main.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/activation-codes/redeem": {
            "post": {
                "summary": "Redeem an activation code",
                "tags": [
                    "activation"
                ],
                "security": [
                    {
                        "CookieAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "description": "Code",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "410": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/activation-codes/status/{status}": {
            "get": {
                "summary": "List activation codes by status",
                "tags": [
                    "activation"
                ],
                "security": [
                    {
                        "CookieAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "status",
                        "in": "path",
                        "required": true,
                        "description": "UNUSED, ACTIVATED or EXPIRED",
                        "type": "string"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Page size",
                        "type": "integer"
                    },
                    {
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "description": "Offset",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/admin/activation-codes": {
            "post": {
                "summary": "Generate activation codes for an agent",
                "tags": [
                    "admin"
                ],
                "security": [
                    {
                        "CookieAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "description": "Batch",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "410": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/admin/users": {
            "get": {
                "summary": "List users",
                "tags": [
                    "admin"
                ],
                "security": [
                    {
                        "CookieAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "role",
                        "in": "query",
                        "required": false,
                        "description": "USER or ADMIN",
                        "type": "string"
                    },
                    {
                        "name": "status",
                        "in": "query",
                        "required": false,
                        "description": "ACTIVE or BANNED",
                        "type": "string"
                    },
                    {
                        "name": "search",
                        "in": "query",
                        "required": false,
                        "description": "Substring of email or nickname",
                        "type": "string"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Page size",
                        "type": "integer"
                    },
                    {
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "description": "Offset",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "403": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/admin/users/{id}": {
            "patch": {
                "summary": "Ban, unban, promote or demote a user",
                "tags": [
                    "admin"
                ],
                "security": [
                    {
                        "CookieAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "User id",
                        "type": "string"
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "description": "ban, unban, promote or demote",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "403": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/admin/upload": {
            "post": {
                "summary": "Upload an image",
                "tags": [
                    "admin"
                ],
                "security": [
                    {
                        "CookieAuth": []
                    }
                ],
                "consumes": [
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "file",
                        "in": "formData",
                        "required": true,
                        "description": "jpeg, png, gif or webp, at most 5MB",
                        "type": "file"
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "403": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/admin/uploads": {
            "get": {
                "summary": "List uploads",
                "tags": [
                    "admin"
                ],
                "security": [
                    {
                        "CookieAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Page size",
                        "type": "integer"
                    },
                    {
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "description": "Offset",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/admin/default-config": {
            "get": {
                "summary": "AI provider defaults",
                "tags": [
                    "admin"
                ],
                "security": [
                    {
                        "CookieAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/auth/register": {
            "post": {
                "summary": "Register a new user",
                "tags": [
                    "auth"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "description": "User registration details",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "500": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/auth/login": {
            "post": {
                "summary": "Login",
                "tags": [
                    "auth"
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "description": "Login credentials",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "401": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "403": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "429": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/auth/logout": {
            "post": {
                "summary": "Logout",
                "tags": [
                    "auth"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/auth/me": {
            "get": {
                "summary": "Current user",
                "tags": [
                    "auth"
                ],
                "security": [
                    {
                        "CookieAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "401": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "403": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/agents": {
            "get": {
                "summary": "List public agents",
                "tags": [
                    "catalog"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "rarity",
                        "in": "query",
                        "required": false,
                        "description": "COMMON, RARE, EPIC or LEGENDARY",
                        "type": "string"
                    },
                    {
                        "name": "seriesId",
                        "in": "query",
                        "required": false,
                        "description": "Series id",
                        "type": "string"
                    },
                    {
                        "name": "search",
                        "in": "query",
                        "required": false,
                        "description": "Case-insensitive substring of name or description",
                        "type": "string"
                    },
                    {
                        "name": "sort",
                        "in": "query",
                        "required": false,
                        "description": "newest (default), price_asc or price_desc",
                        "type": "string"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Page size, 1..100 (default 20)",
                        "type": "integer"
                    },
                    {
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "description": "Offset",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/agents/{slug}": {
            "get": {
                "summary": "Get a public agent by slug",
                "tags": [
                    "catalog"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "slug",
                        "in": "path",
                        "required": true,
                        "description": "Agent slug",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "410": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/shop/series": {
            "get": {
                "summary": "List public series with their agents",
                "tags": [
                    "catalog"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Page size, 1..100 (default 20)",
                        "type": "integer"
                    },
                    {
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "description": "Offset",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/shop/series/{slug}": {
            "get": {
                "summary": "Get a public series by slug",
                "tags": [
                    "catalog"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "slug",
                        "in": "path",
                        "required": true,
                        "description": "Series slug",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "410": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/user-agents": {
            "get": {
                "summary": "List the caller's agents",
                "tags": [
                    "catalog"
                ],
                "security": [
                    {
                        "CookieAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Page size, 1..100 (default 20)",
                        "type": "integer"
                    },
                    {
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "description": "Offset",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "401": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/exchange": {
            "post": {
                "summary": "List an owned agent for exchange",
                "tags": [
                    "exchange"
                ],
                "security": [
                    {
                        "CookieAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "description": "Exchange listing",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "403": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            },
            "get": {
                "summary": "List the caller's exchanges",
                "tags": [
                    "exchange"
                ],
                "security": [
                    {
                        "CookieAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Page size",
                        "type": "integer"
                    },
                    {
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "description": "Offset",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/exchange/{id}/proposals": {
            "post": {
                "summary": "Offer an agent against an exchange",
                "tags": [
                    "exchange"
                ],
                "security": [
                    {
                        "CookieAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Exchange id",
                        "type": "string"
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "description": "Offered agent",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "403": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/exchange/cancel": {
            "delete": {
                "summary": "Withdraw a pending exchange with no pending proposals",
                "tags": [
                    "exchange"
                ],
                "security": [
                    {
                        "CookieAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "description": "Exchange to withdraw",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "403": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/health": {
            "get": {
                "summary": "Liveness probe",
                "tags": [
                    "health"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/health/ready": {
            "get": {
                "summary": "Readiness probe",
                "tags": [
                    "health"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "503": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/orders": {
            "post": {
                "summary": "Place an order for an agent",
                "tags": [
                    "orders"
                ],
                "security": [
                    {
                        "CookieAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "description": "Agent to buy",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "410": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            },
            "get": {
                "summary": "List the caller's orders",
                "tags": [
                    "orders"
                ],
                "security": [
                    {
                        "CookieAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Page size",
                        "type": "integer"
                    },
                    {
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "description": "Offset",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/admin/orders": {
            "get": {
                "summary": "List orders",
                "tags": [
                    "admin"
                ],
                "security": [
                    {
                        "CookieAuth": []
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "status",
                        "in": "query",
                        "required": false,
                        "description": "PENDING, PAID, CANCELLED or REFUNDED",
                        "type": "string"
                    },
                    {
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "description": "Page size",
                        "type": "integer"
                    },
                    {
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "description": "Offset",
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "403": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        },
        "/admin/orders/{id}": {
            "patch": {
                "summary": "Pay, cancel or refund an order",
                "tags": [
                    "admin"
                ],
                "security": [
                    {
                        "CookieAuth": []
                    }
                ],
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "description": "Order id",
                        "type": "string"
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "description": "pay, cancel or refund",
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "404": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "409": {
                        "description": "Error",
                        "schema": {
                            "type": "object"
                        }
                    }
                }
            }
        }
    },
    "securityDefinitions": {
        "CookieAuth": {
            "type": "apiKey",
            "name": "auth-token",
            "in": "cookie"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "agentdex API",
	Description:      "Agent catalog, ownership, exchange and activation API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
