// Package docs holds the Swagger spec for the LMS account API, served at /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
	"schemes": {{ marshal .Schemes }},
	"swagger": "2.0",
	"info": {
		"description": "{{escape .Description}}",
		"title": "{{.Title}}",
		"contact": {
			"name": "AussieBroadWAN Team",
			"url": "https://github.com/aussiebroadwan/lms"
		},
		"license": {
			"name": "MIT",
			"url": "https://opensource.org/licenses/MIT"
		},
		"version": "{{.Version}}"
	},
	"host": "{{.Host}}",
	"basePath": "{{.BasePath}}",
	"paths": {
		"/api/v1/registration": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Register a new account",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "Activation token",
						"schema": {
							"$ref": "#/definitions/lmssdk.RegisterResponse"
						}
					},
					"400": {
						"description": "Missing or invalid fields",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					},
					"409": {
						"description": "Email already taken",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					},
					"429": {
						"description": "Rate limit exceeded",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					}
				},
				"description": "Emails a 4-digit activation code and returns the activation token to send back with it.",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Name, email and password",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/lmssdk.RegisterRequest"
						}
					}
				]
			}
		},
		"/api/v1/activate-user": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Activate an account",
				"produces": [
					"application/json"
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/lmssdk.MessageResponse"
						}
					},
					"400": {
						"description": "Wrong code or malformed request",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					},
					"401": {
						"description": "Invalid or expired activation token",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					},
					"409": {
						"description": "Email already registered",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					}
				},
				"description": "Exchanges the activation token and the emailed code for a permanent account.",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Activation token and code",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/lmssdk.ActivateRequest"
						}
					}
				]
			}
		},
		"/api/v1/login": {
			"post": {
				"tags": [
					"Auth"
				],
				"summary": "Log in",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/lmssdk.SessionResponse"
						}
					},
					"400": {
						"description": "Missing fields",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					},
					"401": {
						"description": "Invalid email or password",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					},
					"429": {
						"description": "Rate limit exceeded",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					}
				},
				"description": "Sets the access_token and refresh_token cookies and returns the user.",
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Email and password",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/lmssdk.LoginRequest"
						}
					}
				]
			}
		},
		"/api/v1/social-auth": {
			"post": {
				"tags": [
					"Auth"
				],
				"description": "Only registered when SOCIAL_AUTH_ENABLED is set. Accounts with a password cannot be signed in this way.",
				"summary": "Social sign-in",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/lmssdk.SessionResponse"
						}
					},
					"400": {
						"description": "Missing or invalid fields",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					},
					"401": {
						"description": "Email belongs to a password account",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Email, name and avatar URL",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/lmssdk.SocialAuthRequest"
						}
					}
				]
			}
		},
		"/api/v1/refresh": {
			"get": {
				"tags": [
					"Auth"
				],
				"summary": "Refresh the session",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/lmssdk.SessionResponse"
						}
					},
					"401": {
						"description": "invalid_token, token_expired or session_not_found",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					}
				},
				"description": "Requires a live session; a refresh token whose session was ended is rejected with session_not_found."
			}
		},
		"/api/v1/logout": {
			"get": {
				"tags": [
					"Auth"
				],
				"summary": "Log out",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/lmssdk.MessageResponse"
						}
					},
					"401": {
						"description": "Not logged in",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					}
				},
				"security": [
					{
						"CookieAuth": []
					},
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/v1/me": {
			"get": {
				"tags": [
					"Users"
				],
				"summary": "Current user",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/lmssdk.UserResponse"
						}
					},
					"401": {
						"description": "Not logged in",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					},
					"404": {
						"description": "Account no longer exists",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					}
				},
				"security": [
					{
						"CookieAuth": []
					},
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/v1/update-user-info": {
			"put": {
				"tags": [
					"Users"
				],
				"summary": "Update profile",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/lmssdk.UserResponse"
						}
					},
					"400": {
						"description": "Invalid email",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					},
					"409": {
						"description": "Email already taken",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Fields to change",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/lmssdk.UpdateInfoRequest"
						}
					}
				],
				"security": [
					{
						"CookieAuth": []
					},
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/v1/update-password": {
			"put": {
				"tags": [
					"Users"
				],
				"summary": "Change password",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/lmssdk.UserResponse"
						}
					},
					"400": {
						"description": "Weak password or account without password",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					},
					"401": {
						"description": "Wrong old password",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "Old and new password",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/lmssdk.UpdatePasswordRequest"
						}
					}
				],
				"security": [
					{
						"CookieAuth": []
					},
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/v1/get-users": {
			"get": {
				"tags": [
					"Admin"
				],
				"summary": "List users",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/lmssdk.UsersResponse"
						}
					},
					"403": {
						"description": "Caller is not an admin",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					}
				},
				"security": [
					{
						"CookieAuth": []
					},
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/v1/update-user": {
			"put": {
				"tags": [
					"Admin"
				],
				"summary": "Change a user's role",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/lmssdk.UserResponse"
						}
					},
					"400": {
						"description": "Unknown role",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					},
					"403": {
						"description": "Caller is not an admin",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					},
					"404": {
						"description": "User not found",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					}
				},
				"consumes": [
					"application/json"
				],
				"parameters": [
					{
						"description": "User id and role (user or admin)",
						"name": "request",
						"in": "body",
						"required": true,
						"schema": {
							"$ref": "#/definitions/lmssdk.UpdateRoleRequest"
						}
					}
				],
				"security": [
					{
						"CookieAuth": []
					},
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/api/v1/delete-user/{id}": {
			"delete": {
				"tags": [
					"Admin"
				],
				"summary": "Delete a user",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/lmssdk.MessageResponse"
						}
					},
					"403": {
						"description": "Caller is not an admin",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					},
					"404": {
						"description": "User not found",
						"schema": {
							"$ref": "#/definitions/httpx.ErrorBody"
						}
					}
				},
				"parameters": [
					{
						"type": "string",
						"description": "User id",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"CookieAuth": []
					},
					{
						"BearerAuth": []
					}
				]
			}
		},
		"/livez": {
			"get": {
				"tags": [
					"Health"
				],
				"summary": "Health Check Endpoint",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "status, uptime, version",
						"schema": {
							"$ref": "#/definitions/lmssdk.HealthResponse"
						}
					}
				},
				"description": "Liveness probe. Always 200 while the process is serving."
			}
		},
		"/readyz": {
			"get": {
				"tags": [
					"Health"
				],
				"summary": "Readiness Check Endpoint",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "status, uptime, version, checks",
						"schema": {
							"$ref": "#/definitions/lmssdk.HealthResponse"
						}
					},
					"503": {
						"description": "status, uptime, version, checks - service not ready",
						"schema": {
							"$ref": "#/definitions/lmssdk.HealthResponse"
						}
					}
				},
				"description": "Readiness probe. Pings the user database and the session store."
			}
		}
	},
	"definitions": {
		"httpx.ErrorBody": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				},
				"message": {
					"type": "string"
				},
				"success": {
					"type": "boolean"
				}
			}
		},
		"lmssdk.ActivateRequest": {
			"type": "object",
			"properties": {
				"activation_code": {
					"type": "string",
					"example": "4821"
				},
				"activation_token": {
					"type": "string"
				}
			}
		},
		"lmssdk.Avatar": {
			"type": "object",
			"properties": {
				"public_id": {
					"type": "string"
				},
				"url": {
					"type": "string"
				}
			}
		},
		"lmssdk.CourseRef": {
			"type": "object",
			"properties": {
				"courseId": {
					"type": "string"
				}
			}
		},
		"lmssdk.HealthResponse": {
			"type": "object",
			"properties": {
				"checks": {
					"type": "object",
					"additionalProperties": {
						"type": "string"
					}
				},
				"status": {
					"type": "string"
				},
				"uptime": {
					"type": "string"
				},
				"version": {
					"type": "string"
				}
			}
		},
		"lmssdk.LoginRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string",
					"example": "ada@example.com"
				},
				"password": {
					"type": "string",
					"example": "hunter22"
				}
			}
		},
		"lmssdk.MessageResponse": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				},
				"success": {
					"type": "boolean"
				}
			}
		},
		"lmssdk.RegisterRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string",
					"example": "ada@example.com"
				},
				"name": {
					"type": "string",
					"example": "Ada"
				},
				"password": {
					"type": "string",
					"example": "hunter22"
				}
			}
		},
		"lmssdk.RegisterResponse": {
			"type": "object",
			"properties": {
				"activationToken": {
					"type": "string"
				},
				"message": {
					"type": "string"
				},
				"success": {
					"type": "boolean"
				}
			}
		},
		"lmssdk.SessionResponse": {
			"type": "object",
			"properties": {
				"accessToken": {
					"type": "string"
				},
				"success": {
					"type": "boolean"
				},
				"user": {
					"$ref": "#/definitions/lmssdk.User"
				}
			}
		},
		"lmssdk.SocialAuthRequest": {
			"type": "object",
			"properties": {
				"avatar": {
					"type": "string",
					"example": "https://cdn.example.com/ada.png"
				},
				"email": {
					"type": "string",
					"example": "ada@example.com"
				},
				"name": {
					"type": "string",
					"example": "Ada"
				}
			}
		},
		"lmssdk.UpdateInfoRequest": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"name": {
					"type": "string"
				}
			}
		},
		"lmssdk.UpdatePasswordRequest": {
			"type": "object",
			"properties": {
				"newPassword": {
					"type": "string"
				},
				"oldPassword": {
					"type": "string"
				}
			}
		},
		"lmssdk.UpdateRoleRequest": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"role": {
					"type": "string",
					"example": "admin"
				}
			}
		},
		"lmssdk.User": {
			"type": "object",
			"properties": {
				"_id": {
					"type": "string"
				},
				"avatar": {
					"$ref": "#/definitions/lmssdk.Avatar"
				},
				"courses": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/lmssdk.CourseRef"
					}
				},
				"createdAt": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"isVerified": {
					"type": "boolean"
				},
				"name": {
					"type": "string"
				},
				"role": {
					"type": "string"
				},
				"updatedAt": {
					"type": "string"
				}
			}
		},
		"lmssdk.UserResponse": {
			"type": "object",
			"properties": {
				"success": {
					"type": "boolean"
				},
				"user": {
					"$ref": "#/definitions/lmssdk.User"
				}
			}
		},
		"lmssdk.UsersResponse": {
			"type": "object",
			"properties": {
				"success": {
					"type": "boolean"
				},
				"users": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/lmssdk.User"
					}
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "JWT access token. Format: \"Bearer {token}\".",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		},
		"CookieAuth": {
			"type": "apiKey",
			"name": "access_token",
			"in": "cookie"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8000",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "LMS Account Service API",
	Description:      "Registration with email activation, cookie-based sessions and user management for the LMS.\n\nAccess tokens live for minutes and refresh tokens for days; a refresh only succeeds while the server-side session exists.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
