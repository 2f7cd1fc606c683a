package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the auth service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>careercoach-auth API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// OpenAPI document for the auth endpoints. Provider routes exist only when the provider is configured.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "careercoach-auth", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "User": { "type": "object", "properties": {
        "id": {"type":"string"}, "email": {"type":"string"}, "name": {"type":"string"},
        "googleId": {"type":"string"}, "linkedinId": {"type":"string"}, "isVerified": {"type":"boolean"},
        "profilePicture": {"type":"string"}, "createdAt": {"type":"string","format":"date-time"}, "updatedAt": {"type":"string","format":"date-time"} } },
      "TokenResponse": { "type": "object", "properties": { "token": {"type":"string"}, "user": {"$ref":"#/components/schemas/User"} } },
      "Error": { "type": "object", "properties": { "error": {"type":"string"} } }
    }
  },
  "paths": {
    "/api/auth/providers": { "get": { "summary": "List configured OAuth providers", "responses": { "200": { "description": "provider names" } } } },
    "/api/auth/google": { "get": { "summary": "Start Google sign-in", "responses": { "302": { "description": "redirect to Google consent" } } } },
    "/api/auth/google/callback": { "get": { "summary": "Google OAuth callback", "responses": { "302": { "description": "redirect to frontend /auth/callback?token=...&provider=google or /login?error=oauth_failed" } } } },
    "/api/auth/linkedin": { "get": { "summary": "Start LinkedIn sign-in", "responses": { "302": { "description": "redirect to LinkedIn consent" } } } },
    "/api/auth/linkedin/callback": { "get": { "summary": "LinkedIn OAuth callback", "responses": { "302": { "description": "redirect to frontend /auth/callback?token=...&provider=linkedin or /login?error=oauth_failed" } } } },
    "/api/auth/register": {
      "post": {
        "summary": "Create a password account",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["name","email","password"],"properties":{"name":{"type":"string"},"email":{"type":"string"},"password":{"type":"string","minLength":8}}}}}},
        "responses": { "201": { "description": "created", "content": { "application/json": { "schema": {"$ref":"#/components/schemas/TokenResponse"} } } }, "400": { "description": "invalid input" }, "409": { "description": "email taken" } }
      }
    },
    "/api/auth/login": {
      "post": {
        "summary": "Password login",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["email","password"],"properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "token returned", "content": { "application/json": { "schema": {"$ref":"#/components/schemas/TokenResponse"} } } }, "401": { "description": "invalid credentials" } }
      }
    },
    "/api/auth/me": { "get": { "summary": "User behind the bearer token", "security": [{"bearer": []}], "responses": { "200": { "description": "user" }, "401": { "description": "missing or invalid token" } } } },
    "/api/auth/session": { "get": { "summary": "User behind the session cookie", "responses": { "200": { "description": "user" }, "401": { "description": "not authenticated" } } } },
    "/api/auth/logout": { "post": { "summary": "Destroy the server session", "responses": { "200": { "description": "logged out" } } } },
    "/auth/callback": { "get": { "summary": "Client callback page storing the token", "responses": { "200": { "description": "HTML page" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "status and uptime" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
