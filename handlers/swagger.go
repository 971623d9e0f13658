package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger serves a Swagger UI page and the OpenAPI document it loads.
// - GET /swagger/index.html
// - GET /swagger/doc.json
func RegisterSwagger(r *gin.Engine) {
	r.GET("/swagger/index.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})
	r.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>zedemy-api — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "zedemy-api", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } }
  },
  "paths": {
    "/api/users/register": {
      "post": {
        "summary": "Register with email and password",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"name":{"type":"string"},"email":{"type":"string"},"password":{"type":"string"},"policyAccepted":{"type":"boolean"}}}}}},
        "responses": { "201": { "description": "token, refreshToken and user" }, "400": { "description": "invalid input or email taken" } }
      }
    },
    "/api/users/login": {
      "post": {
        "summary": "Login with email and password",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "token, refreshToken and user" }, "400": { "description": "invalid credentials" } }
      }
    },
    "/api/users/google": {
      "post": { "summary": "Sign in with a Google ID token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"credential":{"type":"string"}}}}}}, "responses": { "200": { "description": "token, refreshToken and user" }, "401": { "description": "invalid credential" } } }
    },
    "/api/users/google/login": { "get": { "summary": "Redirect to Google consent", "responses": { "302": { "description": "redirect" } } } },
    "/api/users/google/callback": { "get": { "summary": "Finish Google sign-in", "responses": { "302": { "description": "redirect to frontend with tokens" } } } },
    "/api/users/refresh": {
      "post": { "summary": "Refresh access token", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"refreshToken":{"type":"string"}}}}}}, "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid refresh token" } } }
    },
    "/api/users/logout": {
      "post": { "summary": "Revoke the access token and drop the refresh session", "security": [{"bearer":[]}], "responses": { "200": { "description": "logged out" } } }
    },
    "/api/users/me": { "get": { "summary": "Current user", "security": [{"bearer":[]}], "responses": { "200": { "description": "user" } } } },
    "/api/users/follow-categories": { "put": { "summary": "Follow categories", "security": [{"bearer":[]}], "responses": { "200": { "description": "followed categories" } } } },
    "/api/users/unfollow-category": { "put": { "summary": "Unfollow a category", "security": [{"bearer":[]}], "responses": { "200": { "description": "followed categories" } } } },
    "/api/users/forgot-password": { "post": { "summary": "Send a password reset link", "responses": { "200": { "description": "accepted" } } } },
    "/api/users/reset-password/{token}": { "post": { "summary": "Reset password", "responses": { "200": { "description": "password reset" }, "400": { "description": "invalid or expired token" } } } },
    "/api/posts": {
      "get": { "summary": "List posts", "responses": { "200": { "description": "posts" } } },
      "post": { "summary": "Create a post", "security": [{"bearer":[]}], "responses": { "201": { "description": "post" } } }
    },
    "/api/posts/search": { "get": { "summary": "Search posts", "parameters": [{"name":"query","in":"query","schema":{"type":"string"}}], "responses": { "200": { "description": "posts" } } } },
    "/api/posts/category/{category}": { "get": { "summary": "Posts of a category", "responses": { "200": { "description": "posts" } } } },
    "/api/posts/slug/{slug}": { "get": { "summary": "Post by slug", "responses": { "200": { "description": "post" }, "404": { "description": "not found" } } } },
    "/api/posts/completed": { "get": { "summary": "Posts completed by the current user", "security": [{"bearer":[]}], "responses": { "200": { "description": "posts" } } } },
    "/api/posts/complete/{postId}": {
      "put": { "summary": "Mark a post completed", "security": [{"bearer":[]}], "responses": { "200": { "description": "msg, certificateUrl and uniqueId when the category is complete" }, "400": { "description": "already completed" }, "404": { "description": "post not found" } } }
    },
    "/api/certificates/my-certificates": { "get": { "summary": "Certificates of the current user", "security": [{"bearer":[]}], "responses": { "200": { "description": "certificates" } } } },
    "/api/certificates/{uniqueId}": { "get": { "summary": "Verify a certificate", "responses": { "200": { "description": "certificate and user name" }, "404": { "description": "not found" } } } },
    "/api/certificates/{uniqueId}/download": { "get": { "summary": "Presigned download URL", "responses": { "200": { "description": "url and expiresIn" } } } },
    "/api/notifications": { "get": { "summary": "Notifications of the current user", "security": [{"bearer":[]}], "responses": { "200": { "description": "notifications" } } } },
    "/api/notifications/{id}/read": { "put": { "summary": "Mark a notification read", "security": [{"bearer":[]}], "responses": { "200": { "description": "ok" }, "404": { "description": "not found" } } } },
    "/api/uploads": { "post": { "summary": "Upload post media", "security": [{"bearer":[]}], "responses": { "201": { "description": "url and key" } } } },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
