package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware and IdentifyBearer.
const (
	ClaimsKey = "claims"
	UserIDKey = "userId"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using the provided verifier.
// Failures are answered with 401 JSON and never redirect.
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, userID, reason := authenticate(c, ver)
		if reason != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": reason})
			return
		}
		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// IdentifyBearer sets the same context keys as AuthMiddleware when the request
// carries a valid Bearer token, and otherwise lets the request through as
// anonymous. Install it before the rate limiter so limits apply per user.
func IdentifyBearer(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") != "" {
			if claims, userID, reason := authenticate(c, ver); reason == "" {
				c.Set(ClaimsKey, claims)
				c.Set(UserIDKey, userID)
			}
		}
		c.Next()
	}
}

// authenticate verifies the Bearer token of the request. A non-empty reason
// describes why it was rejected.
func authenticate(c *gin.Context, ver Verifier) (map[string]interface{}, string, string) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return nil, "", "missing Authorization header"
	}
	// Expect 'Bearer <token>'
	scheme, token, ok := strings.Cut(auth, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return nil, "", "invalid Authorization header"
	}

	verified, err := ver.Verify(c.Request.Context(), token)
	if err != nil {
		return nil, "", "invalid token"
	}

	var claims map[string]interface{}
	if err := verified.Claims(&claims); err != nil {
		return nil, "", "failed to parse claims"
	}
	userID, _ := claims["userId"].(string)
	if userID == "" {
		return nil, "", "invalid token"
	}
	return claims, userID, ""
}

// UserID returns the authenticated user id set by AuthMiddleware or IdentifyBearer, or "".
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// rateLimitKey prefers the authenticated user id, falling back to client IP.
func rateLimitKey(c *gin.Context) string {
	if id := UserID(c); id != "" {
		return "user:" + id
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
