package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"leadflow/internal/pkg/jwt"
	"leadflow/internal/pkg/response"
)

// Context keys set by JWTAuth.
const (
	ContextUserID   = "user_id"
	ContextUserName = "user_name"
)

// JWTAuth requires a valid bearer token and stores the caller's id and
// display name on the context.
func JWTAuth(svc *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			c.Abort()
			return
		}

		claims, err := svc.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserName, claims.Name)
		c.Next()
	}
}

// Actor returns the display name of the authenticated caller, falling back
// to the user id.
func Actor(c *gin.Context) string {
	if name := c.GetString(ContextUserName); name != "" {
		return name
	}
	return c.GetString(ContextUserID)
}
