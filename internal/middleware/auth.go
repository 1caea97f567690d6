package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"algobank/backend/internal/service"
)

const (
	ContextUserID  = "userID"
	ContextIsAdmin = "isAdmin"
)

// RequireAuth validates the Bearer token and stores the caller's identity on
// the request context.
func RequireAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "authentication required"})
			return
		}

		claims, err := authService.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextIsAdmin, claims.IsAdmin)
		c.Next()
	}
}

// RequireAdmin rejects non-admin callers. Must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "admin access required"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated caller's ID.
func UserID(c *gin.Context) uint64 {
	id, _ := c.Get(ContextUserID)
	userID, _ := id.(uint64)
	return userID
}

// IsAdmin reports whether the authenticated caller is an admin.
func IsAdmin(c *gin.Context) bool {
	v, _ := c.Get(ContextIsAdmin)
	isAdmin, _ := v.(bool)
	return isAdmin
}
