package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// InternalAdminToken guards internal operational endpoints with a
// shared secret header. Requests fail closed when no token is
// configured.
func InternalAdminToken(token string) gin.HandlerFunc {
	expected := strings.TrimSpace(token)
	return func(c *gin.Context) {
		if expected == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "internal admin token not configured"})
			c.Abort()
			return
		}

		got := strings.TrimSpace(c.GetHeader("X-Internal-Admin-Token"))
		if got == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		c.Next()
	}
}
