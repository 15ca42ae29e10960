package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"photorank/internal/config"
	"photorank/internal/security"
)

// Admin guards the maintenance endpoints with the bearer token issued by the
// admin login handler.
func Admin(cfg *config.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := security.ParseAdminToken(tokenStr, cfg.Security.JWTSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		c.Set("admin_claims", *claims)
		c.Next()
	}
}
