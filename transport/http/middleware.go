package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/euthlabs/euth/core"
	"github.com/euthlabs/euth/service"
)

// AuthMiddleware creates middleware that validates access tokens issued
// for successful attempts.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		// Check if the Authorization header is present and in correct format
		if len(auth) < 8 || auth[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header"})
			return
		}

		token := auth[7:]

		grant, err := authService.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, core.ErrGrantExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			return
		}

		// Set the granting session in the context
		c.Set("sessionID", grant.SessionID)

		c.Next()
	}
}
