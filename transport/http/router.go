package http

import (
	"github.com/gin-gonic/gin"

	"github.com/euthlabs/euth/service"
)

// SetupRouter sets up the Gin router.
func SetupRouter(authService *service.AuthService) *gin.Engine {
	router := gin.Default()

	handlers := NewAuthHandlers(authService)

	// Session lifecycle routes
	sessions := router.Group("/sessions")
	{
		sessions.POST("", handlers.CreateSession)
		sessions.GET("/:id", handlers.Status)
		sessions.POST("/:id/events", handlers.ApplyEvent)
		sessions.POST("/:id/submit", handlers.Submit)
		sessions.POST("/:id/abort", handlers.Abort)
	}

	// Protected API routes
	api := router.Group("/api")
	api.Use(AuthMiddleware(authService))
	{
		api.GET("/me", handlers.Me)
	}

	return router
}
