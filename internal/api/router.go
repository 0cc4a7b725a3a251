package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ntuon/taskapp/internal/handler"
	"github.com/ntuon/taskapp/internal/middleware"
)

func SetupRouter(
	userHandler *handler.UserHandler,
	taskHandler *handler.TaskHandler,
	authMiddleware *middleware.AuthMiddleware,
	authRateLimit gin.HandlerFunc,
) *gin.Engine {
	r := gin.Default()
	r.SetTrustedProxies(nil)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// User routes
	users := r.Group("/users")
	{
		// Public
		users.POST("", authRateLimit, userHandler.Register)
		users.POST("/login", authRateLimit, userHandler.Login)
		users.GET("/:id/avatar", userHandler.GetAvatar)

		// Authenticated
		authed := users.Group("")
		authed.Use(authMiddleware.RequireAuth())
		{
			authed.POST("/logout", userHandler.Logout)
			authed.POST("/logoutAll", userHandler.LogoutAll)
			authed.GET("/me", userHandler.GetProfile)
			authed.PATCH("/me", userHandler.UpdateProfile)
			authed.DELETE("/me", userHandler.DeleteAccount)
			authed.POST("/me/avatar", userHandler.UploadAvatar)
			authed.DELETE("/me/avatar", userHandler.DeleteAvatar)
		}
	}

	// Task routes (all authenticated)
	tasks := r.Group("/tasks")
	tasks.Use(authMiddleware.RequireAuth())
	{
		tasks.POST("", taskHandler.Create)
		tasks.GET("", taskHandler.List)
		tasks.GET("/:id", taskHandler.Get)
		tasks.PATCH("/:id", taskHandler.Update)
		tasks.DELETE("/:id", taskHandler.Delete)
	}

	return r
}
