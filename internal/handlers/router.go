package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard/internal/middleware"
	"github.com/yukikurage/taskboard/internal/services"
)

// RegisterRoutes mounts the health check and the /api routes on r. The
// session middleware must already be installed.
func RegisterRoutes(r gin.IRouter, authService *services.AuthService, boards *services.BoardManager) {
	authHandler := NewAuthHandler(authService, boards)
	taskHandler := NewTaskHandler(boards)
	requireAuth := middleware.RequireAuth(authService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Task board API is running",
		})
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/stats", taskHandler.GetStats)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PATCH("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
			tasks.POST("/:id/move", taskHandler.MoveTask)
			tasks.POST("/:id/start", taskHandler.StartTask)
			tasks.POST("/:id/revert", taskHandler.RevertTask)
			tasks.POST("/:id/complete", taskHandler.CompleteTask)
			tasks.POST("/:id/reopen", taskHandler.ReopenTask)
			tasks.POST("/:id/edit", taskHandler.BeginEdit)
		}

		// Board state routes (protected)
		board := api.Group("/board")
		board.Use(requireAuth)
		{
			board.DELETE("/filter", taskHandler.ClearFilter)
			board.GET("/edit", taskHandler.GetEdit)
			board.PUT("/edit", taskHandler.SubmitEdit)
			board.DELETE("/edit", taskHandler.CancelEdit)
			board.GET("/delete", taskHandler.GetPendingDelete)
			board.POST("/delete/confirm", taskHandler.ConfirmDelete)
			board.DELETE("/delete", taskHandler.CancelDelete)
		}
	}
}
