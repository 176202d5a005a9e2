package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yukikurage/taskboard-web/internal/middleware"
)

// Handlers groups the route handlers of the server.
type Handlers struct {
	Board  *BoardHandler
	Auth   *AuthHandler
	Admin  *AdminHandler
	Logger *zap.Logger
}

// Routes registers every endpoint on r. Session middleware must already be installed.
func Routes(r *gin.Engine, h Handlers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Task board is running",
		})
	})

	api := r.Group("/api")
	api.Use(middleware.LoadSession(h.Logger))
	{
		// Mutations are guarded by the reconciler so refused attempts still
		// produce a notice on the board.
		b := api.Group("/board")
		{
			b.GET("", h.Board.GetBoard)
			b.POST("/refresh", h.Board.Refresh)
			b.POST("/tasks", h.Board.CreateTask)
			b.PUT("/tasks/:id", h.Board.UpdateTask)
			b.DELETE("/tasks/:id", h.Board.DeleteTask)
			b.POST("/moves", h.Board.MoveTask)
			b.POST("/suggestions", middleware.RequireAuth(), h.Board.SuggestTasks)
		}

		auth := api.Group("/auth")
		{
			auth.POST("/signup", h.Auth.Signup)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/logout", h.Auth.Logout)
			auth.GET("/me", middleware.RequireAuth(), h.Auth.GetCurrentUser)
		}

		profile := api.Group("/profile")
		profile.Use(middleware.RequireAuth())
		{
			profile.GET("", h.Auth.GetCurrentUser)
			profile.PUT("", h.Auth.UpdateProfile)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAuth(), middleware.RequireAdmin())
		{
			admin.GET("/dashboard", h.Admin.Dashboard)
		}
	}
}
