package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/taskboard/taskboard/internal/config"
	"github.com/taskboard/taskboard/internal/middleware"
)

// NewRouter wires middleware and routes.
func NewRouter(cfg *config.Config, taskHandler *TaskHandler, userHandler *UserHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CorrelationID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CorsAllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "If-Match", "X-Correlation-Id"},
		ExposeHeaders: []string{"X-Correlation-Id"},
	}))

	r.GET("/health", Health)

	api := r.Group("/api/v1")
	{
		users := api.Group("/users")
		{
			users.POST("", userHandler.CreateUser)
			users.GET("", userHandler.ListUsers)
			users.GET("/email/:email", userHandler.GetUserByEmail)
			users.GET("/:id", userHandler.GetUser)
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PUT("/:id", taskHandler.UpdateTask)
			tasks.PATCH("/:id/status", taskHandler.UpdateTaskStatus)
			tasks.PATCH("/:id/assignee", taskHandler.UpdateTaskAssignee)
			tasks.DELETE("/:id", taskHandler.DeleteTask)
		}
	}

	return r
}
