package cmd

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/taskboard/taskboard/internal/config"
	"github.com/taskboard/taskboard/internal/database"
	"github.com/taskboard/taskboard/internal/handlers"
	"github.com/taskboard/taskboard/internal/repository"
	"github.com/taskboard/taskboard/internal/services"
	"github.com/taskboard/taskboard/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the task tracking REST API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println(".env file not found, using environment variables")
		}

		cfg := config.Load()
		if cfg.DatabaseDSN == "" {
			return errors.New("DATABASE_DSN is required")
		}

		gin.SetMode(cfg.GinMode)

		if err := database.Connect(cfg.DatabaseDSN); err != nil {
			return err
		}
		if err := database.Migrate(); err != nil {
			return err
		}

		db := database.GetDB()
		taskRepo := repository.NewTaskRepository(db)
		userRepo := repository.NewUserRepository(db)

		taskService := services.NewTaskService(taskRepo, userRepo)
		userService := services.NewUserService(userRepo)

		router := handlers.NewRouter(cfg,
			handlers.NewTaskHandler(taskService),
			handlers.NewUserHandler(userService),
		)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		server := &http.Server{
			Addr:         ":" + cfg.HTTPPort,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		go func() {
			logger.Info(ctx, "HTTP server listening", "port", cfg.HTTPPort)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error(ctx, "Server error", "error", err)
				stop()
			}
		}()

		<-ctx.Done()

		logger.Info(context.Background(), "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error(context.Background(), "Server shutdown error", "error", err)
		}

		logger.Info(context.Background(), "Server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
