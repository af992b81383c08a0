package cmd

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/taskboard/taskboard/internal/broker"
	"github.com/taskboard/taskboard/internal/config"
	"github.com/taskboard/taskboard/internal/database"
	"github.com/taskboard/taskboard/internal/repository"
	"github.com/taskboard/taskboard/internal/worker"
	"github.com/taskboard/taskboard/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the due-scan worker",
	Long:  "Starts the periodic due scan and the reminder consumer",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println(".env file not found, using environment variables")
		}

		cfg := config.Load()
		if cfg.DatabaseDSN == "" {
			return errors.New("DATABASE_DSN is required")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// The worker does not run migrations; the scan tolerates the task
		// table being briefly absent while the API side creates the schema.
		if err := database.Connect(cfg.DatabaseDSN); err != nil {
			return err
		}

		b, err := broker.Connect(ctx, cfg.RabbitMQHost, cfg.RabbitMQUsername, cfg.RabbitMQPassword)
		if err != nil {
			return err
		}
		defer b.Close()

		taskRepo := repository.NewTaskRepository(database.GetDB())
		scanner := worker.NewDueScanWorker(ctx, taskRepo, b, cfg.ScanIntervalSeconds, cfg.ScanBatchSize)

		go func() {
			if err := b.ConsumeReminders(ctx); err != nil {
				logger.Error(ctx, "Reminder consumer failed", "error", err)
				stop()
			}
		}()

		connLost := make(chan struct{}, 1)
		go func() {
			select {
			case amqpErr := <-b.NotifyClose():
				if amqpErr != nil {
					logger.Error(ctx, "Broker connection lost", "error", amqpErr)
					connLost <- struct{}{}
					stop()
				}
			case <-ctx.Done():
			}
		}()

		scanner.Run(ctx)
		select {
		case <-connLost:
			// Exit non-zero so the supervisor restarts the worker.
			return errors.New("broker connection lost")
		default:
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
