package worker

import (
	"context"
	"time"

	"github.com/taskboard/taskboard/internal/broker"
	"github.com/taskboard/taskboard/internal/config"
	"github.com/taskboard/taskboard/internal/repository"
	"github.com/taskboard/taskboard/pkg/logger"
)

// TaskDuePublisher is the slice of the broker the scanner needs.
type TaskDuePublisher interface {
	PublishTaskDue(ctx context.Context, msg broker.TaskDueV1) error
}

// DueScanWorker periodically claims overdue tasks and emits one broker
// message per claimed row. Multiple instances stay correct because the claim
// is a single atomic conditional update.
type DueScanWorker struct {
	repo      repository.TaskRepository
	publisher TaskDuePublisher
	interval  time.Duration
	batchSize int
}

// NewDueScanWorker builds a worker, clamping out-of-range configuration.
func NewDueScanWorker(ctx context.Context, repo repository.TaskRepository, publisher TaskDuePublisher, intervalSeconds, batchSize int) *DueScanWorker {
	if intervalSeconds < config.MinScanIntervalSeconds {
		logger.Warn(ctx, "Scan interval below minimum, raising",
			"configured", intervalSeconds, "minimum", config.MinScanIntervalSeconds)
		intervalSeconds = config.MinScanIntervalSeconds
	}
	if batchSize > config.MaxScanBatchSize {
		logger.Warn(ctx, "Scan batch size above maximum, clamping",
			"configured", batchSize, "maximum", config.MaxScanBatchSize)
		batchSize = config.MaxScanBatchSize
	}
	if batchSize < 1 {
		logger.Warn(ctx, "Scan batch size below minimum, using default",
			"configured", batchSize, "minimum", 1, "default", config.DefaultScanBatchSize)
		batchSize = config.DefaultScanBatchSize
	}

	return &DueScanWorker{
		repo:      repo,
		publisher: publisher,
		interval:  time.Duration(intervalSeconds) * time.Second,
		batchSize: batchSize,
	}
}

// Run loops until ctx is cancelled. Errors inside a tick are logged and the
// loop continues on the next interval.
func (w *DueScanWorker) Run(ctx context.Context) {
	logger.Info(ctx, "Due scan worker started",
		"interval", w.interval.String(), "batch_size", w.batchSize)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Due scan worker stopped")
			return
		case <-timer.C:
			w.tick(ctx, time.Now().UTC())
			timer.Reset(w.interval)
		}
	}
}

// tick runs one claim-and-publish pass with a fixed now.
func (w *DueScanWorker) tick(ctx context.Context, now time.Time) {
	if !w.repo.HasTaskTable(ctx) {
		// Cold-start race with schema creation on the API side.
		logger.Debug(ctx, "Task table not present yet, skipping scan")
		return
	}

	claimed, err := w.repo.ClaimDue(ctx, now, w.batchSize)
	if err != nil {
		logger.Error(ctx, "Due scan claim failed", "error", err)
		return
	}
	if claimed == 0 {
		return
	}

	logger.Info(ctx, "Claimed due tasks", "count", claimed)

	rows, err := w.repo.SelectClaimedAt(ctx, now)
	if err != nil {
		logger.Error(ctx, "Failed to load claimed tasks", "error", err)
		return
	}

	for _, row := range rows {
		msg := broker.NewTaskDueV1(row.ID, row.Title, row.DueDate, now)
		if err := w.publisher.PublishTaskDue(ctx, msg); err != nil {
			// The row stays claimed; this reminder is lost. An outbox
			// would close the gap.
			logger.Error(ctx, "Failed to publish task due message",
				"error", err, "task_id", row.ID)
		}
	}
}
