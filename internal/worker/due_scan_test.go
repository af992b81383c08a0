package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskboard/taskboard/internal/broker"
	"github.com/taskboard/taskboard/internal/config"
	"github.com/taskboard/taskboard/internal/models"
	"github.com/taskboard/taskboard/internal/repository"
)

type capturingPublisher struct {
	mu        sync.Mutex
	published []broker.TaskDueV1
	err       error
}

func (p *capturingPublisher) PublishTaskDue(ctx context.Context, msg broker.TaskDueV1) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, msg)
	return nil
}

func (p *capturingPublisher) messages() []broker.TaskDueV1 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]broker.TaskDueV1(nil), p.published...)
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Task{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return db
}

func seedTask(t *testing.T, db *gorm.DB, title string, dueDate time.Time, status models.TaskStatus) *models.Task {
	owner := &models.User{ID: uuid.NewString(), FullName: "A", Email: uuid.NewString() + "@x.io"}
	require.NoError(t, db.Create(owner).Error)

	task := &models.Task{
		ID:       uuid.NewString(),
		Title:    title,
		DueDate:  dueDate,
		Priority: models.TaskPriorityMedium,
		Status:   status,
		OwnerID:  owner.ID,
		Version:  uuid.NewString(),
	}
	require.NoError(t, db.Create(task).Error)
	return task
}

func TestTick_ClaimsAndPublishes(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)
	pub := &capturingPublisher{}
	ctx := context.Background()

	w := NewDueScanWorker(ctx, repo, pub, 15, 10)

	now := time.Now().UTC()
	seedTask(t, db, "First", now.Add(-time.Minute), models.TaskStatusOpen)
	seedTask(t, db, "Second", now.Add(-time.Minute), models.TaskStatusOpen)
	seedTask(t, db, "Done", now.Add(-time.Minute), models.TaskStatusCompleted)

	w.tick(ctx, now)

	msgs := pub.messages()
	require.Len(t, msgs, 2, "one message per claimed non-terminal task")
	for _, msg := range msgs {
		assert.NotEmpty(t, msg.TaskID)
		assert.Equal(t, now, msg.TimestampUTC)
		assert.NotEqual(t, "Done", msg.Title)
	}

	// A second pass finds nothing new to claim.
	w.tick(ctx, time.Now().UTC())
	assert.Len(t, pub.messages(), 2)
}

func TestTick_PublishFailureDoesNotUnclaim(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewTaskRepository(db)
	pub := &capturingPublisher{err: errors.New("broker down")}
	ctx := context.Background()

	w := NewDueScanWorker(ctx, repo, pub, 15, 10)

	now := time.Now().UTC()
	task := seedTask(t, db, "Lost", now.Add(-time.Minute), models.TaskStatusOpen)

	w.tick(ctx, now)

	stored, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.DueNotifiedAt, "the row stays claimed even when the publish fails")
}

func TestTick_MissingTableSkips(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	// No migration: the tasks table does not exist yet.

	repo := repository.NewTaskRepository(db)
	pub := &capturingPublisher{}
	ctx := context.Background()

	w := NewDueScanWorker(ctx, repo, pub, 15, 10)
	w.tick(ctx, time.Now().UTC())

	assert.Empty(t, pub.messages())
}

func TestNewDueScanWorker_ClampsConfig(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTaskRepository(setupTestDB(t))
	pub := &capturingPublisher{}

	w := NewDueScanWorker(ctx, repo, pub, 1, 5000)
	assert.Equal(t, time.Duration(config.MinScanIntervalSeconds)*time.Second, w.interval)
	assert.Equal(t, config.MaxScanBatchSize, w.batchSize)

	w = NewDueScanWorker(ctx, repo, pub, 30, 0)
	assert.Equal(t, 30*time.Second, w.interval)
	assert.Equal(t, config.DefaultScanBatchSize, w.batchSize)
}

func TestRun_StopsOnCancel(t *testing.T) {
	repo := repository.NewTaskRepository(setupTestDB(t))
	pub := &capturingPublisher{}

	ctx, cancel := context.WithCancel(context.Background())
	w := NewDueScanWorker(ctx, repo, pub, 5, 10)

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on cancellation")
	}
}
