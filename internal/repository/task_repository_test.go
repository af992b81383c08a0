package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taskboard/taskboard/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Task{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return db
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	user := &models.User{
		ID:       uuid.NewString(),
		FullName: "Test User",
		Email:    email,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedTask(t *testing.T, db *gorm.DB, ownerID string, dueDate time.Time, status models.TaskStatus) *models.Task {
	task := &models.Task{
		ID:       uuid.NewString(),
		Title:    "Task " + uuid.NewString()[:8],
		DueDate:  dueDate,
		Priority: models.TaskPriorityMedium,
		Status:   status,
		OwnerID:  ownerID,
		Version:  uuid.NewString(),
	}
	require.NoError(t, db.Create(task).Error)
	return task
}

func TestUpdateIfVersion_Success(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	task := seedTask(t, db, owner.ID, time.Now().UTC().Add(time.Hour), models.TaskStatusOpen)
	oldVersion := task.Version

	task.Title = "Renamed"
	err := repo.UpdateIfVersion(ctx, task, oldVersion)
	require.NoError(t, err)

	assert.NotEqual(t, oldVersion, task.Version, "version must be rewritten on every committed write")

	stored, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", stored.Title)
	assert.Equal(t, task.Version, stored.Version)
}

func TestUpdateIfVersion_Conflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	task := seedTask(t, db, owner.ID, time.Now().UTC().Add(time.Hour), models.TaskStatusOpen)
	staleVersion := task.Version

	// First writer wins.
	first := *task
	first.Title = "First"
	require.NoError(t, repo.UpdateIfVersion(ctx, &first, staleVersion))

	// Second writer carries the stale version and must lose.
	second := *task
	second.Title = "Second"
	err := repo.UpdateIfVersion(ctx, &second, staleVersion)
	assert.ErrorIs(t, err, ErrConcurrencyConflict)

	stored, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "First", stored.Title, "loser must not clobber the winner")
}

func TestDelete_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)

	err := repo.Delete(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestClaimDue_ClaimsOnlyEligible(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	now := time.Now().UTC()
	past := now.Add(-time.Minute)

	open1 := seedTask(t, db, owner.ID, past, models.TaskStatusOpen)
	open2 := seedTask(t, db, owner.ID, past, models.TaskStatusOpen)
	completed := seedTask(t, db, owner.ID, past, models.TaskStatusCompleted)
	cancelled := seedTask(t, db, owner.ID, past, models.TaskStatusCancelled)
	future := seedTask(t, db, owner.ID, now.Add(time.Hour), models.TaskStatusOpen)

	claimed, err := repo.ClaimDue(ctx, now, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, claimed)

	rows, err := repo.SelectClaimedAt(ctx, now)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	ids := []string{rows[0].ID, rows[1].ID}
	assert.Contains(t, ids, open1.ID)
	assert.Contains(t, ids, open2.ID)

	for _, id := range []string{completed.ID, cancelled.ID, future.ID} {
		stored, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, stored.DueNotifiedAt)
	}
}

func TestClaimDue_SecondPassIsNoOp(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	now := time.Now().UTC()
	seedTask(t, db, owner.ID, now.Add(-time.Minute), models.TaskStatusOpen)

	claimed, err := repo.ClaimDue(ctx, now, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, claimed)

	// A claimed row is never reclaimed, with the same or a later now.
	claimed, err = repo.ClaimDue(ctx, now, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, claimed)

	claimed, err = repo.ClaimDue(ctx, now.Add(time.Second), 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, claimed)
}

func TestClaimDue_RespectsBatchSizeAndDueOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	now := time.Now().UTC()

	oldest := seedTask(t, db, owner.ID, now.Add(-3*time.Hour), models.TaskStatusOpen)
	middle := seedTask(t, db, owner.ID, now.Add(-2*time.Hour), models.TaskStatusOpen)
	newest := seedTask(t, db, owner.ID, now.Add(-1*time.Hour), models.TaskStatusOpen)

	claimed, err := repo.ClaimDue(ctx, now, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, claimed)

	rows, err := repo.SelectClaimedAt(ctx, now)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, oldest.ID, rows[0].ID)
	assert.Equal(t, middle.ID, rows[1].ID)

	stored, err := repo.FindByID(ctx, newest.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.DueNotifiedAt)
}

func TestClaimDue_RewritesVersion(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	now := time.Now().UTC()
	task := seedTask(t, db, owner.ID, now.Add(-time.Minute), models.TaskStatusOpen)
	oldVersion := task.Version

	_, err := repo.ClaimDue(ctx, now, 10)
	require.NoError(t, err)

	stored, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.NotEqual(t, oldVersion, stored.Version)
	require.NotNil(t, stored.DueNotifiedAt)
}

func TestList_FiltersAndPagination(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	other := seedUser(t, db, "other@example.com")
	now := time.Now().UTC()

	for i := 0; i < 5; i++ {
		seedTask(t, db, owner.ID, now.Add(time.Duration(i+1)*time.Hour), models.TaskStatusOpen)
	}
	seedTask(t, db, other.ID, now.Add(time.Hour), models.TaskStatusCompleted)

	// Scope: owner
	tasks, total, err := repo.List(ctx, TaskFilter{Scope: ScopeOwner, UserID: owner.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, tasks, 5)

	// Status filter
	tasks, total, err = repo.List(ctx, TaskFilter{Statuses: []models.TaskStatus{models.TaskStatusCompleted}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskStatusCompleted, tasks[0].Status)

	// Pagination: page sizes sum to the total
	var seen int
	for page := 1; ; page++ {
		tasks, total, err = repo.List(ctx, TaskFilter{Page: page, PageSize: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 6, total)
		if len(tasks) == 0 {
			break
		}
		seen += len(tasks)
	}
	assert.Equal(t, 6, seen)
}

func TestList_OverdueOnlyAndSearch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	now := time.Now().UTC()

	overdue := seedTask(t, db, owner.ID, now.Add(-time.Hour), models.TaskStatusOpen)
	seedTask(t, db, owner.ID, now.Add(-time.Hour), models.TaskStatusCompleted)
	seedTask(t, db, owner.ID, now.Add(time.Hour), models.TaskStatusOpen)

	tasks, total, err := repo.List(ctx, TaskFilter{OverdueOnly: true, Now: now})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, tasks, 1)
	assert.Equal(t, overdue.ID, tasks[0].ID)

	// Case-insensitive substring search on title/description
	named := seedTask(t, db, owner.ID, now.Add(time.Hour), models.TaskStatusOpen)
	named.Title = "Quarterly REPORT"
	require.NoError(t, db.Save(named).Error)

	tasks, total, err = repo.List(ctx, TaskFilter{Search: "report"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, tasks, 1)
	assert.Equal(t, named.ID, tasks[0].ID)
}

func TestList_PageSizeClamped(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner@example.com")
	seedTask(t, db, owner.ID, time.Now().UTC().Add(time.Hour), models.TaskStatusOpen)

	filter := TaskFilter{Page: 0, PageSize: 10_000}
	filter.Normalize()
	assert.Equal(t, 1, filter.Page)
	assert.Equal(t, MaxPageSize, filter.PageSize)

	_, _, err := repo.List(ctx, filter)
	require.NoError(t, err)
}
