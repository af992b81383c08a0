package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/taskboard/taskboard/internal/models"
	"gorm.io/gorm"
)

// ErrConcurrencyConflict is returned when a conditional write finds the
// stored version has advanced past the caller's.
var ErrConcurrencyConflict = errors.New("concurrency conflict")

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create inserts a task with a fresh version token
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	task.Version = uuid.NewString()
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id string, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, "id = ?", id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// List retrieves tasks with filtering, sorting and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	filter.Normalize()

	var tasks []models.Task
	query := r.db.WithContext(ctx).Model(&models.Task{})

	switch filter.Scope {
	case ScopeOwner:
		query = query.Where("tasks.owner_id = ?", filter.UserID)
	case ScopeAssignee:
		query = query.Where("tasks.assignee_id = ?", filter.UserID)
	}

	if len(filter.Statuses) > 0 {
		query = query.Where("tasks.status IN ?", filter.Statuses)
	}
	if len(filter.Priorities) > 0 {
		query = query.Where("tasks.priority IN ?", filter.Priorities)
	}
	if filter.OverdueOnly {
		query = query.Where("tasks.due_date < ? AND tasks.status NOT IN ?",
			filter.Now, []models.TaskStatus{models.TaskStatusCompleted, models.TaskStatusCancelled})
	}
	if filter.ReminderSent != nil {
		query = query.Where("tasks.reminder_sent = ?", *filter.ReminderSent)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(tasks.title) LIKE ? OR LOWER(tasks.description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order(orderClause(filter.SortBy, filter.SortDesc))

	offset := (filter.Page - 1) * filter.PageSize
	listQuery = listQuery.Offset(offset).Limit(filter.PageSize)

	if err := listQuery.Preload("Owner").Preload("Assignee").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// orderClause maps a whitelisted sort key to its SQL ordering, tie-broken by id.
func orderClause(sortBy TaskSortKey, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}

	var expr string
	switch sortBy {
	case SortByCreatedAt:
		expr = "tasks.created_at"
	case SortByPriority:
		expr = "CASE tasks.priority WHEN 'Low' THEN 0 WHEN 'Medium' THEN 1 ELSE 2 END"
	case SortByStatus:
		expr = "tasks.status"
	case SortByTitle:
		expr = "tasks.title"
	default:
		expr = "tasks.due_date"
	}

	return expr + " " + dir + ", tasks.id ASC"
}

// UpdateIfVersion updates all mutable fields only if the stored version
// matches expectedVersion. The version predicate lives in the same statement
// as the write, so there is no read-then-write race window.
func (r *GormTaskRepository) UpdateIfVersion(ctx context.Context, task *models.Task, expectedVersion string) error {
	newVersion := uuid.NewString()
	now := time.Now().UTC()

	res := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND version = ?", task.ID, expectedVersion).
		Updates(map[string]interface{}{
			"title":           task.Title,
			"description":     task.Description,
			"due_date":        task.DueDate,
			"priority":        task.Priority,
			"status":          task.Status,
			"assignee_id":     task.AssigneeID,
			"reminder_sent":   task.ReminderSent,
			"due_notified_at": task.DueNotifiedAt,
			"updated_at":      now,
			"version":         newVersion,
		})

	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrConcurrencyConflict
	}

	task.UpdatedAt = now
	task.Version = newVersion
	return nil
}

// Delete removes a task. No version check; deletion is absolute.
func (r *GormTaskRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Task{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ClaimDue stamps due_notified_at on up to batchSize eligible rows in one
// statement. The due_notified_at IS NULL predicate is evaluated inside the
// UPDATE, so two scanners racing can never both claim the same row. The
// version token is rewritten because the claim is a committed modification.
func (r *GormTaskRepository) ClaimDue(ctx context.Context, now time.Time, batchSize int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE tasks
		SET due_notified_at = ?, updated_at = ?, version = ?
		WHERE id IN (
			SELECT id FROM tasks
			WHERE due_date < ? AND due_notified_at IS NULL AND status NOT IN (?, ?)
			ORDER BY due_date ASC
			LIMIT ?
		)`,
		now, now, uuid.NewString(),
		now, models.TaskStatusCompleted, models.TaskStatusCancelled, batchSize,
	)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// SelectClaimedAt returns the rows claimed with exactly the given marker.
func (r *GormTaskRepository) SelectClaimedAt(ctx context.Context, now time.Time) ([]ClaimedTask, error) {
	var claimed []ClaimedTask
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Select("id", "title", "due_date").
		Where("due_notified_at = ?", now).
		Order("due_date ASC").
		Find(&claimed).Error
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// HasTaskTable reports whether the tasks table exists. The worker can start
// before the API has run migrations.
func (r *GormTaskRepository) HasTaskTable(ctx context.Context) bool {
	return r.db.WithContext(ctx).Migrator().HasTable(&models.Task{})
}
