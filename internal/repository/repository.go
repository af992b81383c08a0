package repository

import (
	"context"
	"time"

	"github.com/taskboard/taskboard/internal/models"
)

// TaskScope restricts a listing to tasks a user owns or is assigned to.
type TaskScope string

const (
	ScopeAll      TaskScope = "any"
	ScopeOwner    TaskScope = "owner"
	ScopeAssignee TaskScope = "assignee"
)

// TaskSortKey is a whitelisted sort column for task listings.
type TaskSortKey string

const (
	SortByDueDate   TaskSortKey = "dueDate"
	SortByCreatedAt TaskSortKey = "createdAt"
	SortByPriority  TaskSortKey = "priority"
	SortByStatus    TaskSortKey = "status"
	SortByTitle     TaskSortKey = "title"
)

const (
	MinPageSize     = 1
	MaxPageSize     = 100
	DefaultPageSize = 20
)

// TaskFilter holds filtering, sorting and pagination options for listing tasks.
type TaskFilter struct {
	Scope        TaskScope
	UserID       string
	Statuses     []models.TaskStatus
	Priorities   []models.TaskPriority
	OverdueOnly  bool
	ReminderSent *bool
	Search       string
	SortBy       TaskSortKey
	SortDesc     bool
	Page         int
	PageSize     int
	Now          time.Time
}

// Normalize clamps pagination and fills defaults in place.
func (f *TaskFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < MinPageSize {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	if f.Scope == "" {
		f.Scope = ScopeAll
	}
	if f.SortBy == "" {
		f.SortBy = SortByDueDate
	}
	if f.Now.IsZero() {
		f.Now = time.Now().UTC()
	}
}

// ClaimedTask is the projection of a freshly claimed row the scanner publishes.
type ClaimedTask struct {
	ID      string
	Title   string
	DueDate time.Time
}

// TaskRepository defines the interface for task data access. It is the sole
// writer to the tasks table; field updates go through the version check,
// while ClaimDue stamps its marker and a fresh version without one.
type TaskRepository interface {
	// Create inserts a task with a fresh version token.
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading.
	FindByID(ctx context.Context, id string, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering, sorting and pagination.
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// UpdateIfVersion writes all mutable fields in a single conditional
	// statement predicated on the stored version. Returns
	// ErrConcurrencyConflict when the stored version has advanced.
	UpdateIfVersion(ctx context.Context, task *models.Task, expectedVersion string) error

	// Delete removes a task without a version check.
	Delete(ctx context.Context, id string) error

	// ClaimDue atomically marks up to batchSize overdue, unclaimed,
	// non-terminal tasks with the given instant and returns how many
	// rows were claimed.
	ClaimDue(ctx context.Context, now time.Time, batchSize int) (int64, error)

	// SelectClaimedAt returns the rows whose claim marker equals the
	// instant just used by ClaimDue.
	SelectClaimedAt(ctx context.Context, now time.Time) ([]ClaimedTask, error)

	// HasTaskTable reports whether the tasks table exists yet.
	HasTaskTable(ctx context.Context) bool
}

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create inserts a user. Email must already be normalized.
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID.
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a user by normalized email.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// List retrieves users matching an optional substring search.
	List(ctx context.Context, search string, page, pageSize int) ([]models.User, int64, error)

	// UpsertByEmail inserts the user or, when the normalized email already
	// exists, updates full name and telephone. One conditional statement,
	// not a read-then-write. The returned user is the canonical row.
	UpsertByEmail(ctx context.Context, user *models.User) (*models.User, error)

	// CountTasksReferencing counts tasks owning or assigned to the user.
	// A referenced user must never be deleted; any future delete path has
	// to check this first.
	CountTasksReferencing(ctx context.Context, userID string) (int64, error)
}
