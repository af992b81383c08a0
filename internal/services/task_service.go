package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskboard/taskboard/internal/models"
	"github.com/taskboard/taskboard/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidOperation marks a domain-rule violation. Wrapped with a
	// reason at each call site.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrConcurrencyConflict surfaces an optimistic-write mismatch.
	ErrConcurrencyConflict = repository.ErrConcurrencyConflict
)

// TaskService handles task business logic on top of the repositories.
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
	}
}

// UserInput carries an embedded user reference for upsert-by-email.
type UserInput struct {
	FullName  string
	Email     string
	Telephone string
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     time.Time
	Priority    models.TaskPriority
	Status      models.TaskStatus
	Owner       UserInput
	Assignee    *UserInput
}

// UpdateTaskInput represents input for updating a task. Nil pointers leave
// the field unchanged.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *models.TaskPriority
	Status      *models.TaskStatus
	AssigneeID  *string
}

// CreateTask validates invariants, upserts the embedded users and persists
// the task with a fresh version.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*models.Task, error) {
	now := time.Now().UTC()

	if !input.DueDate.After(now) {
		return nil, fmt.Errorf("%w: due date must be in the future", ErrInvalidOperation)
	}

	status := input.Status
	if status == "" {
		status = models.TaskStatusOpen
	}
	if status == models.TaskStatusOverdue {
		return nil, fmt.Errorf("%w: status Overdue is computed and cannot be set", ErrInvalidOperation)
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidOperation, status)
	}

	priority := input.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}
	if !priority.IsValid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidOperation, priority)
	}

	owner, err := s.userRepo.UpsertByEmail(ctx, &models.User{
		FullName:  input.Owner.FullName,
		Email:     input.Owner.Email,
		Telephone: input.Owner.Telephone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert owner: %w", err)
	}

	assignee := owner
	if input.Assignee != nil {
		assignee, err = s.userRepo.UpsertByEmail(ctx, &models.User{
			FullName:  input.Assignee.FullName,
			Email:     input.Assignee.Email,
			Telephone: input.Assignee.Telephone,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upsert assignee: %w", err)
		}
	}

	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate.UTC(),
		Priority:    priority,
		Status:      status,
		OwnerID:     owner.ID,
		AssigneeID:  &assignee.ID,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(ctx, task.ID, "Owner", "Assignee")
}

// GetTask returns a task with its owner and assignee
func (s *TaskService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id, "Owner", "Assignee")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// ListTasks returns a filtered, sorted, paginated view
func (s *TaskService) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]models.Task, int64, error) {
	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// UpdateTask applies the non-nil input fields under the version check;
// nil fields are left unchanged. A task that is
// currently overdue can only be updated if the due date moves strictly into
// the future.
func (s *TaskService) UpdateTask(ctx context.Context, id string, input UpdateTaskInput, expectedVersion string) (*models.Task, error) {
	task, err := s.loadTask(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	if input.Status != nil {
		if *input.Status == models.TaskStatusOverdue {
			return nil, fmt.Errorf("%w: status Overdue is computed and cannot be set", ErrInvalidOperation)
		}
		if !input.Status.IsValid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidOperation, *input.Status)
		}
	}
	if input.Priority != nil && !input.Priority.IsValid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidOperation, *input.Priority)
	}
	if input.DueDate != nil && input.DueDate.Before(now) {
		return nil, fmt.Errorf("%w: due date must not be in the past", ErrInvalidOperation)
	}
	if task.IsOverdue(now) && (input.DueDate == nil || !input.DueDate.After(now)) {
		return nil, fmt.Errorf("%w: cannot update overdue task unless due date moves to future", ErrInvalidOperation)
	}

	if input.AssigneeID != nil && assigneeChanged(task.AssigneeID, *input.AssigneeID) {
		if _, err := s.userRepo.FindByID(ctx, *input.AssigneeID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to find assignee: %w", err)
		}
		task.AssigneeID = input.AssigneeID
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate.UTC()
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Status != nil {
		task.Status = *input.Status
	} else if task.Status == models.TaskStatusOverdue && task.DueDate.After(now) {
		// Leaving the computed state with no explicit status: back to Open.
		task.Status = models.TaskStatusOpen
	}

	s.recomputeOverdue(task, now)

	return s.commit(ctx, task, expectedVersion)
}

// UpdateTaskStatus changes only the status under the version check.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus, expectedVersion string) (*models.Task, error) {
	task, err := s.loadTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if status == models.TaskStatusOverdue {
		return nil, fmt.Errorf("%w: status Overdue is computed and cannot be set", ErrInvalidOperation)
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidOperation, status)
	}

	now := time.Now().UTC()
	if task.IsOverdue(now) {
		return nil, fmt.Errorf("%w: cannot update overdue task unless due date moves to future", ErrInvalidOperation)
	}

	task.Status = status
	s.recomputeOverdue(task, now)

	return s.commit(ctx, task, expectedVersion)
}

// UpdateTaskAssignee sets or clears the assignee under the version check.
func (s *TaskService) UpdateTaskAssignee(ctx context.Context, id string, assigneeID *string, expectedVersion string) (*models.Task, error) {
	task, err := s.loadTask(ctx, id)
	if err != nil {
		return nil, err
	}

	if assigneeID != nil {
		if _, err := s.userRepo.FindByID(ctx, *assigneeID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to find assignee: %w", err)
		}
	}

	task.AssigneeID = assigneeID

	return s.commit(ctx, task, expectedVersion)
}

// DeleteTask removes a task. No version check; delete is absolute.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *TaskService) loadTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// recomputeOverdue rewrites the status to Overdue when the result of an
// update is past due and non-terminal. Clients never set Overdue themselves.
func (s *TaskService) recomputeOverdue(task *models.Task, now time.Time) {
	if task.DueDate.Before(now) && !task.Status.IsTerminal() {
		task.Status = models.TaskStatusOverdue
	}
}

func (s *TaskService) commit(ctx context.Context, task *models.Task, expectedVersion string) (*models.Task, error) {
	if err := s.taskRepo.UpdateIfVersion(ctx, task, expectedVersion); err != nil {
		if errors.Is(err, repository.ErrConcurrencyConflict) {
			return nil, ErrConcurrencyConflict
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return s.taskRepo.FindByID(ctx, task.ID, "Owner", "Assignee")
}

func assigneeChanged(current *string, next string) bool {
	return current == nil || *current != next
}
