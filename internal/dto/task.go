package dto

import (
	"encoding/base64"
	"time"

	"github.com/taskboard/taskboard/internal/models"
)

// UserRef is an embedded user reference used for upsert-by-email on task
// creation.
type UserRef struct {
	FullName  string `json:"fullName" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Telephone string `json:"telephone"`
}

// TaskCreateRequest is the body of POST /tasks.
type TaskCreateRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	DueDateUTC  time.Time `json:"dueDateUtc" binding:"required"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	Owner       UserRef   `json:"owner" binding:"required"`
	Assignee    *UserRef  `json:"assignee"`
}

// TaskUpdateRequest is the body of PUT /tasks/{id}. Absent fields are left
// unchanged.
type TaskUpdateRequest struct {
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	DueDateUTC     *time.Time `json:"dueDateUtc"`
	Priority       *string    `json:"priority"`
	Status         *string    `json:"status"`
	AssignedUserID *string    `json:"assignedUserId"`
}

// StatusUpdateRequest is the body of PATCH /tasks/{id}/status.
type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

// AssigneeUpdateRequest is the body of PATCH /tasks/{id}/assignee. A null
// assignedUserId clears the assignee.
type AssigneeUpdateRequest struct {
	AssignedUserID *string `json:"assignedUserId"`
}

// TaskResponse represents a task in API responses. RowVersion is the base64
// of the stored version token; clients send it back in If-Match.
type TaskResponse struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	DueDateUTC    time.Time     `json:"dueDateUtc"`
	Priority      string        `json:"priority"`
	Status        string        `json:"status"`
	OwnerID       string        `json:"ownerId"`
	AssigneeID    *string       `json:"assigneeId"`
	ReminderSent  bool          `json:"reminderSent"`
	DueNotifiedAt *time.Time    `json:"dueNotifiedAt,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
	RowVersion    string        `json:"rowVersion"`
	Owner         *UserResponse `json:"owner,omitempty"`
	Assignee      *UserResponse `json:"assignee,omitempty"`
}

// TaskListResponse is a paginated list of tasks
type TaskListResponse struct {
	Items      []TaskResponse `json:"items"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalItems int64          `json:"totalItems"`
	TotalPages int            `json:"totalPages"`
}

// EncodeVersion converts a stored version token to its wire form.
func EncodeVersion(version string) string {
	return base64.StdEncoding.EncodeToString([]byte(version))
}

// DecodeVersion converts a wire version token back to its stored form.
func DecodeVersion(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// ToTaskResponse converts a Task model to TaskResponse
func ToTaskResponse(task models.Task) TaskResponse {
	resp := TaskResponse{
		ID:            task.ID,
		Title:         task.Title,
		Description:   task.Description,
		DueDateUTC:    task.DueDate.UTC(),
		Priority:      string(task.Priority),
		Status:        string(task.Status),
		OwnerID:       task.OwnerID,
		AssigneeID:    task.AssigneeID,
		ReminderSent:  task.ReminderSent,
		DueNotifiedAt: task.DueNotifiedAt,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
		RowVersion:    EncodeVersion(task.Version),
	}

	if task.Owner.ID != "" {
		owner := ToUserResponse(task.Owner)
		resp.Owner = &owner
	}
	if task.Assignee != nil && task.Assignee.ID != "" {
		assignee := ToUserResponse(*task.Assignee)
		resp.Assignee = &assignee
	}

	return resp
}

// ToTaskListResponse converts tasks to a paginated response
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalItems int64) TaskListResponse {
	items := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		items[i] = ToTaskResponse(t)
	}

	return TaskListResponse{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages(totalItems, pageSize),
	}
}
