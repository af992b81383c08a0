package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusDraft      TaskStatus = "Draft"
	TaskStatusOpen       TaskStatus = "Open"
	TaskStatusInProgress TaskStatus = "InProgress"
	TaskStatusCompleted  TaskStatus = "Completed"
	TaskStatusOverdue    TaskStatus = "Overdue"
	TaskStatusCancelled  TaskStatus = "Cancelled"
)

// IsTerminal reports whether the status excludes the task from the due scan.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusDraft, TaskStatusOpen, TaskStatusInProgress,
		TaskStatusCompleted, TaskStatusOverdue, TaskStatusCancelled:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "Low"
	TaskPriorityMedium TaskPriority = "Medium"
	TaskPriorityHigh   TaskPriority = "High"
)

func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          string       `gorm:"type:varchar(36);primarykey" json:"id"`
	Title       string       `gorm:"type:varchar(255);not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	DueDate     time.Time    `gorm:"not null" json:"due_date"`
	Priority    TaskPriority `gorm:"type:varchar(10);not null;default:'Medium'" json:"priority"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'Open'" json:"status"`
	OwnerID     string       `gorm:"type:varchar(36);not null" json:"owner_id"`
	AssigneeID  *string      `gorm:"type:varchar(36)" json:"assignee_id"`
	// ReminderSent is a user-visible flag; the due scan never mutates it.
	ReminderSent bool `gorm:"not null;default:false" json:"reminder_sent"`
	// DueNotifiedAt is the scanner's claim marker. Once set it stays set.
	DueNotifiedAt *time.Time `json:"due_notified_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	// Version is rewritten on every committed write and carried to clients
	// base64-encoded for conditional requests.
	Version string `gorm:"type:varchar(36);not null" json:"-"`

	// Relations
	Owner    User  `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Assignee *User `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
}

// IsOverdue reports whether the task is past due and not in a terminal status.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate.Before(now) && !t.Status.IsTerminal()
}
