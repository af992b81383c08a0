package broker

import "time"

// TaskDueV1 is the wire format published for each claimed task.
type TaskDueV1 struct {
	TaskID       string    `json:"taskId"`
	Title        string    `json:"title"`
	DueDateUTC   time.Time `json:"dueDateUtc"`
	TimestampUTC time.Time `json:"timestampUtc"`
}

// NewTaskDueV1 builds a message with all instants forced to UTC.
func NewTaskDueV1(taskID, title string, dueDate, timestamp time.Time) TaskDueV1 {
	return TaskDueV1{
		TaskID:       taskID,
		Title:        title,
		DueDateUTC:   dueDate.UTC(),
		TimestampUTC: timestamp.UTC(),
	}
}
