package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes creates the indexes the list and claim queries depend on.
// CREATE INDEX IF NOT EXISTS keeps this idempotent across restarts.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		name    string
		table   string
		columns string
	}{
		// Claim scan: due_notified_at IS NULL AND due_date < now
		{"idx_tasks_due_notified_due_date", "tasks", "due_notified_at, due_date"},
		{"idx_tasks_status", "tasks", "status"},
		{"idx_tasks_owner_id", "tasks", "owner_id"},
		{"idx_tasks_assignee_id", "tasks", "assignee_id"},
		{"idx_tasks_due_date", "tasks", "due_date"},
	}

	for _, idx := range indexes {
		sql := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
