package model

import "time"

// Task priority levels. Stored as small integers so the database can sort
// them numerically; the display string is derived, never stored.
const (
	PriorityLow    = 1
	PriorityMedium = 2
	PriorityHigh   = 3
)

// Task represents a single to-do item owned by exactly one user.
//
// NULLABLE FIELDS AS POINTERS:
// DueDate and UpdatedAt are *time.Time, not time.Time. A nil pointer maps
// to SQL NULL and serializes as JSON null, which is semantically different
// from the zero time: "no due date" and "never mutated" are real states of
// a task, not default values.
type Task struct {
	ID          int64      `json:"id"          db:"id"`
	UserID      int64      `json:"-"           db:"user_id"` // owner; implied by the authenticated route
	Title       string     `json:"title"       db:"title"`
	Description string     `json:"description" db:"description"`
	DueDate     *time.Time `json:"dueDate"     db:"due_date"`
	Priority    int        `json:"priority"    db:"priority"`
	IsCompleted bool       `json:"isCompleted" db:"is_completed"`
	CreatedAt   time.Time  `json:"createdAt"   db:"created_at"`
	UpdatedAt   *time.Time `json:"updatedAt"   db:"updated_at"` // nil until the first mutation
}

// PriorityLabel returns the display string for the task's priority.
// Anything outside the known range reads "Unknown" rather than failing —
// old rows survive a widened priority scale.
func (t *Task) PriorityLabel() string {
	switch t.Priority {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	default:
		return "Unknown"
	}
}
