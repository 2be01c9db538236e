// Package repository declares the storage interfaces consumed by the
// service layer. The service programs against these interfaces; the
// sqlite subpackage provides the real implementation and the tests
// provide in-memory fakes.
package repository

import (
	"context"
	"time"

	"github.com/sakif/taskify/internal/model"
)

// Sort fields accepted by TaskFilter.SortBy. Anything else falls back to
// SortByCreatedAt — a defined default branch, not an error.
const (
	SortByDueDate   = "dueDate"
	SortByPriority  = "priority"
	SortByCreatedAt = "createdAt"
	SortByTitle     = "title"
)

// TaskFilter describes one query over a user's tasks. All predicate
// fields are optional and AND-combined; nil means "no constraint on this
// field". Pointers distinguish "unset" from a legitimate zero value
// (IsCompleted=false is a real filter).
type TaskFilter struct {
	IsCompleted *bool
	Priority    *int       // 1..3
	DueFrom     *time.Time // inclusive lower bound on due date
	DueTo       *time.Time // inclusive upper bound on due date
	Search      string     // case-insensitive substring over title OR description

	SortBy string // one of the SortBy* constants; unknown values fall back to createdAt
	Order  string // "asc" or "desc"; default: desc for createdAt, asc otherwise
}

// TaskCounts summarizes the filtered set — computed over every row the
// filter matches, so Pending + Completed == Total always holds.
type TaskCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// UserRepository persists user accounts.
type UserRepository interface {
	// Create inserts a new user and fills in ID and CreatedAt.
	// A duplicate normalized email yields apperror.ErrConflict — the
	// unique index is the authoritative guard against races, not the
	// caller's pre-check.
	CreateUser(ctx context.Context, user *model.User) error

	// GetByEmail looks up a user by normalized email.
	// Returns apperror.ErrNotFound if no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)

	// GetByID looks up a user by ID.
	GetUserByID(ctx context.Context, id int64) (*model.User, error)

	// Delete removes a user and, by cascade, every task they own.
	DeleteUser(ctx context.Context, id int64) error
}

// TaskRepository persists tasks. Every method that touches an existing
// task takes the owner's userID and treats "exists but owned by someone
// else" exactly like "does not exist".
type TaskRepository interface {
	// Create inserts a new task and fills in ID and CreatedAt.
	CreateTask(ctx context.Context, task *model.Task) error

	// GetByID fetches one task scoped to its owner.
	GetTaskByID(ctx context.Context, userID, taskID int64) (*model.Task, error)

	// List returns the user's tasks matching the filter, sorted, along
	// with counts over the filtered set.
	ListTasks(ctx context.Context, userID int64, filter TaskFilter) ([]model.Task, TaskCounts, error)

	// Update overwrites the mutable columns of the task (title,
	// description, due date, priority, completion, updated_at) keyed by
	// (id, user_id).
	UpdateTask(ctx context.Context, task *model.Task) error

	// Delete permanently removes a task scoped to its owner.
	DeleteTask(ctx context.Context, userID, taskID int64) error
}
