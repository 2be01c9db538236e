package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/taskify/internal/apperror"
	"github.com/sakif/taskify/internal/model"
	"github.com/sakif/taskify/internal/repository"
)

// compile-time check that *DB implements repository.TaskRepository
var _ repository.TaskRepository = (*DB)(nil)

// taskColumns is the SELECT list shared by every task query, in the order
// scanTask expects.
const taskColumns = `id, user_id, title, description, due_date, priority, is_completed, created_at, updated_at`

// CreateTask inserts a new task. The service has already validated and
// defaulted the fields; this sets CreatedAt and fills in the generated ID.
// UpdatedAt stays NULL — the task has never been mutated.
func (db *DB) CreateTask(ctx context.Context, task *model.Task) error {
	task.CreatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO tasks (user_id, title, description, due_date, priority, is_completed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.UserID,
		task.Title,
		task.Description,
		nullableTime(task.DueDate),
		task.Priority,
		task.IsCompleted,
		task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new task id: %w", err)
	}
	task.ID = id

	return nil
}

// GetTaskByID fetches a single task scoped to its owner.
//
// TENANT ISOLATION AT THE SQL LEVEL:
// The WHERE clause matches on both id and user_id, so a task owned by
// another user produces zero rows — exactly as if it didn't exist. The
// caller can never distinguish "no such task" from "not your task".
func (db *DB) GetTaskByID(ctx context.Context, userID, taskID int64) (*model.Task, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`,
		taskID, userID,
	)

	task, err := scanTask(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("task", taskID)
		}
		return nil, fmt.Errorf("sqlite: getting task %d: %w", taskID, err)
	}

	return task, nil
}

// ListTasks returns the user's tasks matching the filter, sorted per the
// filter's sort spec, plus counts computed over the same filtered set.
//
// The WHERE clause is built once and shared by the row query and the
// aggregate query, so the counts always describe exactly the rows the
// filter matches (and would stay correct if a LIMIT were ever added to
// the row query).
func (db *DB) ListTasks(ctx context.Context, userID int64, filter repository.TaskFilter) ([]model.Task, repository.TaskCounts, error) {
	where, args := buildTaskWhere(userID, filter)

	query := fmt.Sprintf(
		`SELECT %s FROM tasks WHERE %s ORDER BY %s`,
		taskColumns, where, orderClause(filter.SortBy, filter.Order),
	)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, repository.TaskCounts{}, fmt.Errorf("sqlite: listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0, 16)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, repository.TaskCounts{}, fmt.Errorf("sqlite: scanning task row: %w", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.TaskCounts{}, fmt.Errorf("sqlite: iterating tasks: %w", err)
	}

	var counts repository.TaskCounts
	err = db.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*), COALESCE(SUM(is_completed), 0) FROM tasks WHERE %s`, where),
		args...,
	).Scan(&counts.Total, &counts.Completed)
	if err != nil {
		return nil, repository.TaskCounts{}, fmt.Errorf("sqlite: counting tasks: %w", err)
	}
	counts.Pending = counts.Total - counts.Completed

	return tasks, counts, nil
}

// UpdateTask overwrites the mutable columns of a task, keyed by (id, user_id).
// RowsAffected distinguishes "updated" from "not found / not yours" in a
// single statement — no separate existence check, no extra round trip.
func (db *DB) UpdateTask(ctx context.Context, task *model.Task) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE tasks
		 SET title = ?, description = ?, due_date = ?, priority = ?, is_completed = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		task.Title,
		task.Description,
		nullableTime(task.DueDate),
		task.Priority,
		task.IsCompleted,
		nullableTime(task.UpdatedAt),
		task.ID,
		task.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating task %d: %w", task.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("task", task.ID)
	}

	return nil
}

// DeleteTask permanently removes a task scoped to its owner. Same pattern as
// Update — zero rows affected means NotFound, for both "gone" and "not
// yours".
func (db *DB) DeleteTask(ctx context.Context, userID, taskID int64) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND user_id = ?`,
		taskID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting task %d: %w", taskID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("task", taskID)
	}

	return nil
}

// buildTaskWhere assembles the AND-combined predicate list for a task
// query. The owner scope is always the first predicate — every query in
// this file is tenant-scoped, no exceptions.
//
// The substring search uses instr() rather than LIKE so that % and _ in
// the user's search text are matched literally instead of acting as
// wildcards.
func buildTaskWhere(userID int64, f repository.TaskFilter) (string, []any) {
	where := []string{"user_id = ?"}
	args := []any{userID}

	if f.IsCompleted != nil {
		where = append(where, "is_completed = ?")
		args = append(args, *f.IsCompleted)
	}
	if f.Priority != nil {
		where = append(where, "priority = ?")
		args = append(args, *f.Priority)
	}
	if f.DueFrom != nil {
		where = append(where, "due_date >= ?")
		args = append(args, *f.DueFrom)
	}
	if f.DueTo != nil {
		where = append(where, "due_date <= ?")
		args = append(args, *f.DueTo)
	}
	if needle := strings.ToLower(strings.TrimSpace(f.Search)); needle != "" {
		where = append(where, "(instr(lower(title), ?) > 0 OR instr(lower(description), ?) > 0)")
		args = append(args, needle, needle)
	}

	return strings.Join(where, " AND "), args
}

// orderClause builds the ORDER BY for a task query.
//
// Rules:
//   - unknown or empty sortBy falls back to created_at (a defined default
//     branch, not an error)
//   - direction defaults to DESC for created_at and ASC for everything else
//   - a NULL sort key (a task with no due date) always sorts last, in both
//     directions — "(due_date IS NULL) ASC" evaluates to 0/1 and leads the
//     clause, pinning the NULLs to the end deterministically
//   - id breaks ties so equal keys still produce a stable order
//
// Only whitelisted column names reach the SQL string; user input never
// does.
func orderClause(sortBy, order string) string {
	column := "created_at"
	switch sortBy {
	case repository.SortByDueDate:
		column = "due_date"
	case repository.SortByPriority:
		column = "priority"
	case repository.SortByTitle:
		column = "title COLLATE NOCASE"
	}

	var dir string
	switch strings.ToLower(order) {
	case "asc":
		dir = "ASC"
	case "desc":
		dir = "DESC"
	default:
		if column == "created_at" {
			dir = "DESC"
		} else {
			dir = "ASC"
		}
	}

	if column == "due_date" {
		return fmt.Sprintf("(due_date IS NULL) ASC, due_date %s, id ASC", dir)
	}
	return fmt.Sprintf("%s %s, id ASC", column, dir)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows, so scanTask can
// serve single-row and multi-row queries alike.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask reads one task row, converting the nullable DATETIME columns
// into pointer fields (nil for SQL NULL).
func scanTask(row rowScanner) (*model.Task, error) {
	var (
		t       model.Task
		due     sql.NullTime
		updated sql.NullTime
	)

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&due,
		&t.Priority,
		&t.IsCompleted,
		&t.CreatedAt,
		&updated,
	)
	if err != nil {
		return nil, err
	}

	if due.Valid {
		t.DueDate = &due.Time
	}
	if updated.Valid {
		t.UpdatedAt = &updated.Time
	}

	return &t, nil
}

// nullableTime converts a *time.Time into the driver-friendly NULL
// representation.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
