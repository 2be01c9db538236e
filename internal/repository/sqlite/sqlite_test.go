package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/sakif/taskify/internal/model"
)

// TESTING WITH IN-MEMORY SQLITE:
// Using ":memory:" creates a fresh database that exists only during the
// test — fast, isolated, and destroyed when the connection closes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		PasswordHash: "$2a$04$fakehashforrepositorytests000000000000000000000000000",
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %s: %v", email, err)
	}
	return user
}

// createTestTask inserts a task with the given fields. The zero-value
// convenience: priority 0 is bumped to medium so callers only set what
// the test cares about.
func createTestTask(t *testing.T, db *DB, task model.Task) *model.Task {
	t.Helper()
	if task.Priority == 0 {
		task.Priority = model.PriorityMedium
	}
	if err := db.CreateTask(context.Background(), &task); err != nil {
		t.Fatalf("failed to create test task %q: %v", task.Title, err)
	}
	return &task
}

// timePtr is a shorthand for pointer-typed optional times in test fixtures.
func timePtr(t time.Time) *time.Time {
	return &t
}
