package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sakif/taskify/internal/apperror"
	"github.com/sakif/taskify/internal/model"
	"github.com/sakif/taskify/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeTaskRepo is an in-memory implementation of repository.TaskRepository.
// Filtering and sorting are exercised against the real sqlite store in the
// repository tests; here the fake only enforces the ownership scoping the
// service relies on.
type fakeTaskRepo struct {
	tasks  map[int64]*model.Task
	nextID int64
	// set to a non-nil error to simulate a database failure
	createErr error
	listErr   error
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{
		tasks:  make(map[int64]*model.Task),
		nextID: 1,
	}
}

func (f *fakeTaskRepo) CreateTask(ctx context.Context, task *model.Task) error {
	if f.createErr != nil {
		return f.createErr
	}
	task.ID = f.nextID
	f.nextID++
	task.CreatedAt = time.Now()
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskRepo) GetTaskByID(ctx context.Context, userID, taskID int64) (*model.Task, error) {
	task, ok := f.tasks[taskID]
	if !ok || task.UserID != userID {
		return nil, apperror.NotFound("task", taskID)
	}
	copied := *task
	return &copied, nil
}

func (f *fakeTaskRepo) ListTasks(ctx context.Context, userID int64, filter repository.TaskFilter) ([]model.Task, repository.TaskCounts, error) {
	if f.listErr != nil {
		return nil, repository.TaskCounts{}, f.listErr
	}
	var out []model.Task
	var counts repository.TaskCounts
	for _, task := range f.tasks {
		if task.UserID != userID {
			continue
		}
		out = append(out, *task)
		counts.Total++
		if task.IsCompleted {
			counts.Completed++
		} else {
			counts.Pending++
		}
	}
	return out, counts, nil
}

func (f *fakeTaskRepo) UpdateTask(ctx context.Context, task *model.Task) error {
	stored, ok := f.tasks[task.ID]
	if !ok || stored.UserID != task.UserID {
		return apperror.NotFound("task", task.ID)
	}
	copied := *task
	f.tasks[task.ID] = &copied
	return nil
}

func (f *fakeTaskRepo) DeleteTask(ctx context.Context, userID, taskID int64) error {
	task, ok := f.tasks[taskID]
	if !ok || task.UserID != userID {
		return apperror.NotFound("task", taskID)
	}
	delete(f.tasks, taskID)
	return nil
}

func newTestTaskService(repo *fakeTaskRepo) *TaskService {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewTaskService(repo, logger)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

// =========================================================================
// Create TESTS
// =========================================================================

func TestCreateTask_Defaults(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestTaskService(repo)

	task, err := svc.Create(context.Background(), 1, CreateTaskInput{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if task.Priority != model.PriorityMedium {
		t.Errorf("Priority = %d, want default medium (%d)", task.Priority, model.PriorityMedium)
	}
	if task.Description != "" {
		t.Errorf("Description = %q, want empty default", task.Description)
	}
	if task.DueDate != nil {
		t.Errorf("DueDate = %v, want nil default", task.DueDate)
	}
	if task.IsCompleted {
		t.Error("new task should not be completed")
	}
	if task.UpdatedAt != nil {
		t.Errorf("UpdatedAt = %v, want nil on a fresh task", task.UpdatedAt)
	}
}

func TestCreateTask_TrimsTitle(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestTaskService(repo)

	task, err := svc.Create(context.Background(), 1, CreateTaskInput{Title: "  padded  "})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.Title != "padded" {
		t.Errorf("Title = %q, want %q", task.Title, "padded")
	}
}

func TestCreateTask_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input CreateTaskInput
	}{
		{"empty title", CreateTaskInput{Title: ""}},
		{"whitespace-only title", CreateTaskInput{Title: "   "}},
		{"title too long", CreateTaskInput{Title: strings.Repeat("x", 201)}},
		{"description too long", CreateTaskInput{Title: "ok", Description: strings.Repeat("x", 2001)}},
		{"priority zero", CreateTaskInput{Title: "ok", Priority: intPtr(0)}},
		{"priority out of range", CreateTaskInput{Title: "ok", Priority: intPtr(4)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestTaskService(newFakeTaskRepo())
			_, err := svc.Create(context.Background(), 1, tt.input)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCreateTask_BoundaryLengthsAccepted(t *testing.T) {
	svc := newTestTaskService(newFakeTaskRepo())

	_, err := svc.Create(context.Background(), 1, CreateTaskInput{
		Title:       strings.Repeat("t", 200),
		Description: strings.Repeat("d", 2000),
	})
	if err != nil {
		t.Errorf("Create() at exact length limits error = %v", err)
	}
}

// =========================================================================
// Update TESTS
// =========================================================================

func TestUpdateTask_PartialUpdate(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestTaskService(repo)

	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	created, err := svc.Create(context.Background(), 1, CreateTaskInput{
		Title:       "original",
		Description: "keep me",
		DueDate:     &due,
		Priority:    intPtr(model.PriorityHigh),
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	// Only the title is sent — everything else must survive untouched
	updated, err := svc.Update(context.Background(), 1, created.ID, UpdateTaskInput{
		Title: strPtr("renamed"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Title != "renamed" {
		t.Errorf("Title = %q, want %q", updated.Title, "renamed")
	}
	if updated.Description != "keep me" {
		t.Errorf("Description = %q, want unchanged %q", updated.Description, "keep me")
	}
	if updated.Priority != model.PriorityHigh {
		t.Errorf("Priority = %d, want unchanged %d", updated.Priority, model.PriorityHigh)
	}
	if updated.DueDate == nil || !updated.DueDate.Equal(due) {
		t.Errorf("DueDate = %v, want unchanged %v", updated.DueDate, due)
	}
	if updated.UpdatedAt == nil {
		t.Error("UpdatedAt should be stamped on update")
	}
}

func TestUpdateTask_ClearDueDate(t *testing.T) {
	// The double pointer distinguishes "leave alone" (nil outer) from
	// "clear the date" (non-nil outer wrapping a nil inner).
	repo := newFakeTaskRepo()
	svc := newTestTaskService(repo)

	due := time.Now().Add(24 * time.Hour)
	created, err := svc.Create(context.Background(), 1, CreateTaskInput{Title: "dated", DueDate: &due})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	var cleared *time.Time
	updated, err := svc.Update(context.Background(), 1, created.ID, UpdateTaskInput{
		DueDate: &cleared,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.DueDate != nil {
		t.Errorf("DueDate = %v, want cleared to nil", updated.DueDate)
	}
}

func TestUpdateTask_Validation(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestTaskService(repo)

	created, err := svc.Create(context.Background(), 1, CreateTaskInput{Title: "victim"})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	tests := []struct {
		name  string
		input UpdateTaskInput
	}{
		{"empty title", UpdateTaskInput{Title: strPtr("")}},
		{"whitespace title", UpdateTaskInput{Title: strPtr("  ")}},
		{"title too long", UpdateTaskInput{Title: strPtr(strings.Repeat("x", 201))}},
		{"description too long", UpdateTaskInput{Description: strPtr(strings.Repeat("x", 2001))}},
		{"bad priority", UpdateTaskInput{Priority: intPtr(7)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), 1, created.ID, tt.input)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Update() error = %v, want ErrValidation", err)
			}
		})
	}

	// Failed updates must not have touched the stored task
	stored, _ := svc.Get(context.Background(), 1, created.ID)
	if stored.Title != "victim" {
		t.Errorf("stored Title = %q, want untouched %q", stored.Title, "victim")
	}
}

func TestUpdateTask_OtherUsersTaskIsNotFound(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestTaskService(repo)

	created, err := svc.Create(context.Background(), 1, CreateTaskInput{Title: "mine"})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, err = svc.Update(context.Background(), 2, created.ID, UpdateTaskInput{Title: strPtr("stolen")})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() as another user error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// ToggleCompletion TESTS
// =========================================================================

func TestToggleCompletion(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestTaskService(repo)

	created, err := svc.Create(context.Background(), 1, CreateTaskInput{Title: "flippable"})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	toggled, err := svc.ToggleCompletion(context.Background(), 1, created.ID)
	if err != nil {
		t.Fatalf("ToggleCompletion() error = %v", err)
	}
	if !toggled.IsCompleted {
		t.Error("first toggle should mark the task completed")
	}
	if toggled.UpdatedAt == nil {
		t.Error("toggle should stamp UpdatedAt")
	}

	// Toggling again flips it back
	toggled, err = svc.ToggleCompletion(context.Background(), 1, created.ID)
	if err != nil {
		t.Fatalf("second ToggleCompletion() error = %v", err)
	}
	if toggled.IsCompleted {
		t.Error("second toggle should mark the task pending again")
	}
}

func TestToggleCompletion_NotFound(t *testing.T) {
	svc := newTestTaskService(newFakeTaskRepo())

	_, err := svc.ToggleCompletion(context.Background(), 1, 999)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ToggleCompletion() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// Get / List / Delete TESTS
// =========================================================================

func TestGetTask_OtherUsersTaskIsNotFound(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestTaskService(repo)

	created, err := svc.Create(context.Background(), 1, CreateTaskInput{Title: "private"})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, err := svc.Get(context.Background(), 2, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() as another user error = %v, want ErrNotFound", err)
	}
}

func TestListTasks_ScopedToUser(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestTaskService(repo)

	if _, err := svc.Create(context.Background(), 1, CreateTaskInput{Title: "u1 task"}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, err := svc.Create(context.Background(), 2, CreateTaskInput{Title: "u2 task"}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	tasks, counts, err := svc.List(context.Background(), 1, repository.TaskFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(tasks) != 1 || counts.Total != 1 {
		t.Errorf("List() returned %d tasks (total %d), want 1", len(tasks), counts.Total)
	}
	if tasks[0].Title != "u1 task" {
		t.Errorf("Title = %q, want %q", tasks[0].Title, "u1 task")
	}
}

func TestDeleteTask(t *testing.T) {
	repo := newFakeTaskRepo()
	svc := newTestTaskService(repo)

	created, err := svc.Create(context.Background(), 1, CreateTaskInput{Title: "doomed"})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := svc.Delete(context.Background(), 1, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(context.Background(), 1, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
