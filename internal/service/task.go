// TaskService — task business logic.
//
// Sits between the HTTP handlers and the task repository:
//
//	TaskHandler (HTTP) → TaskService (business rules) → TaskRepository (DB)
//
// KEY RESPONSIBILITIES:
//   - Validate and default task fields on create and update
//   - Apply partial updates: only the fields the caller sent change
//   - Stamp UpdatedAt on every mutation after creation
//   - Keep every operation scoped to the calling user
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/taskify/internal/apperror"
	"github.com/sakif/taskify/internal/model"
	"github.com/sakif/taskify/internal/repository"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
)

// TaskService handles task business logic.
type TaskService struct {
	tasks  repository.TaskRepository
	logger *slog.Logger
}

// NewTaskService creates a TaskService with all required dependencies.
func NewTaskService(tasks repository.TaskRepository, logger *slog.Logger) *TaskService {
	return &TaskService{
		tasks:  tasks,
		logger: logger,
	}
}

// CreateTaskInput carries the fields a caller may set when creating a task.
// Title is the only required field; everything else has a defined default.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    *int // nil → medium
}

// UpdateTaskInput carries a PARTIAL update: nil means "leave unchanged",
// which is different from the zero value ("set to empty/false"). That is
// why every field is a pointer — including DueDate, where the outer
// pointer distinguishes "don't touch" from "clear the date".
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     **time.Time
	Priority    *int
	IsCompleted *bool
}

// Create validates the input, applies defaults, and stores the task.
//
// DEFAULTS: description "", no due date, priority medium, not completed.
// UpdatedAt is left nil — a freshly created task has never been mutated.
func (s *TaskService) Create(ctx context.Context, userID int64, input CreateTaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	if err := validateDescription(input.Description); err != nil {
		return nil, err
	}

	priority := model.PriorityMedium
	if input.Priority != nil {
		if err := validatePriority(*input.Priority); err != nil {
			return nil, err
		}
		priority = *input.Priority
	}

	task := &model.Task{
		UserID:      userID,
		Title:       title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Priority:    priority,
	}
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("service/task: creating task: %w", err)
	}

	s.logger.Info("task created",
		slog.Int64("userID", userID),
		slog.Int64("taskID", task.ID),
	)

	return task, nil
}

// Get returns one of the user's tasks by ID.
func (s *TaskService) Get(ctx context.Context, userID, taskID int64) (*model.Task, error) {
	task, err := s.tasks.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/task: getting task %d: %w", taskID, err)
	}
	return task, nil
}

// List returns the user's tasks matching the filter plus counts over the
// same filtered set. Filter semantics (AND-combination, sort defaults,
// NULL ordering) live in the repository; this layer only scopes the call
// to the user.
func (s *TaskService) List(ctx context.Context, userID int64, filter repository.TaskFilter) ([]model.Task, repository.TaskCounts, error) {
	tasks, counts, err := s.tasks.ListTasks(ctx, userID, filter)
	if err != nil {
		return nil, repository.TaskCounts{}, fmt.Errorf("service/task: listing tasks: %w", err)
	}
	return tasks, counts, nil
}

// Update applies a partial update to one of the user's tasks.
//
// FETCH THEN WRITE:
// The current row is loaded first so unset input fields keep their stored
// values, then the whole mutable column set is written back. The write is
// still keyed on (id, user_id), so a task deleted between the two steps
// resolves to NotFound rather than resurrecting the row.
func (s *TaskService) Update(ctx context.Context, userID, taskID int64, input UpdateTaskInput) (*model.Task, error) {
	task, err := s.tasks.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/task: loading task %d for update: %w", taskID, err)
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		task.Title = title
	}
	if input.Description != nil {
		if err := validateDescription(*input.Description); err != nil {
			return nil, err
		}
		task.Description = *input.Description
	}
	if input.DueDate != nil {
		task.DueDate = *input.DueDate
	}
	if input.Priority != nil {
		if err := validatePriority(*input.Priority); err != nil {
			return nil, err
		}
		task.Priority = *input.Priority
	}
	if input.IsCompleted != nil {
		task.IsCompleted = *input.IsCompleted
	}

	now := time.Now()
	task.UpdatedAt = &now

	if err := s.tasks.UpdateTask(ctx, task); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/task: updating task %d: %w", taskID, err)
	}

	return task, nil
}

// Delete permanently removes one of the user's tasks.
func (s *TaskService) Delete(ctx context.Context, userID, taskID int64) error {
	if err := s.tasks.DeleteTask(ctx, userID, taskID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		return fmt.Errorf("service/task: deleting task %d: %w", taskID, err)
	}

	s.logger.Info("task deleted",
		slog.Int64("userID", userID),
		slog.Int64("taskID", taskID),
	)

	return nil
}

// ToggleCompletion flips the task's completion state and returns the
// updated task. A dedicated operation (rather than a client-side update)
// so the flip is always relative to the stored state.
func (s *TaskService) ToggleCompletion(ctx context.Context, userID, taskID int64) (*model.Task, error) {
	task, err := s.tasks.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/task: loading task %d for toggle: %w", taskID, err)
	}

	task.IsCompleted = !task.IsCompleted
	now := time.Now()
	task.UpdatedAt = &now

	if err := s.tasks.UpdateTask(ctx, task); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service/task: toggling task %d: %w", taskID, err)
	}

	return task, nil
}

func validateTitle(title string) error {
	if title == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > maxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	return nil
}

func validateDescription(description string) error {
	if len(description) > maxDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	}
	return nil
}

func validatePriority(priority int) error {
	if priority < model.PriorityLow || priority > model.PriorityHigh {
		return apperror.ValidationFailed("priority", "priority must be 1 (low), 2 (medium), or 3 (high)")
	}
	return nil
}
