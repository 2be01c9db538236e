package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/sakif/taskify/internal/apperror"
	"github.com/sakif/taskify/internal/auth"
	"github.com/sakif/taskify/internal/model"
	"github.com/sakif/taskify/internal/repository"
	"github.com/sakif/taskify/internal/service"
)

// TaskHandler exposes the task CRUD and query endpoints. Every route here
// sits behind the bearer-token middleware, so a user ID is always in the
// request context.
type TaskHandler struct {
	tasks  *service.TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// taskResponse is the wire shape of a task.
//
// priorityLabel is derived on the way out, never stored — the numeric
// priority stays the single source of truth. dueDate and updatedAt render
// as JSON null when unset.
type taskResponse struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	DueDate       *time.Time `json:"dueDate"`
	Priority      int        `json:"priority"`
	PriorityLabel string     `json:"priorityLabel"`
	IsCompleted   bool       `json:"isCompleted"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt"`
}

// taskListResponse wraps the filtered task list with counts computed over
// the same filtered set.
type taskListResponse struct {
	Tasks     []taskResponse `json:"tasks"`
	Total     int            `json:"total"`
	Completed int            `json:"completed"`
	Pending   int            `json:"pending"`
}

func toTaskResponse(t *model.Task) taskResponse {
	return taskResponse{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		DueDate:       t.DueDate,
		Priority:      t.Priority,
		PriorityLabel: t.PriorityLabel(),
		IsCompleted:   t.IsCompleted,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// HandleList returns the user's tasks matching the query parameters.
//
// HTTP: GET /api/tasks?isCompleted=&priority=&dueFrom=&dueTo=&search=&sortBy=&order=
//
// All parameters are optional and combine with AND. An unknown sortBy
// falls back to createdAt rather than failing; a malformed value for a
// typed parameter (isCompleted, priority, the date bounds) is a 400.
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("missing authentication"))
		return
	}

	filter, err := parseTaskFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	tasks, counts, err := h.tasks.List(r.Context(), userID, filter)
	if err != nil {
		h.logError(r, "listing tasks failed", err)
		writeError(w, err)
		return
	}

	resp := taskListResponse{
		Tasks:     make([]taskResponse, 0, len(tasks)),
		Total:     counts.Total,
		Completed: counts.Completed,
		Pending:   counts.Pending,
	}
	for i := range tasks {
		resp.Tasks = append(resp.Tasks, toTaskResponse(&tasks[i]))
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleCreate stores a new task for the user.
//
// HTTP: POST /api/tasks
// REQUEST BODY: {"title": "...", "description": "...", "dueDate": "...", "priority": 1|2|3}
//
// Only title is required; the rest default (no description, no due date,
// medium priority).
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("missing authentication"))
		return
	}

	var req struct {
		Title       string     `json:"title"`
		Description string     `json:"description"`
		DueDate     *time.Time `json:"dueDate"`
		Priority    *int       `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("", "request body is not valid JSON"))
		return
	}

	task, err := h.tasks.Create(r.Context(), userID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
	})
	if err != nil {
		h.logError(r, "creating task failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTaskResponse(task))
}

// HandleGet returns a single task.
//
// HTTP: GET /api/tasks/{id}
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, taskID, err := requestIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := h.tasks.Get(r.Context(), userID, taskID)
	if err != nil {
		h.logError(r, "getting task failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// HandleUpdate applies a partial update to a task.
//
// HTTP: PUT /api/tasks/{id}
// REQUEST BODY: any subset of {"title","description","dueDate","priority","isCompleted"}
//
// Fields absent from the body keep their stored values. Sending
// "dueDate": null explicitly clears the due date — json.RawMessage
// distinguishes "key absent" from "key present and null".
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, taskID, err := requestIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Title       *string         `json:"title"`
		Description *string         `json:"description"`
		DueDate     json.RawMessage `json:"dueDate"`
		Priority    *int            `json:"priority"`
		IsCompleted *bool           `json:"isCompleted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("", "request body is not valid JSON"))
		return
	}

	input := service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		IsCompleted: req.IsCompleted,
	}
	if len(req.DueDate) > 0 {
		var due *time.Time
		if err := json.Unmarshal(req.DueDate, &due); err != nil {
			writeError(w, apperror.ValidationFailed("dueDate", "dueDate is not a valid timestamp"))
			return
		}
		input.DueDate = &due
	}

	task, err := h.tasks.Update(r.Context(), userID, taskID, input)
	if err != nil {
		h.logError(r, "updating task failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// HandleDelete permanently removes a task.
//
// HTTP: DELETE /api/tasks/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, taskID, err := requestIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.tasks.Delete(r.Context(), userID, taskID); err != nil {
		h.logError(r, "deleting task failed", err)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleToggle flips a task's completion state.
//
// HTTP: POST /api/tasks/{id}/toggle
func (h *TaskHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	userID, taskID, err := requestIDs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := h.tasks.ToggleCompletion(r.Context(), userID, taskID)
	if err != nil {
		h.logError(r, "toggling task failed", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// requestIDs extracts the authenticated user ID from the context and the
// task ID from the URL. A non-numeric task ID maps to NotFound, the same
// answer a numeric-but-nonexistent ID would get.
func requestIDs(r *http.Request) (userID, taskID int64, err error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return 0, 0, apperror.Unauthorized("missing authentication")
	}

	taskID, parseErr := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if parseErr != nil || taskID <= 0 {
		return 0, 0, apperror.NotFound("task", taskID)
	}

	return userID, taskID, nil
}

// parseTaskFilter reads the list query parameters into a TaskFilter.
//
// DATE BOUNDS:
// dueFrom/dueTo accept either a bare date (2026-09-15) or a full RFC 3339
// timestamp. A bare dueTo is widened to the end of that day so the bound
// stays inclusive in calendar terms.
func parseTaskFilter(r *http.Request) (repository.TaskFilter, error) {
	q := r.URL.Query()
	var filter repository.TaskFilter

	if v := q.Get("isCompleted"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, apperror.ValidationFailed("isCompleted", "isCompleted must be true or false")
		}
		filter.IsCompleted = &b
	}

	if v := q.Get("priority"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < model.PriorityLow || p > model.PriorityHigh {
			return filter, apperror.ValidationFailed("priority", "priority must be 1, 2, or 3")
		}
		filter.Priority = &p
	}

	if v := q.Get("dueFrom"); v != "" {
		t, _, err := parseQueryTime(v)
		if err != nil {
			return filter, apperror.ValidationFailed("dueFrom", "dueFrom must be a date or RFC 3339 timestamp")
		}
		filter.DueFrom = &t
	}

	if v := q.Get("dueTo"); v != "" {
		t, dateOnly, err := parseQueryTime(v)
		if err != nil {
			return filter, apperror.ValidationFailed("dueTo", "dueTo must be a date or RFC 3339 timestamp")
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		filter.DueTo = &t
	}

	filter.Search = q.Get("search")
	filter.SortBy = q.Get("sortBy")
	filter.Order = q.Get("order")

	return filter, nil
}

func parseQueryTime(v string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse("2006-01-02", v); err == nil {
		return t, true, nil
	}
	t, err = time.Parse(time.RFC3339, v)
	return t, false, err
}

func (h *TaskHandler) logError(r *http.Request, msg string, err error) {
	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	}
	if isClientError(err) {
		h.logger.Info(msg, attrs...)
		return
	}
	h.logger.Error(msg, attrs...)
}
