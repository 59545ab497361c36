package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cjuarezoax-byte/hello-api-mas/internal/domain"
	"github.com/cjuarezoax-byte/hello-api-mas/internal/service"
	apperrors "github.com/cjuarezoax-byte/hello-api-mas/pkg/errors"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/httputil"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/middleware"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/pagination"
)

// TaskHandler handles HTTP requests for the caller's tasks.
type TaskHandler struct {
	service *service.TaskService
	logger  *slog.Logger
}

// NewTaskHandler creates a new task HTTP handler.
func NewTaskHandler(svc *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{service: svc, logger: logger}
}

// CreateTaskRequest is the JSON request body for creating a task.
type CreateTaskRequest struct {
	Task string `json:"task" validate:"required"`
	Done bool   `json:"done"`
}

// UpdateTaskRequest is the JSON request body for updating a task. At least
// one field must be present.
type UpdateTaskRequest struct {
	Task *string `json:"task" validate:"omitempty,min=1"`
	Done *bool   `json:"done"`
}

// List handles GET /tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter domain.TaskFilter
	switch r.URL.Query().Get("done") {
	case "true":
		done := true
		filter.Done = &done
	case "false":
		done := false
		filter.Done = &done
	}

	page, err := h.service.List(r.Context(), middleware.UserIDFromContext(r.Context()), filter, pagination.FromRequest(r))
	respond(w, r, h.logger, http.StatusOK, page, err)
}

// Get handles GET /tasks/{id}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, err := h.service.Get(r.Context(), middleware.UserIDFromContext(r.Context()), id)
	respond(w, r, h.logger, http.StatusOK, task, err)
}

// Create handles POST /tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !decodeBody(w, r, &req, service.CodeInvalidTaskPayload, "Invalid task payload") {
		return
	}

	task, err := h.service.Create(r.Context(), middleware.UserIDFromContext(r.Context()), service.CreateTaskInput{
		Task: req.Task,
		Done: req.Done,
	})
	respond(w, r, h.logger, http.StatusCreated, task, err)
}

// Update handles PUT /tasks/{id}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeBody(w, r, &req, service.CodeInvalidTaskPayload, "Invalid task payload") {
		return
	}

	task, err := h.service.Update(r.Context(), middleware.UserIDFromContext(r.Context()), id, domain.TaskPatch{
		Task: req.Task,
		Done: req.Done,
	})
	respond(w, r, h.logger, http.StatusOK, task, err)
}

// Delete handles DELETE /tasks/{id}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	err := h.service.Delete(r.Context(), middleware.UserIDFromContext(r.Context()), id)
	respond(w, r, h.logger, http.StatusNoContent, nil, err)
}

// taskID reads the {id} path parameter. An ID that is not a UUID cannot name
// any task, so it is answered like a missing one.
func taskID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := httputil.ParseUUID(chi.URLParam(r, "id"))
	if !ok {
		httputil.WriteError(w, r, apperrors.NotFound("task"), nil)
		return "", false
	}
	return id.String(), true
}
