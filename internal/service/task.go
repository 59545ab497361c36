package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cjuarezoax-byte/hello-api-mas/internal/domain"
	"github.com/cjuarezoax-byte/hello-api-mas/internal/event"
	"github.com/cjuarezoax-byte/hello-api-mas/internal/repository"
	apperrors "github.com/cjuarezoax-byte/hello-api-mas/pkg/errors"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/pagination"
)

// CodeInvalidTaskPayload is returned for task bodies that fail validation.
const CodeInvalidTaskPayload = "INVALID_TASK_PAYLOAD"

// TaskService implements per-user task CRUD. Every operation is scoped to
// the calling user; someone else's task is reported as not found.
type TaskService struct {
	tasks    repository.TaskRepository
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewTaskService creates a new task service.
func NewTaskService(tasks repository.TaskRepository, producer *event.Producer, logger *slog.Logger) *TaskService {
	return &TaskService{
		tasks:    tasks,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateTaskInput holds the parameters for creating a task.
type CreateTaskInput struct {
	Task string
	Done bool
}

// List returns one page of the user's tasks, newest first.
func (s *TaskService) List(ctx context.Context, userID string, filter domain.TaskFilter, params pagination.Params) (pagination.Page[domain.Task], error) {
	rows, err := s.tasks.List(ctx, userID, filter, params.Limit(), params.Offset)
	if err != nil {
		return pagination.Page[domain.Task]{}, apperrors.InternalWithCode("TASKS_LIST_ERROR", "Could not list tasks", err)
	}
	return pagination.NewPage(rows, params), nil
}

// Get returns one of the user's tasks.
func (s *TaskService) Get(ctx context.Context, userID, id string) (*domain.Task, error) {
	task, err := s.tasks.Get(ctx, userID, id)
	if err != nil {
		return nil, taskError(err, "TASK_GET_ERROR", "Could not get task")
	}
	return task, nil
}

// Create adds a task for the user.
func (s *TaskService) Create(ctx context.Context, userID string, in CreateTaskInput) (*domain.Task, error) {
	if in.Task == "" {
		return nil, apperrors.InvalidInput(CodeInvalidTaskPayload, "Invalid task payload",
			apperrors.Detail{Path: "task", Message: "is required"})
	}

	task := &domain.Task{
		ID:        uuid.NewString(),
		UserID:    userID,
		Task:      in.Task,
		Done:      in.Done,
		CreatedAt: s.now().UTC(),
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, apperrors.InternalWithCode("TASK_CREATE_ERROR", "Could not create task", err)
	}

	if err := s.producer.PublishTaskCreated(ctx, task); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish task.created event",
			slog.String("task_id", task.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "task created",
		slog.String("task_id", task.ID),
		slog.String("user_id", userID),
	)
	return task, nil
}

// Update applies a partial update to one of the user's tasks.
func (s *TaskService) Update(ctx context.Context, userID, id string, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.IsEmpty() {
		return nil, apperrors.InvalidInput(CodeInvalidTaskPayload, "Invalid task payload",
			apperrors.Detail{Path: "task", Message: "send at least one of task or done"})
	}
	if patch.Task != nil && *patch.Task == "" {
		return nil, apperrors.InvalidInput(CodeInvalidTaskPayload, "Invalid task payload",
			apperrors.Detail{Path: "task", Message: "must not be empty"})
	}

	task, err := s.tasks.Update(ctx, userID, id, patch, s.now().UTC())
	if err != nil {
		return nil, taskError(err, "TASK_UPDATE_ERROR", "Could not update task")
	}

	if err := s.producer.PublishTaskUpdated(ctx, task); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish task.updated event",
			slog.String("task_id", task.ID),
			slog.String("error", err.Error()),
		)
	}
	return task, nil
}

// Delete removes one of the user's tasks.
func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	if err := s.tasks.Delete(ctx, userID, id); err != nil {
		return taskError(err, "TASK_DELETE_ERROR", "Could not delete task")
	}

	if err := s.producer.PublishTaskDeleted(ctx, userID, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish task.deleted event",
			slog.String("task_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "task deleted",
		slog.String("task_id", id),
		slog.String("user_id", userID),
	)
	return nil
}

// taskError keeps not-found as TASK_NOT_FOUND and turns anything else into
// an operation-specific 500.
func taskError(err error, code, message string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFound("task")
	}
	return apperrors.InternalWithCode(code, message, err)
}
