package repository

import (
	"context"
	"time"

	"github.com/cjuarezoax-byte/hello-api-mas/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user. A taken username yields an error matching
	// apperrors.ErrAlreadyExists.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername retrieves a user by exact username. A missing user
	// yields an error matching apperrors.ErrNotFound.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// TaskRepository defines the interface for task persistence. Every method
// is scoped by the owning user's ID; a task owned by someone else behaves
// exactly like a task that does not exist.
type TaskRepository interface {
	// List returns up to limit tasks, newest first, skipping offset.
	List(ctx context.Context, userID string, filter domain.TaskFilter, limit, offset int) ([]domain.Task, error)

	// Get retrieves one task.
	Get(ctx context.Context, userID, id string) (*domain.Task, error)

	// Create inserts a new task.
	Create(ctx context.Context, task *domain.Task) error

	// Update applies patch and returns the stored result.
	Update(ctx context.Context, userID, id string, patch domain.TaskPatch, at time.Time) (*domain.Task, error)

	// Delete removes one task.
	Delete(ctx context.Context, userID, id string) error
}
