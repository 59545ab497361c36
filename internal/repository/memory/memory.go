// Package memory provides process-local implementations of the repository
// interfaces. They back the HTTP tests and local runs without PostgreSQL.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cjuarezoax-byte/hello-api-mas/internal/domain"
	apperrors "github.com/cjuarezoax-byte/hello-api-mas/pkg/errors"
)

// UserStore is an in-memory repository.UserRepository.
type UserStore struct {
	mu         sync.RWMutex
	byID       map[string]*domain.User
	byUsername map[string]string
}

// NewUserStore creates an empty UserStore.
func NewUserStore() *UserStore {
	return &UserStore{
		byID:       make(map[string]*domain.User),
		byUsername: make(map[string]string),
	}
}

// Create stores a copy of user. Usernames are unique.
func (s *UserStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[user.Username]; taken {
		return apperrors.AlreadyExists("username")
	}
	u := cloneUser(user)
	s.byID[u.ID] = u
	s.byUsername[u.Username] = u.ID
	return nil
}

// GetByID retrieves a user by ID.
func (s *UserStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	return cloneUser(u), nil
}

// GetByUsername retrieves a user by exact username.
func (s *UserStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, apperrors.NotFound("user")
	}
	return cloneUser(s.byID[id]), nil
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	return &c
}

// TaskStore is an in-memory repository.TaskRepository.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
}

// NewTaskStore creates an empty TaskStore.
func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]*domain.Task)}
}

// List returns the user's tasks ordered by creation time, newest first.
func (s *TaskStore) List(_ context.Context, userID string, filter domain.TaskFilter, limit, offset int) ([]domain.Task, error) {
	s.mu.RLock()
	matched := make([]domain.Task, 0)
	for _, t := range s.tasks {
		if t.UserID != userID {
			continue
		}
		if filter.Done != nil && t.Done != *filter.Done {
			continue
		}
		matched = append(matched, cloneTask(t))
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return strings.Compare(matched[i].ID, matched[j].ID) > 0
	})

	if offset >= len(matched) {
		return []domain.Task{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

// Get retrieves one of the user's tasks.
func (s *TaskStore) Get(_ context.Context, userID, id string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.owned(userID, id)
	if !ok {
		return nil, apperrors.NotFound("task")
	}
	c := cloneTask(t)
	return &c, nil
}

// Create stores a copy of task.
func (s *TaskStore) Create(_ context.Context, task *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := cloneTask(task)
	s.tasks[task.ID] = &c
	return nil
}

// Update applies patch to one of the user's tasks.
func (s *TaskStore) Update(_ context.Context, userID, id string, patch domain.TaskPatch, at time.Time) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.owned(userID, id)
	if !ok {
		return nil, apperrors.NotFound("task")
	}
	patch.Apply(t, at)
	c := cloneTask(t)
	return &c, nil
}

// Delete removes one of the user's tasks.
func (s *TaskStore) Delete(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.owned(userID, id); !ok {
		return apperrors.NotFound("task")
	}
	delete(s.tasks, id)
	return nil
}

func (s *TaskStore) owned(userID, id string) (*domain.Task, bool) {
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, false
	}
	return t, true
}

func cloneTask(t *domain.Task) domain.Task {
	c := *t
	if t.UpdatedAt != nil {
		at := *t.UpdatedAt
		c.UpdatedAt = &at
	}
	return c
}
