package service

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cjuarezoax-byte/hello-api-mas/internal/auth"
	"github.com/cjuarezoax-byte/hello-api-mas/internal/domain"
	"github.com/cjuarezoax-byte/hello-api-mas/internal/event"
	pkgkafka "github.com/cjuarezoax-byte/hello-api-mas/pkg/kafka"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- Mock Task Repository ---

type mockTaskRepository struct {
	mock.Mock
}

func (m *mockTaskRepository) List(ctx context.Context, userID string, filter domain.TaskFilter, limit, offset int) ([]domain.Task, error) {
	args := m.Called(ctx, userID, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Task), args.Error(1)
}

func (m *mockTaskRepository) Get(ctx context.Context, userID, id string) (*domain.Task, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *mockTaskRepository) Create(ctx context.Context, task *domain.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *mockTaskRepository) Update(ctx context.Context, userID, id string, patch domain.TaskPatch, at time.Time) (*domain.Task, error) {
	args := m.Called(ctx, userID, id, patch, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *mockTaskRepository) Delete(ctx context.Context, userID, id string) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// --- Recording event publisher ---

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ *pkgkafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	return p.err
}

func (p *recordingPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

// --- Test Helpers ---

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type authFixture struct {
	svc      *AuthService
	users    *mockUserRepository
	hasher   *auth.PasswordHasher
	registry *auth.RevocationRegistry
	events   *recordingPublisher
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	hasher, err := auth.NewPasswordHasher(4)
	require.NoError(t, err)

	tokens := auth.NewTokenManager(auth.TokenConfig{
		AccessSecret:  "service-access-secret",
		RefreshSecret: "service-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "hello-api-mas",
	}, func() time.Time { return fixedNow })
	registry := auth.NewRevocationRegistry()
	events := &recordingPublisher{}
	users := new(mockUserRepository)

	svc := NewAuthService(users, hasher, auth.NewSessions(tokens, registry), event.NewProducer(events, nil), newTestLogger())
	svc.now = func() time.Time { return fixedNow }

	return &authFixture{svc: svc, users: users, hasher: hasher, registry: registry, events: events}
}

func (f *authFixture) storedUser(t *testing.T, username, password string) *domain.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)
	return &domain.User{
		ID:           "7d3c1f0e-6a55-4d0c-9a0e-2b7c5f1f0a11",
		Username:     username,
		PasswordHash: hash,
		Roles:        []string{domain.RoleUser},
		CreatedAt:    fixedNow,
		UpdatedAt:    fixedNow,
	}
}
