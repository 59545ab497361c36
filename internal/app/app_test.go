package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cjuarezoax-byte/hello-api-mas/internal/config"
)

func newMemoryApp(t *testing.T, extra map[string]string) *App {
	t.Helper()

	env := map[string]string{
		"ENVIRONMENT":        "test",
		"STORE_DRIVER":       "memory",
		"BCRYPT_COST":        "4",
		"RATE_LIMIT_ENABLED": "false",
	}
	for k, v := range extra {
		env[k] = v
	}
	cfg, err := config.LoadFrom(env)
	require.NoError(t, err)

	a, err := NewApp(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown() })
	return a
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestNewApp_MemoryStoreSeedsDemoUser(t *testing.T) {
	a := newMemoryApp(t, nil)

	rr := post(t, a.httpServer.Handler, "/auth/login", map[string]string{
		"username": "carlos",
		"password": "secret123",
	})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var body map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.NotEmpty(t, body["accessToken"])
	assert.NotEmpty(t, body["refreshToken"])
}

func TestNewApp_DemoUserDisabled(t *testing.T) {
	a := newMemoryApp(t, map[string]string{"DEMO_USER_ENABLED": "false"})

	rr := post(t, a.httpServer.Handler, "/auth/login", map[string]string{
		"username": "carlos",
		"password": "secret123",
	})

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestNewApp_ReadyWithoutExternalDependencies(t *testing.T) {
	a := newMemoryApp(t, nil)

	rr := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Nil(t, a.pool)
	assert.Nil(t, a.producer)
}

func TestNewApp_ListensOnConfiguredPort(t *testing.T) {
	a := newMemoryApp(t, map[string]string{"HTTP_PORT": "8089"})

	assert.Equal(t, ":8089", a.httpServer.Addr)
}

func TestShutdown_IsIdempotentForResources(t *testing.T) {
	a := newMemoryApp(t, map[string]string{"RATE_LIMIT_ENABLED": "true"})

	require.NoError(t, a.Shutdown())
	assert.NoError(t, a.closeResources())
}
