package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/auth"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/config"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/service"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/store"
)

const sessionName = "_my_session_id"

type testEnv struct {
	api   *Api
	users store.UserStore
}

func testConfig(authType string) config.Config {
	return config.Config{
		API: config.APIConfig{Port: 5000, CORSOrigins: []string{"*"}},
		Auth: config.AuthConfig{
			Type:          authType,
			SessionName:   sessionName,
			ExcludedPaths: config.DefaultExcludedPaths,
			TokenSecret:   "test-secret",
			TokenTTL:      time.Hour,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func newTestEnv(t *testing.T, authType string) *testEnv {
	t.Helper()
	return newTestEnvWith(t, authType, nil, store.NewMemorySessionStore())
}

// newTestEnvWith builds the API on users (a fresh store when nil) and
// sessions as the durable session store.
func newTestEnvWith(t *testing.T, authType string, users store.UserStore, sessions store.SessionStore) *testEnv {
	t.Helper()
	ctx := context.Background()
	cfg := testConfig(authType)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if users == nil {
		fileUsers, err := store.NewFileUserStore(ctx, store.NewMemBlob("users"))
		require.NoError(t, err)
		users = fileUsers
	}
	accounts, err := store.NewFileUserStore(ctx, store.NewMemBlob("accounts"))
	require.NoError(t, err)

	hasher := auth.SHA256Hasher{}
	authenticator, err := auth.New(cfg.Auth, auth.Deps{
		Users:    users,
		Hasher:   hasher,
		Sessions: sessions,
	})
	require.NoError(t, err)

	a, err := NewApi(cfg, Deps{
		Logger:   logger,
		Auth:     authenticator,
		Users:    users,
		Hasher:   hasher,
		Accounts: service.NewUserService(accounts, auth.BcryptHasher{Cost: 4}, logger),
	})
	require.NoError(t, err)
	return &testEnv{api: a, users: users}
}

func (e *testEnv) addUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	digest, err := e.api.hasher.Hash(password)
	require.NoError(t, err)
	u := &models.User{Email: email, HashedPassword: digest}
	require.NoError(t, e.users.Add(context.Background(), u))
	return u
}

type requestOption func(*http.Request)

func withBasic(email, password string) requestOption {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(email+":"+password)))
	}
}

func withCookie(name, value string) requestOption {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}

func withJSON(body string) requestOption {
	return func(r *http.Request) {
		r.Body = io.NopCloser(strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
}

func withForm(values url.Values) requestOption {
	return func(r *http.Request) {
		r.Body = io.NopCloser(strings.NewReader(values.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
}

func (e *testEnv) do(method, path string, opts ...requestOption) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, nil)
	for _, opt := range opts {
		opt(r)
	}
	rec := httptest.NewRecorder()
	e.api.Router.ServeHTTP(rec, r)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestNewApi(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		e := newTestEnv(t, config.AuthNone)
		assert.Equal(t, 5000, e.api.Config.API.Port)
	})

	t.Run("InvalidConfigZeroPort", func(t *testing.T) {
		_, err := NewApi(config.Config{}, Deps{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Must have at least a port to start API")
	})

	t.Run("MissingDeps", func(t *testing.T) {
		_, err := NewApi(testConfig(config.AuthNone), Deps{})
		assert.Error(t, err)
	})
}

func TestOperationalRoutes(t *testing.T) {
	e := newTestEnv(t, config.AuthBasic)

	rec := e.do(http.MethodGet, "/heartbeat")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(http.MethodGet, "/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", decode(t, rec)["error"])

	e.do(http.MethodGet, "/api/v1/users")
	rec = e.do(http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `userauth_auth_outcomes_total{outcome="unauthorized",strategy="basic_auth"} 1`)
}

func TestCORSOnAPI(t *testing.T) {
	e := newTestEnv(t, config.AuthBasic)
	rec := e.do(http.MethodGet, "/api/v1/status", func(r *http.Request) {
		r.Header.Set("Origin", "http://example.com")
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	e := newTestEnv(t, config.AuthNone)
	e.api.Config.API.Host = "127.0.0.1"
	e.api.Config.API.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.api.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
