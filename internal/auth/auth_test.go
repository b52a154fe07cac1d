package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/config"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/store"
)

const cookieName = "_my_session_id"

func newUsers(t *testing.T) store.UserStore {
	t.Helper()
	users, err := store.NewFileUserStore(context.Background(), store.NewMemBlob("users"))
	require.NoError(t, err)
	return users
}

func addUser(t *testing.T, users store.UserStore, h Hasher, email, password string) *models.User {
	t.Helper()
	digest, err := h.Hash(password)
	require.NoError(t, err)
	u := &models.User{Email: email, HashedPassword: digest}
	require.NoError(t, users.Add(context.Background(), u))
	return u
}

func basicHeader(credentials string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
}

func TestRequireAuth(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		excluded []string
		want     bool
	}{
		{"empty path", "", []string{"/api/v1/status/"}, true},
		{"no patterns", "/api/v1/status/", nil, true},
		{"exact with slash", "/api/v1/status/", []string{"/api/v1/status/"}, false},
		{"exact without slash", "/api/v1/status", []string{"/api/v1/status/"}, false},
		{"pattern without slash never matches", "/api/v1/status", []string{"/api/v1/status"}, true},
		{"other path", "/api/v1/users", []string{"/api/v1/status/"}, true},
		{"wildcard prefix", "/api/v1/stats", []string{"/api/v1/stat*"}, false},
		{"wildcard other path", "/api/v1/users", []string{"/api/v1/stat*"}, true},
		{"empty pattern skipped", "/api/v1/users", []string{"", "/api/v1/users/"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RequireAuth(tt.path, tt.excluded))
		})
	}
}

func TestBasicHelpers(t *testing.T) {
	encoded, ok := ExtractBase64("Basic SG9sYmVydG9u")
	require.True(t, ok)
	decoded, ok := DecodeBase64(encoded)
	require.True(t, ok)
	assert.Equal(t, "Holberton", decoded)

	_, ok = ExtractBase64("Basic1234")
	assert.False(t, ok)
	_, ok = ExtractBase64("")
	assert.False(t, ok)

	_, ok = DecodeBase64("not base64!")
	assert.False(t, ok)

	_, _, ok = ExtractCredentials("Holberton")
	assert.False(t, ok)

	email, password, ok := ExtractCredentials("bob@hbtn.io:pa:ss")
	require.True(t, ok)
	assert.Equal(t, "bob@hbtn.io", email)
	assert.Equal(t, "pa:ss", password)
}

func TestHashers(t *testing.T) {
	for _, h := range []Hasher{BcryptHasher{Cost: 4}, SHA256Hasher{}} {
		digest, err := h.Hash("pw1")
		require.NoError(t, err)
		assert.NotEqual(t, "pw1", digest)
		assert.True(t, h.Verify("pw1", digest))
		assert.False(t, h.Verify("pw2", digest))
		assert.False(t, h.Verify("pw1", ""))
	}

	a, _ := BcryptHasher{Cost: 4}.Hash("same")
	b, _ := BcryptHasher{Cost: 4}.Hash("same")
	assert.NotEqual(t, a, b, "bcrypt digests are salted")

	sum, _ := SHA256Hasher{}.Hash("H0lbertonSchool98!")
	assert.Len(t, sum, 64)
}

func TestNoAuth(t *testing.T) {
	a := &NoAuth{Excluded: config.DefaultExcludedPaths, SessionName: cookieName}

	r := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	r.Header.Set("Authorization", "Test")
	r.AddCookie(&http.Cookie{Name: cookieName, Value: "abc"})

	assert.Equal(t, "Test", a.AuthorizationHeader(r))
	assert.Equal(t, "abc", a.SessionCookie(r))
	assert.Empty(t, a.SessionCookie(httptest.NewRequest(http.MethodGet, "/", nil)))

	u, err := a.CurrentUser(context.Background(), r)
	assert.Nil(t, u)
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestBasicAuthCurrentUser(t *testing.T) {
	h := SHA256Hasher{}
	users := newUsers(t)
	bob := addUser(t, users, h, "bob@hbtn.io", "H0lbertonSchool98!")
	a := NewBasicAuth(NoAuth{}, users, h)

	tests := []struct {
		name   string
		header string
		wantID string
	}{
		{"valid", basicHeader("bob@hbtn.io:H0lbertonSchool98!"), bob.ID},
		{"wrong password", basicHeader("bob@hbtn.io:nope"), ""},
		{"unknown email", basicHeader("alice@hbtn.io:H0lbertonSchool98!"), ""},
		{"no colon", basicHeader("bob@hbtn.io"), ""},
		{"empty password", basicHeader("bob@hbtn.io:"), ""},
		{"bad base64", "Basic %%%", ""},
		{"bearer", "Bearer abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
			r.Header.Set("Authorization", tt.header)
			u, err := a.CurrentUser(context.Background(), r)
			if tt.wantID == "" {
				assert.Error(t, err)
				assert.Nil(t, u)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, u.ID)
		})
	}
}

func TestSessionAuthRoundTrip(t *testing.T) {
	ctx := context.Background()
	users := newUsers(t)
	bob := addUser(t, users, SHA256Hasher{}, "bob@hbtn.io", "pw")
	a := NewSessionAuth(config.AuthSession, NoAuth{SessionName: cookieName}, users, store.NewMemorySessionStore(), nil)

	_, err := a.CreateSession(ctx, "")
	assert.ErrorIs(t, err, ErrNoIdentity)

	id, err := a.CreateSession(ctx, bob.ID)
	require.NoError(t, err)
	other, err := a.CreateSession(ctx, bob.ID)
	require.NoError(t, err)
	assert.NotEqual(t, id, other)

	got, err := a.UserIDForSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	r.AddCookie(&http.Cookie{Name: cookieName, Value: id})
	u, err := a.CurrentUser(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, u.ID)

	destroyed, err := a.DestroySession(ctx, r)
	require.NoError(t, err)
	assert.True(t, destroyed)
	destroyed, err = a.DestroySession(ctx, r)
	require.NoError(t, err)
	assert.False(t, destroyed)
	_, err = a.UserIDForSession(ctx, id)
	assert.ErrorIs(t, err, ErrNoIdentity)

	destroyed, err = a.DestroySession(ctx, httptest.NewRequest(http.MethodDelete, "/", nil))
	require.NoError(t, err)
	assert.False(t, destroyed)
}

// downSessions fails every call like an unreachable backend.
type downSessions struct{}

func (downSessions) Create(context.Context, string, *time.Duration) (*models.Session, error) {
	return nil, fmt.Errorf("create: %w", store.ErrUnavailable)
}

func (downSessions) Lookup(context.Context, string) (*models.Session, error) {
	return nil, fmt.Errorf("lookup: %w", store.ErrUnavailable)
}

func (downSessions) Resolve(context.Context, string) (string, error) {
	return "", fmt.Errorf("resolve: %w", store.ErrUnavailable)
}

func (downSessions) Destroy(context.Context, string) error {
	return fmt.Errorf("destroy: %w", store.ErrUnavailable)
}

// downUsers fails every lookup like an unreachable backend.
type downUsers struct {
	store.UserStore
}

func (downUsers) Get(context.Context, string) (*models.User, error) {
	return nil, fmt.Errorf("get: %w", store.ErrUnavailable)
}

func (downUsers) Find(context.Context, models.Query) ([]*models.User, error) {
	return nil, fmt.Errorf("find: %w", store.ErrUnavailable)
}

func TestSessionAuthStoreDown(t *testing.T) {
	ctx := context.Background()
	a := NewSessionAuth(config.AuthSessionDB, NoAuth{SessionName: cookieName}, newUsers(t), downSessions{}, nil)

	r := httptest.NewRequest(http.MethodDelete, "/api/v1/auth_session/logout", nil)
	r.AddCookie(&http.Cookie{Name: cookieName, Value: "abc"})

	destroyed, err := a.DestroySession(ctx, r)
	assert.False(t, destroyed)
	assert.ErrorIs(t, err, store.ErrUnavailable)

	_, err = a.CurrentUser(ctx, r)
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestSessionAuthExpiry(t *testing.T) {
	ctx := context.Background()
	zero := time.Duration(0)
	a := NewSessionAuth(config.AuthSessionExp, NoAuth{SessionName: cookieName}, newUsers(t),
		store.NewExpiringSessionStore(store.NewMemorySessionStore()), &zero)

	id, err := a.CreateSession(ctx, "user-1")
	require.NoError(t, err)
	_, err = a.UserIDForSession(ctx, id)
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestTokenAuth(t *testing.T) {
	ctx := context.Background()
	users := newUsers(t)
	bob := addUser(t, users, SHA256Hasher{}, "bob@hbtn.io", "pw")

	tm := NewTokenManager("secret", time.Hour)
	a := NewTokenAuth(NoAuth{}, users, tm)

	token, err := a.IssueToken(bob)
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, claims.Subject)
	assert.Equal(t, "bob@hbtn.io", claims.Email)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	u, err := a.CurrentUser(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, u.ID)

	_, err = NewTokenManager("other", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	tm.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = tm.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = a.CurrentUser(ctx, r)
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestEvaluate(t *testing.T) {
	ctx := context.Background()
	h := SHA256Hasher{}
	users := newUsers(t)
	addUser(t, users, h, "bob@hbtn.io", "pw")

	a := NewBasicAuth(NoAuth{Excluded: config.DefaultExcludedPaths, SessionName: cookieName}, users, h)

	tests := []struct {
		name   string
		path   string
		header string
		cookie string
		want   Outcome
	}{
		{"excluded", "/api/v1/status", "", "", Allowed},
		{"nothing presented", "/api/v1/users", "", "", Unauthorized},
		{"bad credentials", "/api/v1/users", basicHeader("bob@hbtn.io:bad"), "", Forbidden},
		{"cookie only", "/api/v1/users", "", "abc", Forbidden},
		{"good credentials", "/api/v1/users", basicHeader("bob@hbtn.io:pw"), "", Authenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: cookieName, Value: tt.cookie})
			}
			got, u, err := Evaluate(ctx, a, r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, got.String())
			assert.Equal(t, tt.want == Authenticated, u != nil)
		})
	}
}

func TestEvaluateSessionForRemovedUser(t *testing.T) {
	ctx := context.Background()
	users := newUsers(t)
	bob := addUser(t, users, SHA256Hasher{}, "bob@hbtn.io", "pw")
	a := NewSessionAuth(config.AuthSession, NoAuth{SessionName: cookieName}, users, store.NewMemorySessionStore(), nil)

	id, err := a.CreateSession(ctx, bob.ID)
	require.NoError(t, err)
	require.NoError(t, users.Remove(ctx, bob.ID))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	r.AddCookie(&http.Cookie{Name: cookieName, Value: id})
	got, u, err := Evaluate(ctx, a, r)
	require.NoError(t, err)
	assert.Equal(t, Forbidden, got)
	assert.Nil(t, u)
}

func TestEvaluateStoreDown(t *testing.T) {
	ctx := context.Background()
	base := NoAuth{Excluded: config.DefaultExcludedPaths, SessionName: cookieName}

	basic := NewBasicAuth(base, downUsers{}, SHA256Hasher{})
	r := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	r.Header.Set("Authorization", basicHeader("bob@hbtn.io:pw"))
	_, u, err := Evaluate(ctx, basic, r)
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Nil(t, u)

	sessions := NewSessionAuth(config.AuthSessionDB, base, newUsers(t), downSessions{}, nil)
	r = httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	r.AddCookie(&http.Cookie{Name: cookieName, Value: "abc"})
	_, u, err = Evaluate(ctx, sessions, r)
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.Nil(t, u)
}

func TestEvaluateDisabled(t *testing.T) {
	a, err := New(config.AuthConfig{Type: config.AuthDisabled, ExcludedPaths: config.DefaultExcludedPaths}, Deps{})
	require.NoError(t, err)

	for _, path := range []string{"/api/v1/users", "/api/v1/users/me", "/api/v1/status"} {
		got, u, err := Evaluate(context.Background(), a, httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, Allowed, got, path)
		assert.Nil(t, u)
	}
}

func TestNew(t *testing.T) {
	users := newUsers(t)
	deps := Deps{Users: users, Hasher: SHA256Hasher{}, Sessions: store.NewMemorySessionStore()}

	for _, typ := range config.AuthTypes {
		cfg := config.AuthConfig{Type: typ, SessionName: cookieName, TokenSecret: "s"}
		a, err := New(cfg, deps)
		require.NoError(t, err, typ)
		want := typ
		if typ == config.AuthDisabled {
			want = "none"
		}
		assert.Equal(t, want, a.Name())
	}

	_, err := New(config.AuthConfig{Type: "kerberos"}, deps)
	assert.Error(t, err)
	_, err = New(config.AuthConfig{Type: config.AuthSessionDB}, Deps{Users: users})
	assert.Error(t, err)
	_, err = New(config.AuthConfig{Type: config.AuthToken}, deps)
	assert.Error(t, err)

	a, err := New(config.AuthConfig{Type: config.AuthSessionExp}, deps)
	require.NoError(t, err)
	_, ok := a.(SessionStarter)
	assert.True(t, ok)
}

func TestContextUser(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithUser(context.Background(), &models.User{ID: "u-1"})
	u, ok := UserFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u-1", u.ID)
}
