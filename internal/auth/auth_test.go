package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/review-runner/internal/apperr"
	"github.com/nimasrn/review-runner/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/workos/workos-go/v6/pkg/usermanagement"
)

func newSessionStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionStore(redis.FromClient(client, "rr:"), time.Hour), mr
}

func TestSessionStore(t *testing.T) {
	store, mr := newSessionStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, &Identity{ProviderUserID: "user_01", Email: "a@example.com", Roles: []string{RoleAdmin}})
	require.NoError(t, err)
	assert.Len(t, token, 36)
	assert.Equal(t, time.Hour, mr.TTL("rr:session:"+token))

	got, err := store.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user_01", got.ProviderUserID)
	assert.Empty(t, got.Roles)

	require.NoError(t, store.Delete(ctx, token))
	_, err = store.Get(ctx, token)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.Get(ctx, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_Expires(t *testing.T) {
	store, mr := newSessionStore(t)
	ctx := context.Background()

	token, err := store.Create(ctx, &Identity{ProviderUserID: "user_01"})
	require.NoError(t, err)
	mr.FastForward(2 * time.Hour)

	_, err = store.Get(ctx, token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) Get(ctx context.Context, token string) (*Identity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Identity), args.Error(1)
}

func TestResolver(t *testing.T) {
	ctx := context.Background()
	sessions := &mockSessions{}
	sessions.On("Get", ctx, "admin-token").Return(&Identity{ProviderUserID: "user_admin"}, nil)
	sessions.On("Get", ctx, "user-token").Return(&Identity{ProviderUserID: "user_01"}, nil)
	sessions.On("Get", ctx, "stale").Return(nil, ErrSessionNotFound)
	sessions.On("Get", ctx, "broken").Return(nil, errors.New("redis down"))

	r := NewResolver(sessions, []string{"user_admin"})

	id, err := r.Resolve(ctx, "admin-token")
	require.NoError(t, err)
	assert.True(t, id.HasRole(RoleAdmin))

	id, err = r.Resolve(ctx, "user-token")
	require.NoError(t, err)
	assert.False(t, id.HasRole(RoleAdmin))

	for _, token := range []string{"", "stale", "broken"} {
		_, err := r.Resolve(ctx, token)
		assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated), token)
	}
}

type fakeExchanger struct {
	user usermanagement.User
	err  error
}

func (f fakeExchanger) AuthenticateWithCode(_ context.Context, _ usermanagement.AuthenticateWithCodeOpts) (usermanagement.AuthenticateResponse, error) {
	return usermanagement.AuthenticateResponse{User: f.user}, f.err
}

func TestAuthenticator_Callback(t *testing.T) {
	store, _ := newSessionStore(t)
	ctx := context.Background()
	cfg := WorkOSConfig{APIKey: "sk_test", ClientID: "client_01", RedirectURI: "http://localhost/auth/callback"}

	t.Run("creates a session", func(t *testing.T) {
		a := NewAuthenticator(cfg, store).WithExchanger(fakeExchanger{user: usermanagement.User{
			ID: "user_01", Email: "jane@example.com", FirstName: "Jane", LastName: "Doe",
		}})
		token, identity, err := a.Callback(ctx, "code")
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", identity.Name)

		stored, err := store.Get(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "user_01", stored.ProviderUserID)

		require.NoError(t, a.Logout(ctx, token))
		_, err = store.Get(ctx, token)
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("rejected code", func(t *testing.T) {
		a := NewAuthenticator(cfg, store).WithExchanger(fakeExchanger{err: errors.New("invalid_grant")})
		_, _, err := a.Callback(ctx, "bad")
		assert.ErrorIs(t, err, ErrInvalidCode)
		assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))
	})

	t.Run("missing configuration", func(t *testing.T) {
		a := NewAuthenticator(WorkOSConfig{}, store)
		_, _, err := a.Callback(ctx, "code")
		assert.True(t, apperr.IsKind(err, apperr.KindDependency))
		_, err = a.AuthorizationURL("state")
		assert.True(t, apperr.IsKind(err, apperr.KindDependency))
	})
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Jane", displayName(usermanagement.User{FirstName: "Jane"}))
	assert.Equal(t, "Doe", displayName(usermanagement.User{LastName: "Doe"}))
	assert.Equal(t, "j@example.com", displayName(usermanagement.User{Email: "j@example.com"}))
}

func TestTokenFromRequest(t *testing.T) {
	var ctx fasthttp.RequestCtx
	assert.Empty(t, TokenFromRequest(&ctx))

	ctx.Request.Header.SetCookie(SessionCookie, "cookie-token")
	assert.Equal(t, "cookie-token", TokenFromRequest(&ctx))

	ctx.Request.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", TokenFromRequest(&ctx))
}

func TestIsPublicPath(t *testing.T) {
	public := []string{"/", "/api/health", "/r/abc", "/r/unsubscribe/abc", "/api/webhooks/email", "/auth/login"}
	protected := []string{"/api/v1/customers", "/api/v1/analytics", "/api/healthz", "/r", "/authx"}
	for _, p := range public {
		assert.True(t, IsPublicPath(p), p)
	}
	for _, p := range protected {
		assert.False(t, IsPublicPath(p), p)
	}
}
