package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quickbar/internal/auth"
	"quickbar/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCredentials map[string]string

func (c staticCredentials) Verify(_ context.Context, email, password string) (auth.Identity, error) {
	if want, ok := c[email]; ok && want == password {
		return auth.Identity{UID: "uid-" + email, Email: email}, nil
	}
	return auth.Identity{}, auth.ErrInvalidCredentials
}

func newAuthService(t *testing.T) (*auth.Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger, _ := test.NewNullLogger()
	return auth.NewService(
		staticCredentials{"bar@example.com": "secret1"},
		auth.NewTokenIssuer("test-secret", time.Hour),
		storage.NewRedisRevocations(client),
		logger,
	), mr
}

func TestService_SignInSignOut(t *testing.T) {
	ctx := context.Background()
	svc, mr := newAuthService(t)

	_, err := svc.SignIn(ctx, "bar@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	session, err := svc.SignIn(ctx, "bar@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "uid-bar@example.com", session.Identity.UID)

	current, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, current.ID)
	assert.Equal(t, session.Identity, current.Identity)

	ended, err := svc.SignOut(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.ID, ended.ID)
	assert.True(t, mr.Exists("revoked:"+session.ID))
	assert.Greater(t, mr.TTL("revoked:"+session.ID), time.Duration(0))

	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestService_SignOutInvalidToken(t *testing.T) {
	svc, _ := newAuthService(t)

	ended, err := svc.SignOut(context.Background(), "not-a-token")
	assert.NoError(t, err)
	assert.Empty(t, ended.ID)
}

func TestService_Authenticate(t *testing.T) {
	svc, _ := newAuthService(t)
	other := auth.NewTokenIssuer("other-secret", time.Hour)
	foreign, _, err := other.Issue(auth.Identity{UID: "uid-1", Email: "a@b.c"})
	require.NoError(t, err)
	expiredIssuer := auth.NewTokenIssuer("test-secret", -time.Minute)
	expired, _, err := expiredIssuer.Issue(auth.Identity{UID: "uid-1", Email: "a@b.c"})
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "abc.def.ghi",
		"wrong secret": foreign,
		"expired":      expired,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Authenticate(context.Background(), token)
			assert.ErrorIs(t, err, auth.ErrUnauthenticated)
		})
	}
}

func TestService_AuthenticateRevocationStoreDown(t *testing.T) {
	ctx := context.Background()
	svc, mr := newAuthService(t)
	session, err := svc.SignIn(ctx, "bar@example.com", "secret1")
	require.NoError(t, err)

	mr.SetError("LOADING")
	_, err = svc.Authenticate(ctx, session.Token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestMiddleware(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAuthService(t)
	session, err := svc.SignIn(ctx, "bar@example.com", "secret1")
	require.NoError(t, err)

	var seen auth.Session
	var found bool
	handler := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, found = auth.SessionFromContext(r.Context())
	}))

	tests := []struct {
		name      string
		prepare   func(*http.Request)
		wantFound bool
	}{
		{name: "no token", prepare: func(*http.Request) {}},
		{name: "bearer", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+session.Token) }, wantFound: true},
		{name: "cookie", prepare: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: session.Token}) }, wantFound: true},
		{name: "bad token", prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			seen, found = auth.Session{}, false
			req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
			testCase.prepare(req)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, testCase.wantFound, found)
			if testCase.wantFound {
				assert.Equal(t, session.ID, seen.ID)
				assert.Equal(t, session.Token, seen.Token)
			}
		})
	}
}
