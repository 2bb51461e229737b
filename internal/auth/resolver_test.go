package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/contacts-service/internal/domain"
	apperrors "github.com/spec-kit/contacts-service/pkg/util"
)

type fakeStore struct {
	users map[string]*domain.User
	calls int
}

func (s *fakeStore) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	s.calls++
	user, ok := s.users[username]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

type fakeCache struct {
	entries map[string]*domain.User
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*domain.User)}
}

func (c *fakeCache) Get(_ context.Context, username string) (*domain.User, error) {
	return c.entries[username], nil
}

func (c *fakeCache) Set(_ context.Context, user *domain.User) error {
	c.sets++
	c.entries[user.Username] = user
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, username string) error {
	delete(c.entries, username)
	return nil
}

func testUser() *domain.User {
	return &domain.User{ID: 1, Username: "deadpool", Email: "deadpool@example.com", Confirmed: true, Role: domain.RoleUser}
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, status, domainErr.HTTPStatus)
}

func TestResolve_CacheMissPopulatesCache(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", time.Hour, time.Hour)
	store := &fakeStore{users: map[string]*domain.User{"deadpool": testUser()}}
	cache := newFakeCache()
	resolver := NewResolver(tm, cache, store, zap.NewNop())

	token, _, err := tm.IssueAccessToken("deadpool", 0)
	require.NoError(t, err)

	user, err := resolver.Resolve(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "deadpool", user.Username)
	require.Equal(t, 1, store.calls)
	require.Equal(t, 1, cache.sets)

	// Second resolve within TTL is served from the cache.
	user, err = resolver.Resolve(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "deadpool", user.Username)
	require.Equal(t, 1, store.calls)
}

func TestResolve_CacheHitSkipsStore(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", time.Hour, time.Hour)
	store := &fakeStore{users: map[string]*domain.User{}}
	cache := newFakeCache()
	cache.entries["deadpool"] = testUser()
	resolver := NewResolver(tm, cache, store, zap.NewNop())

	token, _, err := tm.IssueAccessToken("deadpool", 0)
	require.NoError(t, err)

	user, err := resolver.Resolve(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "deadpool", user.Username)
	require.Zero(t, store.calls)
}

func TestResolve_InvalidToken(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", time.Hour, time.Hour)
	resolver := NewResolver(tm, newFakeCache(), &fakeStore{}, zap.NewNop())

	_, err := resolver.Resolve(context.Background(), "garbage")
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestResolve_ExpiredTokenSameError(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", time.Nanosecond, time.Hour)
	resolver := NewResolver(tm, newFakeCache(), &fakeStore{}, zap.NewNop())

	token, _, err := tm.IssueAccessToken("deadpool", 0)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	_, err = resolver.Resolve(context.Background(), token)
	requireStatus(t, err, http.StatusUnauthorized)

	_, otherErr := resolver.Resolve(context.Background(), "garbage")
	require.Equal(t, otherErr.Error(), err.Error())
}

func TestResolve_ConfirmationTokenRejected(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", time.Hour, time.Hour)
	store := &fakeStore{users: map[string]*domain.User{"deadpool": testUser()}}
	resolver := NewResolver(tm, newFakeCache(), store, zap.NewNop())

	token, _, err := tm.IssueConfirmationToken("deadpool@example.com")
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), token)
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestResolve_UnknownSubject(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", time.Hour, time.Hour)
	resolver := NewResolver(tm, newFakeCache(), &fakeStore{users: map[string]*domain.User{}}, zap.NewNop())

	token, _, err := tm.IssueAccessToken("ghost", 0)
	require.NoError(t, err)

	_, err = resolver.Resolve(context.Background(), token)
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	admin := testUser()
	admin.Role = domain.RoleAdmin

	got, err := RequireRole(admin, domain.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, admin, got)

	_, err = RequireRole(testUser(), domain.RoleAdmin)
	requireStatus(t, err, http.StatusForbidden)

	_, err = RequireRole(nil, domain.RoleAdmin)
	require.True(t, errors.As(err, new(*apperrors.DomainError)))
}
