package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/contacts-service/internal/auth"
	"github.com/spec-kit/contacts-service/internal/config"
	"github.com/spec-kit/contacts-service/internal/domain"
	"github.com/spec-kit/contacts-service/internal/events"
	"github.com/spec-kit/contacts-service/internal/repository"
	apperrors "github.com/spec-kit/contacts-service/pkg/util"
)

type memUserRepo struct {
	mu        sync.Mutex
	seq       int64
	byEmail   map[string]*domain.User
	createErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byEmail: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	user.ID = r.seq
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.byEmail[user.Email] = user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byEmail {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *memUserRepo) ConfirmEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byEmail[email]
	if !ok {
		return pgx.ErrNoRows
	}
	user.Confirmed = true
	return nil
}

func (r *memUserRepo) UpdateAvatar(_ context.Context, email, url string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	user.Avatar = &url
	return user, nil
}

func (r *memUserRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byEmail {
		if user.ID == id {
			user.PasswordHash = passwordHash
			return nil
		}
	}
	return pgx.ErrNoRows
}

type memResetRepo struct {
	mu      sync.Mutex
	seq     int64
	byToken map[string]*repository.PasswordResetToken
}

func newMemResetRepo() *memResetRepo {
	return &memResetRepo{byToken: make(map[string]*repository.PasswordResetToken)}
}

func (r *memResetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	token.ID = r.seq
	token.CreatedAt = time.Now()
	r.byToken[token.Token] = token
	return nil
}

func (r *memResetRepo) GetByToken(_ context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.byToken[tokenStr]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return token, nil
}

func (r *memResetRepo) MarkUsed(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, token := range r.byToken {
		if token.ID == id {
			token.UsedAt = &now
			return nil
		}
	}
	return pgx.ErrNoRows
}

type memCache struct {
	mu      sync.Mutex
	entries map[string]*domain.User
	drops   []string
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]*domain.User)}
}

func (c *memCache) Get(_ context.Context, username string) (*domain.User, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[username], nil
}

func (c *memCache) Set(_ context.Context, user *domain.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[user.Username] = user
	return nil
}

func (c *memCache) Invalidate(_ context.Context, username string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, username)
	c.drops = append(c.drops, username)
	return nil
}

type stubAvatars struct {
	url string
	err error
}

func (s stubAvatars) URL(string) (string, error) {
	return s.url, s.err
}

func testConfig() config.Config {
	return config.Config{Auth: config.AuthConfig{
		JWTSecret:               "test-secret",
		AccessTokenTTLSeconds:   3600,
		ConfirmTokenTTLHours:    168,
		PasswordResetTTLMinutes: 30,
		BcryptCost:              bcrypt.MinCost,
	}}
}

type authFixture struct {
	svc        *AuthService
	users      *memUserRepo
	resets     *memResetRepo
	cache      *memCache
	dispatched chan events.Event
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	users := newMemUserRepo()
	resets := newMemResetRepo()
	userCache := newMemCache()
	dispatcher := events.NewInMemoryDispatcher()
	dispatched := make(chan events.Event, 8)

	record := func(_ context.Context, event events.Event) error {
		dispatched <- event
		return nil
	}
	dispatcher.Subscribe(events.EventConfirmationRequested, record)
	dispatcher.Subscribe(events.EventPasswordResetRequested, record)

	svc := NewAuthService(testConfig(), AuthDependencies{
		UserRepo:          users,
		PasswordResetRepo: resets,
		Cache:             userCache,
		Avatars:           stubAvatars{url: "https://www.gravatar.com/avatar/abc"},
		Dispatcher:        dispatcher,
		Logger:            zap.NewNop(),
	})
	return &authFixture{svc: svc, users: users, resets: resets, cache: userCache, dispatched: dispatched}
}

func (f *authFixture) waitForEvent(t *testing.T, eventType events.EventType) events.Event {
	t.Helper()
	select {
	case event := <-f.dispatched:
		require.Equal(t, eventType, event.Type)
		return event
	case <-time.After(2 * time.Second):
		t.Fatalf("no %s event dispatched", eventType)
		return events.Event{}
	}
}

func requireHTTPStatus(t *testing.T, err error, status int) {
	t.Helper()
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, status, domainErr.HTTPStatus)
}

func TestRegister_Success(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	user, err := f.svc.Register(context.Background(), "deadpool", "deadpool@example.com", "12345678", "http://localhost:8080")
	require.NoError(t, err)
	require.Equal(t, domain.RoleUser, user.Role)
	require.False(t, user.Confirmed)
	require.NotNil(t, user.Avatar)
	require.NotEqual(t, "12345678", user.PasswordHash)

	event := f.waitForEvent(t, events.EventConfirmationRequested)
	payload, ok := event.Payload.(events.ConfirmationRequestedPayload)
	require.True(t, ok)
	require.Equal(t, "deadpool@example.com", payload.Email)
	require.Equal(t, "http://localhost:8080", payload.BaseURL)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), "deadpool", "deadpool@example.com", "12345678", "")
	require.NoError(t, err)

	_, err = f.svc.Register(context.Background(), "wolverine", "deadpool@example.com", "12345678", "")
	requireHTTPStatus(t, err, http.StatusConflict)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), "deadpool", "deadpool@example.com", "12345678", "")
	require.NoError(t, err)

	_, err = f.svc.Register(context.Background(), "deadpool", "other@example.com", "12345678", "")
	requireHTTPStatus(t, err, http.StatusConflict)
}

func TestRegister_ConstraintRaceConvertedToConflict(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)
	f.users.createErr = &repository.DuplicateError{Constraint: repository.ConstraintUserEmail}

	_, err := f.svc.Register(context.Background(), "deadpool", "deadpool@example.com", "12345678", "")
	requireHTTPStatus(t, err, http.StatusConflict)
}

func TestRegister_AvatarLookupFailureSwallowed(t *testing.T) {
	t.Parallel()

	users := newMemUserRepo()
	svc := NewAuthService(testConfig(), AuthDependencies{
		UserRepo:          users,
		PasswordResetRepo: newMemResetRepo(),
		Cache:             newMemCache(),
		Avatars:           stubAvatars{err: errors.New("gravatar unreachable")},
		Dispatcher:        events.NewInMemoryDispatcher(),
		Logger:            zap.NewNop(),
	})

	user, err := svc.Register(context.Background(), "deadpool", "deadpool@example.com", "12345678", "")
	require.NoError(t, err)
	require.Nil(t, user.Avatar)
}

func TestLogin_BeforeConfirmationFails(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), "deadpool", "deadpool@example.com", "12345678", "")
	require.NoError(t, err)

	_, _, err = f.svc.Login(context.Background(), "deadpool", "12345678")
	requireHTTPStatus(t, err, http.StatusUnauthorized)
}

func TestLogin_UnknownUserAndBadPasswordSameError(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), "deadpool", "deadpool@example.com", "12345678", "")
	require.NoError(t, err)

	_, _, unknownErr := f.svc.Login(context.Background(), "ghost", "12345678")
	requireHTTPStatus(t, unknownErr, http.StatusUnauthorized)

	_, _, badPassErr := f.svc.Login(context.Background(), "deadpool", "wrong-password")
	requireHTTPStatus(t, badPassErr, http.StatusUnauthorized)

	require.Equal(t, unknownErr.Error(), badPassErr.Error())
}

func TestLogin_AfterConfirmation(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), "deadpool", "deadpool@example.com", "12345678", "")
	require.NoError(t, err)
	require.NoError(t, f.users.ConfirmEmail(context.Background(), "deadpool@example.com"))

	token, exp, err := f.svc.Login(context.Background(), "deadpool", "12345678")
	require.NoError(t, err)
	require.True(t, exp.After(time.Now()))

	claims, err := f.svc.TokenManager().Parse(token)
	require.NoError(t, err)
	require.Equal(t, "deadpool", claims.Subject)
	require.Equal(t, auth.ScopeAccess, claims.Scope)
}

func TestConfirmEmail_InvalidToken(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	_, err := f.svc.ConfirmEmail(context.Background(), "garbage")
	requireHTTPStatus(t, err, http.StatusUnprocessableEntity)
}

func TestConfirmEmail_AccessTokenRejected(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	token, _, err := f.svc.TokenManager().IssueAccessToken("deadpool", 0)
	require.NoError(t, err)

	_, err = f.svc.ConfirmEmail(context.Background(), token)
	requireHTTPStatus(t, err, http.StatusUnprocessableEntity)
}

func TestConfirmEmail_UnknownUser(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	token, _, err := f.svc.TokenManager().IssueConfirmationToken("ghost@example.com")
	require.NoError(t, err)

	_, err = f.svc.ConfirmEmail(context.Background(), token)
	requireHTTPStatus(t, err, http.StatusBadRequest)
}

func TestConfirmEmail_Idempotent(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), "deadpool", "deadpool@example.com", "12345678", "")
	require.NoError(t, err)

	token, _, err := f.svc.TokenManager().IssueConfirmationToken("deadpool@example.com")
	require.NoError(t, err)

	already, err := f.svc.ConfirmEmail(context.Background(), token)
	require.NoError(t, err)
	require.False(t, already)
	require.Contains(t, f.cache.drops, "deadpool")

	already, err = f.svc.ConfirmEmail(context.Background(), token)
	require.NoError(t, err)
	require.True(t, already)
}

func TestRequestConfirmationEmail_Statuses(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	status, err := f.svc.RequestConfirmationEmail(context.Background(), "ghost@example.com", "")
	require.NoError(t, err)
	require.Equal(t, StatusEmailNotFound, status)

	_, err = f.svc.Register(context.Background(), "deadpool", "deadpool@example.com", "12345678", "http://localhost")
	require.NoError(t, err)
	f.waitForEvent(t, events.EventConfirmationRequested)

	status, err = f.svc.RequestConfirmationEmail(context.Background(), "deadpool@example.com", "http://localhost")
	require.NoError(t, err)
	require.Equal(t, StatusCheckYourEmail, status)
	f.waitForEvent(t, events.EventConfirmationRequested)

	require.NoError(t, f.users.ConfirmEmail(context.Background(), "deadpool@example.com"))
	status, err = f.svc.RequestConfirmationEmail(context.Background(), "deadpool@example.com", "http://localhost")
	require.NoError(t, err)
	require.Equal(t, StatusEmailAlreadyVerified, status)
}

func TestPasswordReset_EndToEnd(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	_, err := f.svc.Register(context.Background(), "deadpool", "deadpool@example.com", "12345678", "")
	require.NoError(t, err)
	require.NoError(t, f.users.ConfirmEmail(context.Background(), "deadpool@example.com"))
	f.waitForEvent(t, events.EventConfirmationRequested)

	status, err := f.svc.RequestPasswordReset(context.Background(), "deadpool@example.com", "")
	require.NoError(t, err)
	require.Equal(t, StatusResetEmailSent, status)

	event := f.waitForEvent(t, events.EventPasswordResetRequested)
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	require.True(t, ok)

	require.NoError(t, f.svc.ConfirmPasswordReset(context.Background(), payload.Token, "newpassword"))

	_, _, err = f.svc.Login(context.Background(), "deadpool", "12345678")
	requireHTTPStatus(t, err, http.StatusUnauthorized)

	_, _, err = f.svc.Login(context.Background(), "deadpool", "newpassword")
	require.NoError(t, err)

	// A reset token is single use.
	err = f.svc.ConfirmPasswordReset(context.Background(), payload.Token, "another")
	requireHTTPStatus(t, err, http.StatusUnprocessableEntity)
}

func TestPasswordReset_UnknownEmailBenign(t *testing.T) {
	t.Parallel()
	f := newAuthFixture(t)

	status, err := f.svc.RequestPasswordReset(context.Background(), "ghost@example.com", "")
	require.NoError(t, err)
	require.Equal(t, StatusResetEmailSent, status)
}
