package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/contacts-service/internal/auth"
	"github.com/spec-kit/contacts-service/internal/avatar"
	"github.com/spec-kit/contacts-service/internal/config"
	"github.com/spec-kit/contacts-service/internal/domain"
	"github.com/spec-kit/contacts-service/internal/events"
	"github.com/spec-kit/contacts-service/internal/repository"
	apperrors "github.com/spec-kit/contacts-service/pkg/util"
)

// Benign statuses returned by the idempotent email endpoints.
const (
	StatusEmailNotFound        = "user with this email was not found"
	StatusEmailAlreadyVerified = "your email is already confirmed"
	StatusEmailConfirmed       = "email confirmed"
	StatusCheckYourEmail       = "check your email for confirmation"
	StatusResetEmailSent       = "check your email for reset instructions"
)

// AuthService coordinates registration, login, email confirmation and
// password reset flows.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	cache      auth.UserCache
	avatars    avatar.Lookup
	dispatcher events.Dispatcher
	tokenMgr   *auth.TokenManager
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
}

// AuthDependencies encapsulates collaborator requirements for auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	Cache             auth.UserCache
	Avatars           avatar.Lookup
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		resets:     deps.PasswordResetRepo,
		cache:      deps.Cache,
		avatars:    deps.Avatars,
		dispatcher: deps.Dispatcher,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL(), cfg.Auth.ConfirmTokenTTL()),
		logger:     deps.Logger,
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   cfg.Auth.PasswordResetTTL(),
	}
}

// Register creates a new account and schedules the confirmation email.
// Email is checked before username; the first conflict wins. A concurrent
// registration racing past both checks is caught at the unique constraint
// and reported as the same conflict.
func (s *AuthService) Register(ctx context.Context, username, email, password, baseURL string) (*domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("user with this email already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.NewConflict("user with this name already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Confirmed:    false,
		Role:         domain.RoleUser,
	}

	// Best effort: a failed avatar lookup never blocks registration.
	if avatarURL, err := s.avatars.URL(email); err != nil {
		s.logger.Warn("avatar lookup failed", zap.String("email", email), zap.Error(err))
	} else {
		user.Avatar = &avatarURL
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, s.conflictFromDuplicate(err)
	}

	s.dispatchAsync(events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventConfirmationRequested,
		Timestamp: time.Now(),
		Payload: events.ConfirmationRequestedPayload{
			Email:    user.Email,
			Username: user.Username,
			BaseURL:  baseURL,
		},
	})

	return user, nil
}

// Login authenticates by username and password. Unknown users and wrong
// passwords produce the identical error; an unconfirmed email gets its own
// message but the same status.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, apperrors.NewUnauthenticated("incorrect username or password")
		}
		return "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return "", time.Time{}, apperrors.NewUnauthenticated("incorrect username or password")
	}
	if !user.Confirmed {
		return "", time.Time{}, apperrors.NewUnauthenticated("email address not confirmed")
	}

	token, exp, err := s.tokenMgr.IssueAccessToken(user.Username, 0)
	if err != nil {
		return "", time.Time{}, apperrors.MapError(err)
	}
	return token, exp, nil
}

// ConfirmEmail validates a confirmation token and marks the account
// confirmed. Confirming twice is not an error; the second call reports that
// the email was already confirmed without re-mutating.
func (s *AuthService) ConfirmEmail(ctx context.Context, tokenStr string) (alreadyConfirmed bool, err error) {
	claims, err := s.tokenMgr.Parse(tokenStr)
	if err != nil || claims.Scope != auth.ScopeEmailConfirm {
		return false, apperrors.NewUnprocessable("invalid email verification token")
	}

	// Confirmation tokens carry the email as subject, not the username.
	email := claims.Subject
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, apperrors.NewValidationError("verification error", nil)
		}
		return false, apperrors.MapError(err)
	}

	if user.Confirmed {
		return true, nil
	}

	if err := s.users.ConfirmEmail(ctx, email); err != nil {
		return false, apperrors.MapError(err)
	}
	s.invalidateCache(ctx, user.Username)
	return false, nil
}

// RequestConfirmationEmail re-sends the verification link. Idempotent: an
// absent user and an already-confirmed user both get a benign status.
func (s *AuthService) RequestConfirmationEmail(ctx context.Context, email, baseURL string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StatusEmailNotFound, nil
		}
		return "", apperrors.MapError(err)
	}
	if user.Confirmed {
		return StatusEmailAlreadyVerified, nil
	}

	s.dispatchAsync(events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventConfirmationRequested,
		Timestamp: time.Now(),
		Payload: events.ConfirmationRequestedPayload{
			Email:    user.Email,
			Username: user.Username,
			BaseURL:  baseURL,
		},
	})
	return StatusCheckYourEmail, nil
}

// RequestPasswordReset issues a single-use reset token. Absent accounts get
// the same benign status as existing ones.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, baseURL string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StatusResetEmailSent, nil
		}
		return "", apperrors.MapError(err)
	}

	token := &repository.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return "", apperrors.MapError(err)
	}

	s.dispatchAsync(events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventPasswordResetRequested,
		Timestamp: time.Now(),
		Payload: events.PasswordResetRequestedPayload{
			Email:    user.Email,
			Username: user.Username,
			Token:    token.Token,
			BaseURL:  baseURL,
		},
	})
	return StatusResetEmailSent, nil
}

// ConfirmPasswordReset validates the reset token and replaces the hash.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnprocessable("invalid or expired reset token")
		}
		return apperrors.MapError(err)
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewUnprocessable("invalid or expired reset token")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
		return apperrors.MapError(err)
	}
	s.invalidateCache(ctx, user.Username)
	return nil
}

// TokenManager exposes the underlying token manager for middleware and the
// mail worker.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) conflictFromDuplicate(err error) error {
	dup, ok := repository.AsDuplicate(err)
	if !ok {
		return apperrors.MapError(err)
	}
	switch dup.Constraint {
	case repository.ConstraintUserEmail:
		return apperrors.NewConflict("user with this email already exists", nil)
	case repository.ConstraintUserUsername:
		return apperrors.NewConflict("user with this name already exists", nil)
	default:
		return apperrors.NewConflict("duplicate value", map[string]any{"constraint": dup.Constraint})
	}
}

// dispatchAsync publishes after the response path, detached from the request
// context. Handler failures are logged by the handlers, never surfaced here.
func (s *AuthService) dispatchAsync(event events.Event) {
	go func() {
		_ = s.dispatcher.Publish(context.Background(), event)
	}()
}

func (s *AuthService) invalidateCache(ctx context.Context, username string) {
	if err := s.cache.Invalidate(ctx, username); err != nil {
		s.logger.Warn("identity cache invalidate failed", zap.String("username", username), zap.Error(err))
	}
}
