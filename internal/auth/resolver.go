package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/contacts-service/internal/domain"
	apperrors "github.com/spec-kit/contacts-service/pkg/util"
)

// UserStore is the identity lookup the resolver needs from persistence.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}

// UserCache is an advisory read-through cache over identities. A miss means
// "unknown", never "does not exist".
type UserCache interface {
	Get(ctx context.Context, username string) (*domain.User, error)
	Set(ctx context.Context, user *domain.User) error
	Invalidate(ctx context.Context, username string) error
}

// Resolver turns a bearer token into an authenticated identity. Verification
// failures, expired tokens and unknown subjects all produce the same
// unauthenticated error so callers cannot probe for accounts.
type Resolver struct {
	tokens *TokenManager
	cache  UserCache
	users  UserStore
	logger *zap.Logger
}

// NewResolver constructs the resolver.
func NewResolver(tokens *TokenManager, cache UserCache, users UserStore, logger *zap.Logger) *Resolver {
	return &Resolver{tokens: tokens, cache: cache, users: users, logger: logger}
}

// Resolve verifies the token, consults the cache and falls back to the store,
// populating the cache on a miss.
func (r *Resolver) Resolve(ctx context.Context, token string) (*domain.User, error) {
	claims, err := r.tokens.Parse(token)
	if err != nil {
		return nil, errUnauthenticated()
	}
	if claims.Scope != ScopeAccess {
		return nil, errUnauthenticated()
	}
	username := claims.Subject

	if cached, err := r.cache.Get(ctx, username); err == nil && cached != nil {
		return cached, nil
	} else if err != nil {
		r.logger.Debug("identity cache lookup failed", zap.Error(err))
	}

	user, err := r.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errUnauthenticated()
		}
		return nil, apperrors.MapError(err)
	}

	if err := r.cache.Set(ctx, user); err != nil {
		r.logger.Warn("identity cache populate failed", zap.String("username", username), zap.Error(err))
	}
	return user, nil
}

func errUnauthenticated() error {
	return apperrors.NewUnauthenticated("could not validate credentials")
}
