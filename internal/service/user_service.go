package service

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/spec-kit/contacts-service/internal/auth"
	"github.com/spec-kit/contacts-service/internal/avatar"
	"github.com/spec-kit/contacts-service/internal/domain"
	"github.com/spec-kit/contacts-service/internal/repository"
	apperrors "github.com/spec-kit/contacts-service/pkg/util"
)

// UserService covers profile operations for authenticated users.
type UserService struct {
	users   repository.UserRepository
	storage avatar.Storage
	cache   auth.UserCache
	logger  *zap.Logger
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, storage avatar.Storage, cache auth.UserCache, logger *zap.Logger) *UserService {
	return &UserService{users: users, storage: storage, cache: cache, logger: logger}
}

// UpdateAvatar uploads the image to object storage, persists the resulting
// URL and drops the stale cache entry.
func (s *UserService) UpdateAvatar(ctx context.Context, user *domain.User, contentType string, body io.Reader, size int64) (*domain.User, error) {
	url, err := s.storage.Upload(ctx, user.Username, contentType, body, size)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	updated, err := s.users.UpdateAvatar(ctx, user.Email, url)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if err := s.cache.Invalidate(ctx, updated.Username); err != nil {
		s.logger.Warn("identity cache invalidate failed", zap.String("username", updated.Username), zap.Error(err))
	}
	return updated, nil
}
