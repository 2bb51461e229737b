package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contacts-service/internal/api/dto"
	"github.com/spec-kit/contacts-service/internal/auth"
	"github.com/spec-kit/contacts-service/internal/service"
	apperrors "github.com/spec-kit/contacts-service/pkg/util"
)

const maxAvatarBytes = 5 << 20

// UsersHandler exposes profile endpoints for authenticated users.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// Me handles GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthenticated("could not validate credentials")
	}
	return c.JSON(dto.NewUserResponse(user))
}

// UpdateAvatar handles PATCH /users/avatar with a multipart file field.
func (h *UsersHandler) UpdateAvatar(c *fiber.Ctx) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthenticated("could not validate credentials")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "avatar file required")
	}
	if fileHeader.Size > maxAvatarBytes {
		return fiber.NewError(http.StatusBadRequest, "avatar file too large")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.MapError(err)
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	updated, err := h.users.UpdateAvatar(c.UserContext(), user, contentType, file, fileHeader.Size)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(updated))
}
