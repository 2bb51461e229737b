package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contacts-service/internal/api/dto"
	"github.com/spec-kit/contacts-service/internal/service"
)

// AuthHandler exposes registration, login and email confirmation endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "username, email, password required")
	}
	if !strings.Contains(req.Email, "@") {
		return fiber.NewError(http.StatusBadRequest, "invalid email address")
	}

	user, err := h.auth.Register(c.UserContext(), req.Username, req.Email, req.Password, c.BaseURL())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewUserResponse(user))
}

// Login handles POST /auth/login. The body is form-encoded username+password.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Username == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "username and password required")
	}

	token, exp, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   exp,
	})
}

// ConfirmEmail handles GET /auth/confirmed_email/:token.
func (h *AuthHandler) ConfirmEmail(c *fiber.Ctx) error {
	token := c.Params("token")
	alreadyConfirmed, err := h.auth.ConfirmEmail(c.UserContext(), token)
	if err != nil {
		return err
	}
	if alreadyConfirmed {
		return c.JSON(dto.MessageResponse{Message: service.StatusEmailAlreadyVerified})
	}
	return c.JSON(dto.MessageResponse{Message: service.StatusEmailConfirmed})
}

// RequestEmail handles POST /auth/request_email. Always responds 200.
func (h *AuthHandler) RequestEmail(c *fiber.Ctx) error {
	var req dto.RequestEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email required")
	}

	status, err := h.auth.RequestConfirmationEmail(c.UserContext(), req.Email, c.BaseURL())
	if err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: status})
}

// RequestPasswordReset handles POST /auth/password/reset/request.
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req dto.RequestEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" {
		return fiber.NewError(http.StatusBadRequest, "email required")
	}

	status, err := h.auth.RequestPasswordReset(c.UserContext(), req.Email, c.BaseURL())
	if err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: status})
}

// ConfirmPasswordReset handles POST /auth/password/reset/confirm.
func (h *AuthHandler) ConfirmPasswordReset(c *fiber.Ctx) error {
	var req dto.PasswordResetConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Token == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "token and password required")
	}

	if err := h.auth.ConfirmPasswordReset(c.UserContext(), req.Token, req.Password); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "password updated"})
}
