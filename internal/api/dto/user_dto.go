package dto

import (
	"time"

	"github.com/spec-kit/contacts-service/internal/domain"
)

// UserRegisterRequest payload for new accounts.
type UserRegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserLoginRequest is form-encoded per the OAuth2 password flow.
type UserLoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// TokenResponse is the login response body.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// RequestEmailRequest asks for a fresh confirmation or reset email.
type RequestEmailRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest carries the reset token and new password.
type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// MessageResponse is a plain status message body.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse is the public identity representation.
type UserResponse struct {
	ID        int64           `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Confirmed bool            `json:"confirmed"`
	Avatar    *string         `json:"avatar"`
	Role      domain.UserRole `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewUserResponse maps the domain model to its public representation.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Confirmed: user.Confirmed,
		Avatar:    user.Avatar,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
