package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered         EventType = "user_registered"
	EventConfirmationRequested  EventType = "email_confirmation_requested"
	EventPasswordResetRequested EventType = "password_reset_requested"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ConfirmationRequestedPayload carries what the mail worker needs to build
// and send a confirmation email. Emitted both on registration and on an
// explicit re-request.
type ConfirmationRequestedPayload struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	BaseURL  string `json:"base_url"`
}

// PasswordResetRequestedPayload carries the single-use reset token.
type PasswordResetRequestedPayload struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Token    string `json:"token"`
	BaseURL  string `json:"base_url"`
}
