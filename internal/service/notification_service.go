package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/contacts-service/internal/auth"
	"github.com/spec-kit/contacts-service/internal/events"
	"github.com/spec-kit/contacts-service/internal/mail"
)

// NotificationService turns account events into outbound emails. Delivery is
// at-most-once: failures are logged and dropped, never retried.
type NotificationService struct {
	dispatcher events.Dispatcher
	tokens     *auth.TokenManager
	mailer     mail.Mailer
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, tokens *auth.TokenManager, mailer mail.Mailer, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		tokens:     tokens,
		mailer:     mailer,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventConfirmationRequested, n.handleConfirmationRequested)
	n.dispatcher.Subscribe(events.EventPasswordResetRequested, n.handlePasswordResetRequested)
}

func (n *NotificationService) handleConfirmationRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ConfirmationRequestedPayload)
	if !ok {
		n.logger.Error("unexpected payload type", zap.String("event_type", string(event.Type)))
		return nil
	}

	token, _, err := n.tokens.IssueConfirmationToken(payload.Email)
	if err != nil {
		n.logger.Error("issue confirmation token failed", zap.String("email", payload.Email), zap.Error(err))
		return nil
	}

	// Transport errors are swallowed here; the registration response has
	// already been sent.
	if err := n.mailer.SendConfirmation(ctx, payload.Email, payload.Username, token, payload.BaseURL); err != nil {
		n.logger.Error("send confirmation email failed", zap.String("email", payload.Email), zap.Error(err))
	}
	return nil
}

func (n *NotificationService) handlePasswordResetRequested(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PasswordResetRequestedPayload)
	if !ok {
		n.logger.Error("unexpected payload type", zap.String("event_type", string(event.Type)))
		return nil
	}

	if err := n.mailer.SendPasswordReset(ctx, payload.Email, payload.Username, payload.Token); err != nil {
		n.logger.Error("send password reset email failed", zap.String("email", payload.Email), zap.Error(err))
	}
	return nil
}
