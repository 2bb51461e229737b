package worker

import (
	"github.com/spec-kit/contacts-service/internal/service"
)

// StartMailWorker registers outbound email handlers.
func StartMailWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
