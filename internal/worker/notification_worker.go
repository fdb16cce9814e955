package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/resolveiq/internal/config"
	"github.com/spec-kit/resolveiq/internal/events"
	"github.com/spec-kit/resolveiq/internal/service"
)

// StartNotificationWorker subscribes the notification handlers to dispatcher
// and returns the service. post may be nil to use the default HTTP client.
func StartNotificationWorker(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, post service.WebhookPoster) *service.NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	notifications := service.NewNotificationService(dispatcher, logger, cfg, post)
	notifications.RegisterHandlers()
	if cfg.WebhookURL == "" {
		logger.Info("notification webhook not configured; events are logged only")
	} else {
		logger.Info("notification webhook enabled")
	}
	return notifications
}
