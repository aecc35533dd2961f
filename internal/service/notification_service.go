package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ivd-portal/inscription-service/internal/config"
	"github.com/ivd-portal/inscription-service/internal/events"
)

// NotificationService turns domain events into notices for clubs and athletes.
// Delivery is stubbed: notices are logged where email or webhook would go.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventInscriptionRegistered, n.handleRegistered)
	n.dispatcher.Subscribe(events.EventInscriptionValidated, n.handleValidated)
	n.dispatcher.Subscribe(events.EventInscriptionFlagged, n.handleFlagged)
	n.dispatcher.Subscribe(events.EventInscriptionUnflagged, n.handleUnflagged)
}

func (n *NotificationService) handleRegistered(ctx context.Context, event events.Event) error {
	n.logger.Info("InscriptionRegistered", zap.String("inscription_id", event.InscriptionID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleValidated(ctx context.Context, event events.Event) error {
	n.logger.Info("InscriptionValidated", zap.String("inscription_id", event.InscriptionID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleFlagged(ctx context.Context, event events.Event) error {
	n.logger.Warn("InscriptionFlaggedForReview", zap.String("inscription_id", event.InscriptionID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleUnflagged(ctx context.Context, event events.Event) error {
	n.logger.Info("InscriptionReviewCleared", zap.String("inscription_id", event.InscriptionID))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("inscription_id", event.InscriptionID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("inscription_id", event.InscriptionID),
		zap.String("event_type", string(event.Type)))
}
