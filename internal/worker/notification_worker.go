package worker

import (
	"github.com/ivd-portal/inscription-service/internal/events"
	"github.com/ivd-portal/inscription-service/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartEventFanout forwards every domain event to the message broker.
func StartEventFanout(dispatcher events.Dispatcher, publisher *events.AMQPPublisher) {
	if dispatcher == nil || publisher == nil {
		return
	}
	publisher.Register(dispatcher)
}
