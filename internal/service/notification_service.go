package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/univ-adm/faculte-api/internal/models"
	"github.com/univ-adm/faculte-api/pkg/jobs"
)

type notificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}

// NotificationSink delivers a notification to an external channel (mail,
// websocket push). The default sink only logs; delivery is fire-and-forget.
type NotificationSink interface {
	Deliver(ctx context.Context, notification models.Notification) error
}

// NotificationSinkFunc allows using plain functions as sinks.
type NotificationSinkFunc func(ctx context.Context, notification models.Notification) error

// Deliver implements NotificationSink.
func (f NotificationSinkFunc) Deliver(ctx context.Context, notification models.Notification) error {
	return f(ctx, notification)
}

// NotificationService persists notifications and dispatches delivery through
// a background queue. Notification failures never abort the operation that
// produced them.
type NotificationService struct {
	store  notificationStore
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService constructs the service. The queue may be nil, in
// which case delivery is skipped and only persistence happens.
func NewNotificationService(store notificationStore, queue *jobs.Queue, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{store: store, queue: queue, logger: logger}
}

// Notify persists a notification for the user and enqueues its delivery.
// Errors are logged, not returned: callers must not fail their own operation
// because a notification could not be recorded.
func (s *NotificationService) Notify(ctx context.Context, userID, title, message, link string) {
	notification := &models.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Title:   title,
		Message: message,
	}
	if link != "" {
		notification.Link = &link
	}
	if err := s.store.Create(ctx, notification); err != nil {
		s.logger.Warn("failed to persist notification",
			zap.String("user_id", userID), zap.Error(err))
		return
	}
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{
		ID:      notification.ID,
		Type:    "notification",
		Payload: *notification,
	}); err != nil {
		s.logger.Warn("failed to enqueue notification delivery",
			zap.String("notification_id", notification.ID), zap.Error(err))
	}
}

// ListForUser returns the user's notifications.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	return s.store.ListByUser(ctx, userID, limit)
}

// MarkRead flags a notification as read for its owner.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.store.MarkRead(ctx, userID, id)
}

// DeliveryHandler adapts a sink into a queue handler.
func DeliveryHandler(sink NotificationSink, logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, job jobs.Job) error {
		notification, ok := job.Payload.(models.Notification)
		if !ok {
			logger.Warn("notification job with unexpected payload", zap.String("job_id", job.ID))
			return nil
		}
		if sink == nil {
			logger.Debug("notification delivered to no-op sink", zap.String("notification_id", notification.ID))
			return nil
		}
		return sink.Deliver(ctx, notification)
	}
}
