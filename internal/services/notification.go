package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/repos"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

// NotificationService is the read side of the notification feed.
type NotificationService interface {
	List(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]*types.Notification, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error
}

type notificationService struct {
	db            *gorm.DB
	log           *logger.Logger
	notifications repos.NotificationRepo
}

func NewNotificationService(db *gorm.DB, log *logger.Logger, notifications repos.NotificationRepo) NotificationService {
	return &notificationService{
		db:            db,
		log:           log.With("service", "NotificationService"),
		notifications: notifications,
	}
}

func (ns *notificationService) List(ctx context.Context, recipientID uuid.UUID, unreadOnly bool) ([]*types.Notification, error) {
	rows, err := ns.notifications.ListByRecipientID(ctx, nil, recipientID, unreadOnly)
	if err != nil {
		return nil, apierr.AsError(err)
	}
	return rows, nil
}

func (ns *notificationService) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	if err := ns.notifications.MarkRead(ctx, nil, notificationID, recipientID); err != nil {
		return apierr.AsError(err)
	}
	return nil
}
