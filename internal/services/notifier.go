package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/repos"
	"github.com/practicetrack/practicetrack-backend/internal/sse"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

// NotificationEvent is the transport-agnostic description of a notification
// a state change produced. Services return these; the notifier decides how
// they reach the recipient.
type NotificationEvent struct {
	RecipientID uuid.UUID
	EventType   string
	SubjectType string
	SubjectID   uuid.UUID
	DedupeKey   string
	Payload     map[string]any
}

// Notifier persists notification events and pushes them to connected
// clients. Dispatch is best effort: a failed insert or emit is logged and
// never fails the transition that produced the event.
type Notifier interface {
	Dispatch(ctx context.Context, events ...NotificationEvent)
}

type notifier struct {
	log           *logger.Logger
	notifications repos.NotificationRepo
	emit          SSEEmitter
}

func NewNotifier(baseLog *logger.Logger, notifications repos.NotificationRepo, emit SSEEmitter) Notifier {
	return &notifier{
		log:           baseLog.With("service", "Notifier"),
		notifications: notifications,
		emit:          emit,
	}
}

func (n *notifier) Dispatch(ctx context.Context, events ...NotificationEvent) {
	if n == nil {
		return
	}
	for _, ev := range events {
		n.dispatchOne(ctx, ev)
	}
}

func (n *notifier) dispatchOne(ctx context.Context, ev NotificationEvent) {
	if ev.RecipientID == uuid.Nil || ev.EventType == "" || ev.DedupeKey == "" {
		n.log.Warn("Skipping malformed notification event", "event_type", ev.EventType, "dedupe_key", ev.DedupeKey)
		return
	}

	var payload datatypes.JSON
	if ev.Payload != nil {
		raw, err := json.Marshal(ev.Payload)
		if err != nil {
			n.log.Warn("Failed to marshal notification payload", "event_type", ev.EventType, "error", err)
		} else {
			payload = datatypes.JSON(raw)
		}
	}

	row := &types.Notification{
		RecipientID: ev.RecipientID,
		EventType:   ev.EventType,
		SubjectType: ev.SubjectType,
		SubjectID:   ev.SubjectID,
		DedupeKey:   ev.DedupeKey,
		Payload:     payload,
	}

	inserted, err := n.notifications.CreateIfAbsent(ctx, nil, row)
	if err != nil {
		n.log.Warn("Failed to persist notification", "event_type", ev.EventType, "recipient_id", ev.RecipientID, "error", err)
		return
	}
	if !inserted {
		// Duplicate dispatch of the same event; the first one already
		// reached the recipient.
		return
	}

	if n.emit != nil {
		n.emit.Emit(ctx, sse.SSEMessage{
			Channel: ev.RecipientID.String(),
			Event:   sse.SSEEventNotificationCreated,
			Data: map[string]any{
				"notification_id": row.ID.String(),
				"event_type":      ev.EventType,
				"subject_type":    ev.SubjectType,
				"subject_id":      ev.SubjectID.String(),
				"payload":         ev.Payload,
			},
		})
	}
}

// NopNotifier swallows events. CLIs that only mutate rows use it.
type NopNotifier struct{}

func (NopNotifier) Dispatch(ctx context.Context, events ...NotificationEvent) {}
