package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/repos"
	"github.com/practicetrack/practicetrack-backend/internal/sse"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

type SupportService interface {
	OpenTicket(ctx context.Context, userID uuid.UUID, subject, body, priority string) (*types.SupportTicket, error)
	GetTicket(ctx context.Context, actorID uuid.UUID, isAdmin bool, ticketID uuid.UUID) (*types.SupportTicket, error)
	ListTickets(ctx context.Context, userID uuid.UUID) ([]*types.SupportTicket, error)
	ListTicketsByStatus(ctx context.Context, status string) ([]*types.SupportTicket, error)
	Reply(ctx context.Context, authorID uuid.UUID, isAdmin bool, ticketID uuid.UUID, body string) (*types.SupportTicketMessage, error)
	SetStatus(ctx context.Context, ticketID uuid.UUID, status string) (*types.SupportTicket, error)
}

type supportService struct {
	db      *gorm.DB
	log     *logger.Logger
	tickets repos.SupportTicketRepo
	emit    SSEEmitter
}

func NewSupportService(db *gorm.DB, log *logger.Logger, tickets repos.SupportTicketRepo, emit SSEEmitter) SupportService {
	return &supportService{
		db:      db,
		log:     log.With("service", "SupportService"),
		tickets: tickets,
		emit:    emit,
	}
}

func (ss *supportService) OpenTicket(ctx context.Context, userID uuid.UUID, subject, body, priority string) (*types.SupportTicket, error) {
	subject = strings.TrimSpace(subject)
	body = strings.TrimSpace(body)
	if subject == "" || body == "" {
		return nil, apierr.Validation("subject and body are required")
	}
	if priority == "" {
		priority = types.ReviewPriorityMedium
	}
	switch priority {
	case types.ReviewPriorityLow, types.ReviewPriorityMedium, types.ReviewPriorityHigh:
	default:
		return nil, apierr.Validation("invalid priority %q", priority)
	}

	row := &types.SupportTicket{
		UserID:   userID,
		Subject:  subject,
		Body:     body,
		Status:   types.TicketStatusOpen,
		Priority: priority,
	}
	if _, err := ss.tickets.Create(ctx, nil, row); err != nil {
		return nil, apierr.AsError(err)
	}
	ss.log.Info("support ticket opened", "ticket_id", row.ID, "user_id", userID)
	return row, nil
}

func (ss *supportService) GetTicket(ctx context.Context, actorID uuid.UUID, isAdmin bool, ticketID uuid.UUID) (*types.SupportTicket, error) {
	row, err := ss.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && row.UserID != actorID {
		return nil, apierr.Forbidden("ticket %s belongs to another user", ticketID)
	}
	return row, nil
}

func (ss *supportService) ListTickets(ctx context.Context, userID uuid.UUID) ([]*types.SupportTicket, error) {
	rows, err := ss.tickets.ListByUserID(ctx, nil, userID)
	if err != nil {
		return nil, apierr.AsError(err)
	}
	return rows, nil
}

func (ss *supportService) ListTicketsByStatus(ctx context.Context, status string) ([]*types.SupportTicket, error) {
	if status != "" && !types.ValidTicketStatus(status) {
		return nil, apierr.Validation("invalid ticket status %q", status)
	}
	rows, err := ss.tickets.ListByStatus(ctx, nil, status)
	if err != nil {
		return nil, apierr.AsError(err)
	}
	return rows, nil
}

func (ss *supportService) Reply(ctx context.Context, authorID uuid.UUID, isAdmin bool, ticketID uuid.UUID, body string) (*types.SupportTicketMessage, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apierr.Validation("message body is required")
	}
	ticket, err := ss.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && ticket.UserID != authorID {
		return nil, apierr.Forbidden("ticket %s belongs to another user", ticketID)
	}
	if ticket.Status == types.TicketStatusClosed {
		return nil, apierr.PolicyViolation("ticket %s is closed", ticketID)
	}

	msg := &types.SupportTicketMessage{
		TicketID: ticketID,
		AuthorID: authorID,
		Body:     body,
	}
	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ss.tickets.AddMessage(ctx, tx, msg); err != nil {
			return apierr.AsError(err)
		}
		if ticket.Status == types.TicketStatusOpen && isAdmin {
			ticket.Status = types.TicketStatusInProgress
			if err := ss.tickets.Update(ctx, tx, ticket); err != nil {
				return apierr.AsError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Nudge the ticket owner when staff reply.
	if ss.emit != nil && isAdmin && ticket.UserID != authorID {
		ss.emit.Emit(ctx, sse.SSEMessage{
			Channel: ticket.UserID.String(),
			Event:   sse.SSEEventSupportTicketReply,
			Data: map[string]any{
				"ticket_id": ticketID.String(),
				"subject":   ticket.Subject,
			},
		})
	}
	return msg, nil
}

func (ss *supportService) SetStatus(ctx context.Context, ticketID uuid.UUID, status string) (*types.SupportTicket, error) {
	if !types.ValidTicketStatus(status) {
		return nil, apierr.Validation("invalid ticket status %q", status)
	}
	ticket, err := ss.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	ticket.Status = status
	if status == types.TicketStatusResolved && ticket.ResolvedAt == nil {
		now := time.Now().UTC()
		ticket.ResolvedAt = &now
	}
	if err := ss.tickets.Update(ctx, nil, ticket); err != nil {
		return nil, apierr.AsError(err)
	}
	return ticket, nil
}

func (ss *supportService) loadTicket(ctx context.Context, ticketID uuid.UUID) (*types.SupportTicket, error) {
	row, err := ss.tickets.GetByID(ctx, nil, ticketID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("ticket %s not found", ticketID)
		}
		return nil, apierr.AsError(err)
	}
	return row, nil
}
