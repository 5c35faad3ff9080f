package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/repos"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

const defaultInviteTTL = 14 * 24 * time.Hour

// InviteService manages supervisor-to-trainee invitations. Acceptance binds
// the invite to the accepting trainee's account; expiry is advanced by the
// sweep CLI rather than checked lazily on every read.
type InviteService interface {
	CreateInvite(ctx context.Context, supervisorID uuid.UUID, traineeEmail, message string) (*types.SupervisionInvite, error)
	AcceptInvite(ctx context.Context, traineeID uuid.UUID, token string) (*types.SupervisionInvite, error)
	DeclineInvite(ctx context.Context, token string) (*types.SupervisionInvite, error)
	ListForSupervisor(ctx context.Context, supervisorID uuid.UUID) ([]*types.SupervisionInvite, error)
	ExpirePending(ctx context.Context, now time.Time, dryRun bool) ([]*types.SupervisionInvite, []NotificationEvent, error)
}

type inviteService struct {
	db      *gorm.DB
	log     *logger.Logger
	invites repos.InviteRepo
	users   repos.UserRepo
}

func NewInviteService(db *gorm.DB, log *logger.Logger, invites repos.InviteRepo, users repos.UserRepo) InviteService {
	return &inviteService{
		db:      db,
		log:     log.With("service", "InviteService"),
		invites: invites,
		users:   users,
	}
}

func (is *inviteService) CreateInvite(ctx context.Context, supervisorID uuid.UUID, traineeEmail, message string) (*types.SupervisionInvite, error) {
	traineeEmail = strings.ToLower(strings.TrimSpace(traineeEmail))
	if traineeEmail == "" || !strings.Contains(traineeEmail, "@") {
		return nil, apierr.Validation("a valid trainee email is required")
	}

	supervisor, err := is.users.GetByID(ctx, nil, supervisorID)
	if err != nil {
		return nil, apierr.AsError(err)
	}
	if !supervisor.IsSupervisor() && supervisor.Role != types.RoleAdmin {
		return nil, apierr.Forbidden("only supervisors can invite trainees")
	}

	token, err := newInviteToken()
	if err != nil {
		return nil, apierr.AsError(err)
	}
	row := &types.SupervisionInvite{
		SupervisorID: supervisorID,
		TraineeEmail: traineeEmail,
		Status:       types.InviteStatusPending,
		Token:        token,
		Message:      message,
		ExpiresAt:    time.Now().UTC().Add(defaultInviteTTL),
	}
	if _, err := is.invites.Create(ctx, nil, row); err != nil {
		return nil, apierr.AsError(err)
	}
	is.log.Info("supervision invite created", "supervisor_id", supervisorID, "email", traineeEmail)
	return row, nil
}

func (is *inviteService) AcceptInvite(ctx context.Context, traineeID uuid.UUID, token string) (*types.SupervisionInvite, error) {
	row, err := is.loadByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if row.Status != types.InviteStatusPending {
		return nil, apierr.Conflict("invite is %s and can no longer be accepted", row.Status)
	}
	if row.ExpiresAt.Before(time.Now().UTC()) {
		return nil, apierr.PolicyViolation("invite has expired")
	}

	trainee, err := is.users.GetByID(ctx, nil, traineeID)
	if err != nil {
		return nil, apierr.AsError(err)
	}
	if !trainee.IsTrainee() {
		return nil, apierr.Forbidden("only trainees can accept supervision invites")
	}

	now := time.Now().UTC()
	row.Status = types.InviteStatusAccepted
	row.TraineeID = &traineeID
	row.AcceptedAt = &now
	if err := is.invites.Update(ctx, nil, row); err != nil {
		return nil, apierr.AsError(err)
	}
	is.log.Info("supervision invite accepted", "invite_id", row.ID, "trainee_id", traineeID)
	return row, nil
}

func (is *inviteService) DeclineInvite(ctx context.Context, token string) (*types.SupervisionInvite, error) {
	row, err := is.loadByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if row.Status != types.InviteStatusPending {
		return nil, apierr.Conflict("invite is %s and can no longer be declined", row.Status)
	}
	row.Status = types.InviteStatusDeclined
	if err := is.invites.Update(ctx, nil, row); err != nil {
		return nil, apierr.AsError(err)
	}
	return row, nil
}

func (is *inviteService) ListForSupervisor(ctx context.Context, supervisorID uuid.UUID) ([]*types.SupervisionInvite, error) {
	rows, err := is.invites.ListBySupervisorID(ctx, nil, supervisorID)
	if err != nil {
		return nil, apierr.AsError(err)
	}
	return rows, nil
}

// ExpirePending advances stale pending invites to expired and returns a
// notification event per invite for the issuing supervisor. In dry-run mode
// it reports what would change without writing.
func (is *inviteService) ExpirePending(ctx context.Context, now time.Time, dryRun bool) ([]*types.SupervisionInvite, []NotificationEvent, error) {
	rows, err := is.invites.ListPendingExpired(ctx, nil, now)
	if err != nil {
		return nil, nil, apierr.AsError(err)
	}

	var events []NotificationEvent
	for _, row := range rows {
		if !dryRun {
			row.Status = types.InviteStatusExpired
			if err := is.invites.Update(ctx, nil, row); err != nil {
				return nil, nil, apierr.AsError(err)
			}
		}
		events = append(events, NotificationEvent{
			RecipientID: row.SupervisorID,
			EventType:   types.EventExpired,
			SubjectType: "invite",
			SubjectID:   row.ID,
			DedupeKey:   fmt.Sprintf("%s:invite:%s", types.EventExpired, row.ID),
			Payload: map[string]any{
				"invite_id":     row.ID.String(),
				"trainee_email": row.TraineeEmail,
				"expired_at":    row.ExpiresAt.Format(time.RFC3339),
			},
		})
	}
	return rows, events, nil
}

func (is *inviteService) loadByToken(ctx context.Context, token string) (*types.SupervisionInvite, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apierr.Validation("invite token is required")
	}
	row, err := is.invites.GetByToken(ctx, nil, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("invite not found")
		}
		return nil, apierr.AsError(err)
	}
	return row, nil
}

func newInviteToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate invite token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
