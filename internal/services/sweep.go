package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/repos"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

// SweepResult summarises one pass of the time-based housekeeping sweep.
type SweepResult struct {
	ExpiredInvites int
	Reminders      int
	Events         []NotificationEvent
}

// SweepService drives the scheduled maintenance the request path never
// triggers: expiring stale invites and nudging supervisors about logbooks
// that have sat in submitted too long. Run from the advance_expirations CLI.
type SweepService interface {
	Run(ctx context.Context, now time.Time, reviewReminderAfter time.Duration, dryRun bool) (*SweepResult, error)
}

type sweepService struct {
	db       *gorm.DB
	log      *logger.Logger
	invites  InviteService
	logbooks repos.WeeklyLogbookRepo
	links    repos.InviteRepo
}

func NewSweepService(db *gorm.DB, log *logger.Logger, invites InviteService, logbooks repos.WeeklyLogbookRepo, links repos.InviteRepo) SweepService {
	return &sweepService{
		db:       db,
		log:      log.With("service", "SweepService"),
		invites:  invites,
		logbooks: logbooks,
		links:    links,
	}
}

func (sw *sweepService) Run(ctx context.Context, now time.Time, reviewReminderAfter time.Duration, dryRun bool) (*SweepResult, error) {
	result := &SweepResult{}

	expired, inviteEvents, err := sw.invites.ExpirePending(ctx, now, dryRun)
	if err != nil {
		return nil, err
	}
	result.ExpiredInvites = len(expired)
	result.Events = append(result.Events, inviteEvents...)

	reminderEvents, err := sw.staleSubmissionReminders(ctx, now, reviewReminderAfter)
	if err != nil {
		return nil, err
	}
	result.Reminders = len(reminderEvents)
	result.Events = append(result.Events, reminderEvents...)

	sw.log.Info("sweep completed",
		"expired_invites", result.ExpiredInvites,
		"reminders", result.Reminders,
		"dry_run", dryRun)
	return result, nil
}

// staleSubmissionReminders produces one event per supervisor per stale
// logbook per day; the notifier's dedupe key makes repeated sweeps on the
// same day no-ops.
func (sw *sweepService) staleSubmissionReminders(ctx context.Context, now time.Time, after time.Duration) ([]NotificationEvent, error) {
	cutoff := now.Add(-after)
	stale, err := sw.logbooks.ListSubmittedBefore(ctx, nil, cutoff)
	if err != nil {
		return nil, apierr.AsError(err)
	}

	day := now.Format("2006-01-02")
	var events []NotificationEvent
	for _, lb := range stale {
		links, err := sw.links.ListAcceptedByTraineeID(ctx, nil, lb.TraineeID)
		if err != nil {
			return nil, apierr.AsError(err)
		}
		for _, link := range links {
			events = append(events, NotificationEvent{
				RecipientID: link.SupervisorID,
				EventType:   types.EventReminderSent,
				SubjectType: "logbook",
				SubjectID:   lb.ID,
				DedupeKey:   fmt.Sprintf("%s:logbook:%s:%s", types.EventReminderSent, lb.ID, day),
				Payload: map[string]any{
					"logbook_id":   lb.ID.String(),
					"week_start":   lb.WeekStart.Format("2006-01-02"),
					"submitted_at": lb.SubmittedAt,
				},
			})
		}
	}
	return events, nil
}
