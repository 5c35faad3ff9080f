package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/repos"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

type LogbookEntryInput struct {
	Section         string    `json:"section"`
	ActivityDate    time.Time `json:"activity_date"`
	Description     string    `json:"description"`
	DurationMinutes int       `json:"duration_minutes"`
	IsDirectContact bool      `json:"is_direct_contact"`
}

// LogbookService drives the weekly logbook through its review lifecycle.
// Every transition method takes the status the caller last read and fails
// with a conflict when the stored row has moved on, both before and inside
// the guarded write.
type LogbookService interface {
	OpenWeek(ctx context.Context, traineeID uuid.UUID, anyDayInWeek time.Time) (*types.WeeklyLogbook, error)
	GetByID(ctx context.Context, actorID uuid.UUID, logbookID uuid.UUID) (*types.WeeklyLogbook, error)
	ListForTrainee(ctx context.Context, traineeID uuid.UUID) ([]*types.WeeklyLogbook, error)

	AddEntry(ctx context.Context, traineeID, logbookID uuid.UUID, input LogbookEntryInput) (*types.LogbookEntry, error)
	UpdateEntry(ctx context.Context, traineeID, entryID uuid.UUID, input LogbookEntryInput) (*types.LogbookEntry, error)
	RemoveEntry(ctx context.Context, traineeID, entryID uuid.UUID) error

	Submit(ctx context.Context, traineeID, logbookID uuid.UUID, expectedStatus string) (*types.WeeklyLogbook, error)
	StartReview(ctx context.Context, supervisorID, logbookID uuid.UUID, expectedStatus string) (*types.WeeklyLogbook, error)
	RequestChanges(ctx context.Context, supervisorID, logbookID uuid.UUID, expectedStatus string, inputs []ChangeRequestInput) (*types.WeeklyLogbook, error)
	Approve(ctx context.Context, supervisorID, logbookID uuid.UUID, expectedStatus string) (*types.WeeklyLogbook, error)
	Reject(ctx context.Context, supervisorID, logbookID uuid.UUID, expectedStatus string) (*types.WeeklyLogbook, error)
	Resubmit(ctx context.Context, traineeID, logbookID uuid.UUID, expectedStatus string) (*types.WeeklyLogbook, error)
	Lock(ctx context.Context, adminID, logbookID uuid.UUID, expectedStatus string) (*types.WeeklyLogbook, error)

	ListReviewRequests(ctx context.Context, logbookID uuid.UUID) ([]*types.LogbookReviewRequest, error)
	RespondToReviewRequest(ctx context.Context, traineeID, requestID uuid.UUID, response string) (*types.LogbookReviewRequest, error)
	CompleteReviewRequest(ctx context.Context, supervisorID, requestID uuid.UUID, notes string) (*types.LogbookReviewRequest, error)
	DismissReviewRequest(ctx context.Context, supervisorID, requestID uuid.UUID) (*types.LogbookReviewRequest, error)
}

type logbookService struct {
	db       *gorm.DB
	log      *logger.Logger
	logbooks repos.WeeklyLogbookRepo
	entries  repos.LogbookEntryRepo
	requests repos.ReviewRequestRepo
	notify   Notifier
	nowFunc  func() time.Time
}

func NewLogbookService(db *gorm.DB, log *logger.Logger, logbooks repos.WeeklyLogbookRepo, entries repos.LogbookEntryRepo, requests repos.ReviewRequestRepo, notify Notifier) LogbookService {
	return &logbookService{
		db:       db,
		log:      log.With("service", "LogbookService"),
		logbooks: logbooks,
		entries:  entries,
		requests: requests,
		notify:   notify,
		nowFunc:  func() time.Time { return time.Now().UTC() },
	}
}

// weekBounds normalizes any day to its Monday-to-Sunday week, at UTC
// midnight.
func weekBounds(day time.Time) (time.Time, time.Time) {
	day = day.UTC().Truncate(24 * time.Hour)
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 6)
}

func (s *logbookService) OpenWeek(ctx context.Context, traineeID uuid.UUID, anyDayInWeek time.Time) (*types.WeeklyLogbook, error) {
	if traineeID == uuid.Nil {
		return nil, apierr.Validation("trainee id is required")
	}
	weekStart, weekEnd := weekBounds(anyDayInWeek)

	existing, err := s.logbooks.GetByTraineeAndWeekStart(ctx, nil, traineeID, weekStart)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierr.AsError(err)
	}

	row := &types.WeeklyLogbook{
		TraineeID: traineeID,
		WeekStart: weekStart,
		WeekEnd:   weekEnd,
		Status:    types.LogbookStatusDraft,
	}
	created, err := s.logbooks.Create(ctx, nil, row)
	if err != nil {
		return nil, apierr.AsError(err)
	}
	s.log.Info("logbook week opened", "trainee_id", traineeID, "week_start", weekStart.Format("2006-01-02"))
	return created, nil
}

func (s *logbookService) GetByID(ctx context.Context, actorID uuid.UUID, logbookID uuid.UUID) (*types.WeeklyLogbook, error) {
	row, err := s.logbooks.GetByID(ctx, nil, logbookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("logbook %s not found", logbookID)
		}
		return nil, apierr.AsError(err)
	}
	return row, nil
}

func (s *logbookService) ListForTrainee(ctx context.Context, traineeID uuid.UUID) ([]*types.WeeklyLogbook, error) {
	rows, err := s.logbooks.GetByTraineeID(ctx, nil, traineeID)
	if err != nil {
		return nil, apierr.AsError(err)
	}
	return rows, nil
}

// loadOwned fetches the logbook and checks the trainee owns it.
func (s *logbookService) loadOwned(ctx context.Context, tx *gorm.DB, traineeID, logbookID uuid.UUID) (*types.WeeklyLogbook, error) {
	row, err := s.logbooks.GetByID(ctx, tx, logbookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("logbook %s not found", logbookID)
		}
		return nil, apierr.AsError(err)
	}
	if row.TraineeID != traineeID {
		return nil, apierr.Forbidden("logbook %s does not belong to this trainee", logbookID)
	}
	return row, nil
}

func validateEntryInput(input LogbookEntryInput) error {
	if !types.ValidLogbookSection(input.Section) {
		return apierr.Validation("invalid section %q; expected A, B or C", input.Section)
	}
	if input.Description == "" {
		return apierr.Validation("description is required")
	}
	if input.DurationMinutes < 0 {
		return apierr.Validation("duration_minutes cannot be negative")
	}
	if input.ActivityDate.IsZero() {
		return apierr.Validation("activity_date is required")
	}
	return nil
}

func (s *logbookService) AddEntry(ctx context.Context, traineeID, logbookID uuid.UUID, input LogbookEntryInput) (*types.LogbookEntry, error) {
	if err := validateEntryInput(input); err != nil {
		return nil, err
	}
	lb, err := s.loadOwned(ctx, nil, traineeID, logbookID)
	if err != nil {
		return nil, err
	}
	if !traineeEditableStatus(lb.Status) {
		return nil, apierr.PolicyViolation("entries cannot be changed while the logbook is %s", lb.Status)
	}
	day := input.ActivityDate.UTC().Truncate(24 * time.Hour)
	if day.Before(lb.WeekStart) || day.After(lb.WeekEnd) {
		return nil, apierr.Validation("activity_date %s falls outside the logbook week", day.Format("2006-01-02"))
	}

	counts, err := s.entries.CountBySection(ctx, nil, logbookID)
	if err != nil {
		return nil, apierr.AsError(err)
	}

	row := &types.LogbookEntry{
		LogbookID:       logbookID,
		Section:         input.Section,
		Position:        int(counts[input.Section]),
		ActivityDate:    input.ActivityDate,
		Description:     input.Description,
		DurationMinutes: input.DurationMinutes,
		IsDirectContact: input.IsDirectContact,
	}
	created, err := s.entries.Create(ctx, nil, row)
	if err != nil {
		return nil, apierr.AsError(err)
	}
	return created, nil
}

func (s *logbookService) UpdateEntry(ctx context.Context, traineeID, entryID uuid.UUID, input LogbookEntryInput) (*types.LogbookEntry, error) {
	if err := validateEntryInput(input); err != nil {
		return nil, err
	}
	entry, err := s.entries.GetByID(ctx, nil, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("logbook entry %s not found", entryID)
		}
		return nil, apierr.AsError(err)
	}
	lb, err := s.loadOwned(ctx, nil, traineeID, entry.LogbookID)
	if err != nil {
		return nil, err
	}
	if !traineeEditableStatus(lb.Status) {
		return nil, apierr.PolicyViolation("entries cannot be changed while the logbook is %s", lb.Status)
	}

	entry.Section = input.Section
	entry.ActivityDate = input.ActivityDate
	entry.Description = input.Description
	entry.DurationMinutes = input.DurationMinutes
	entry.IsDirectContact = input.IsDirectContact
	if err := s.entries.Update(ctx, nil, entry); err != nil {
		return nil, apierr.AsError(err)
	}
	return entry, nil
}

func (s *logbookService) RemoveEntry(ctx context.Context, traineeID, entryID uuid.UUID) error {
	entry, err := s.entries.GetByID(ctx, nil, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("logbook entry %s not found", entryID)
		}
		return apierr.AsError(err)
	}
	lb, err := s.loadOwned(ctx, nil, traineeID, entry.LogbookID)
	if err != nil {
		return err
	}
	if !traineeEditableStatus(lb.Status) {
		return apierr.PolicyViolation("entries cannot be changed while the logbook is %s", lb.Status)
	}
	if err := s.entries.SoftDeleteByID(ctx, nil, entryID); err != nil {
		return apierr.AsError(err)
	}
	return nil
}

func (s *logbookService) Submit(ctx context.Context, traineeID, logbookID uuid.UUID, expectedStatus string) (*types.WeeklyLogbook, error) {
	var lb *types.WeeklyLogbook
	var events []NotificationEvent
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		lb, err = s.loadOwned(ctx, tx, traineeID, logbookID)
		if err != nil {
			return err
		}
		counts, err := s.entries.CountBySection(ctx, tx, logbookID)
		if err != nil {
			return apierr.AsError(err)
		}
		events, err = applySubmit(lb, expectedStatus, counts, s.nowFunc())
		if err != nil {
			return err
		}
		return s.persistTransition(ctx, tx, lb, expectedStatus)
	})
	if err != nil {
		return nil, err
	}
	s.notify.Dispatch(ctx, events...)
	s.log.Info("logbook submitted", "logbook_id", logbookID, "trainee_id", traineeID)
	return lb, nil
}

func (s *logbookService) StartReview(ctx context.Context, supervisorID, logbookID uuid.UUID, expectedStatus string) (*types.WeeklyLogbook, error) {
	var lb *types.WeeklyLogbook
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		lb, err = s.load(ctx, tx, logbookID)
		if err != nil {
			return err
		}
		if _, err = applyStartReview(lb, expectedStatus, s.nowFunc()); err != nil {
			return err
		}
		return s.persistTransition(ctx, tx, lb, expectedStatus)
	})
	if err != nil {
		return nil, err
	}
	return lb, nil
}

func (s *logbookService) RequestChanges(ctx context.Context, supervisorID, logbookID uuid.UUID, expectedStatus string, inputs []ChangeRequestInput) (*types.WeeklyLogbook, error) {
	if supervisorID == uuid.Nil {
		return nil, apierr.Validation("supervisor id is required")
	}
	now := s.nowFunc()
	rows := make([]*types.LogbookReviewRequest, 0, len(inputs))
	for _, in := range inputs {
		if in.Comment == "" {
			return nil, apierr.Validation("change request comment is required")
		}
		if in.TargetSection != "" && !types.ValidLogbookSection(in.TargetSection) {
			return nil, apierr.Validation("invalid target section %q", in.TargetSection)
		}
		priority := in.Priority
		if priority == "" {
			priority = types.ReviewPriorityMedium
		}
		switch priority {
		case types.ReviewPriorityLow, types.ReviewPriorityMedium, types.ReviewPriorityHigh:
		default:
			return nil, apierr.Validation("invalid priority %q", in.Priority)
		}
		rows = append(rows, &types.LogbookReviewRequest{
			LogbookID:     logbookID,
			SupervisorID:  supervisorID,
			RequestType:   in.RequestType,
			TargetSection: in.TargetSection,
			Status:        types.ReviewRequestPending,
			Priority:      priority,
			Comment:       in.Comment,
			RequestedAt:   now,
		})
	}

	var lb *types.WeeklyLogbook
	var events []NotificationEvent
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		lb, err = s.load(ctx, tx, logbookID)
		if err != nil {
			return err
		}
		if _, err = s.requests.Create(ctx, tx, rows); err != nil {
			return apierr.AsError(err)
		}
		events, err = applyRequestChanges(lb, expectedStatus, rows, now)
		if err != nil {
			return err
		}
		return s.persistTransition(ctx, tx, lb, expectedStatus)
	})
	if err != nil {
		return nil, err
	}
	s.notify.Dispatch(ctx, events...)
	s.log.Info("changes requested", "logbook_id", logbookID, "supervisor_id", supervisorID, "request_count", len(rows))
	return lb, nil
}

func (s *logbookService) Approve(ctx context.Context, supervisorID, logbookID uuid.UUID, expectedStatus string) (*types.WeeklyLogbook, error) {
	var lb *types.WeeklyLogbook
	var events []NotificationEvent
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		lb, err = s.load(ctx, tx, logbookID)
		if err != nil {
			return err
		}
		events, err = applyApprove(lb, expectedStatus, s.nowFunc())
		if err != nil {
			return err
		}
		return s.persistTransition(ctx, tx, lb, expectedStatus)
	})
	if err != nil {
		return nil, err
	}
	s.notify.Dispatch(ctx, events...)
	s.log.Info("logbook approved", "logbook_id", logbookID, "supervisor_id", supervisorID)
	return lb, nil
}

func (s *logbookService) Reject(ctx context.Context, supervisorID, logbookID uuid.UUID, expectedStatus string) (*types.WeeklyLogbook, error) {
	var lb *types.WeeklyLogbook
	var events []NotificationEvent
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		lb, err = s.load(ctx, tx, logbookID)
		if err != nil {
			return err
		}
		events, err = applyReject(lb, expectedStatus, s.nowFunc())
		if err != nil {
			return err
		}
		return s.persistTransition(ctx, tx, lb, expectedStatus)
	})
	if err != nil {
		return nil, err
	}
	s.notify.Dispatch(ctx, events...)
	s.log.Info("logbook rejected", "logbook_id", logbookID, "supervisor_id", supervisorID)
	return lb, nil
}

func (s *logbookService) Resubmit(ctx context.Context, traineeID, logbookID uuid.UUID, expectedStatus string) (*types.WeeklyLogbook, error) {
	var lb *types.WeeklyLogbook
	var events []NotificationEvent
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		lb, err = s.loadOwned(ctx, tx, traineeID, logbookID)
		if err != nil {
			return err
		}
		open, err := s.requests.GetOpenByLogbookID(ctx, tx, logbookID)
		if err != nil {
			return apierr.AsError(err)
		}
		events, err = applyResubmit(lb, expectedStatus, open, s.nowFunc())
		if err != nil {
			return err
		}
		return s.persistTransition(ctx, tx, lb, expectedStatus)
	})
	if err != nil {
		return nil, err
	}
	s.notify.Dispatch(ctx, events...)
	s.log.Info("logbook resubmitted", "logbook_id", logbookID, "trainee_id", traineeID, "resubmission_count", lb.ResubmissionCount)
	return lb, nil
}

func (s *logbookService) Lock(ctx context.Context, adminID, logbookID uuid.UUID, expectedStatus string) (*types.WeeklyLogbook, error) {
	var lb *types.WeeklyLogbook
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		lb, err = s.load(ctx, tx, logbookID)
		if err != nil {
			return err
		}
		if _, err = applyLock(lb, expectedStatus, s.nowFunc()); err != nil {
			return err
		}
		return s.persistTransition(ctx, tx, lb, expectedStatus)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("logbook locked", "logbook_id", logbookID)
	return lb, nil
}

func (s *logbookService) load(ctx context.Context, tx *gorm.DB, logbookID uuid.UUID) (*types.WeeklyLogbook, error) {
	row, err := s.logbooks.GetByID(ctx, tx, logbookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("logbook %s not found", logbookID)
		}
		return nil, apierr.AsError(err)
	}
	return row, nil
}

// persistTransition writes the mutated logbook with the optimistic status
// guard, mapping a lost race to a conflict.
func (s *logbookService) persistTransition(ctx context.Context, tx *gorm.DB, lb *types.WeeklyLogbook, expectedStatus string) error {
	if err := s.logbooks.UpdateGuarded(ctx, tx, lb, expectedStatus); err != nil {
		if errors.Is(err, repos.ErrStaleStatus) {
			return apierr.Conflict("logbook %s changed concurrently; refetch and retry", lb.ID)
		}
		return apierr.AsError(err)
	}
	return nil
}

func (s *logbookService) ListReviewRequests(ctx context.Context, logbookID uuid.UUID) ([]*types.LogbookReviewRequest, error) {
	rows, err := s.requests.GetByLogbookID(ctx, nil, logbookID)
	if err != nil {
		return nil, apierr.AsError(err)
	}
	return rows, nil
}

func (s *logbookService) RespondToReviewRequest(ctx context.Context, traineeID, requestID uuid.UUID, response string) (*types.LogbookReviewRequest, error) {
	if response == "" {
		return nil, apierr.Validation("response text is required")
	}
	req, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	lb, err := s.loadOwned(ctx, nil, traineeID, req.LogbookID)
	if err != nil {
		return nil, err
	}
	if types.TerminalLogbookStatus(lb.Status) {
		return nil, apierr.PolicyViolation("logbook %s is %s; change requests can no longer be updated", lb.ID, lb.Status)
	}
	if !types.OpenReviewRequest(req.Status) {
		return nil, apierr.PolicyViolation("change request %s is already %s", requestID, req.Status)
	}

	now := s.nowFunc()
	req.TraineeResponse = response
	req.Status = types.ReviewRequestInProgress
	req.RespondedAt = &now
	if err := s.requests.Update(ctx, nil, req); err != nil {
		return nil, apierr.AsError(err)
	}
	return req, nil
}

func (s *logbookService) CompleteReviewRequest(ctx context.Context, supervisorID, requestID uuid.UUID, notes string) (*types.LogbookReviewRequest, error) {
	return s.closeRequest(ctx, supervisorID, requestID, types.ReviewRequestCompleted, notes)
}

func (s *logbookService) DismissReviewRequest(ctx context.Context, supervisorID, requestID uuid.UUID) (*types.LogbookReviewRequest, error) {
	return s.closeRequest(ctx, supervisorID, requestID, types.ReviewRequestDismissed, "")
}

// closeRequest completes or dismisses a request and drops it from the
// logbook's pending set in the same transaction. Once the logbook reaches a
// terminal status nothing touches it again, requests included.
func (s *logbookService) closeRequest(ctx context.Context, supervisorID, requestID uuid.UUID, status, notes string) (*types.LogbookReviewRequest, error) {
	var req *types.LogbookReviewRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = s.loadRequestTx(ctx, tx, requestID)
		if err != nil {
			return err
		}
		lb, err := s.load(ctx, tx, req.LogbookID)
		if err != nil {
			return err
		}
		if types.TerminalLogbookStatus(lb.Status) {
			return apierr.PolicyViolation("logbook %s is %s; change requests can no longer be updated", lb.ID, lb.Status)
		}
		if !types.OpenReviewRequest(req.Status) {
			return apierr.PolicyViolation("change request %s is already %s", requestID, req.Status)
		}

		now := s.nowFunc()
		req.Status = status
		if notes != "" {
			req.SupervisorNotes = notes
		}
		req.CompletedAt = &now
		if err := s.requests.Update(ctx, tx, req); err != nil {
			return apierr.AsError(err)
		}

		pending, err := removePendingID(lb.PendingChangeRequests, req.ID)
		if err != nil {
			return apierr.AsError(err)
		}
		lb.PendingChangeRequests = pending
		return s.persistTransition(ctx, tx, lb, lb.Status)
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (s *logbookService) loadRequest(ctx context.Context, requestID uuid.UUID) (*types.LogbookReviewRequest, error) {
	return s.loadRequestTx(ctx, nil, requestID)
}

func (s *logbookService) loadRequestTx(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) (*types.LogbookReviewRequest, error) {
	req, err := s.requests.GetByID(ctx, tx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("change request %s not found", requestID)
		}
		return nil, apierr.AsError(err)
	}
	return req, nil
}
