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

type SupervisionEntryInput struct {
	TraineeID               uuid.UUID `json:"trainee_id"`
	SessionDate             time.Time `json:"session_date"`
	DurationMinutes         int       `json:"duration_minutes"`
	Mode                    string    `json:"mode"`
	IsCultural              bool      `json:"is_cultural"`
	IsIndividual            bool      `json:"is_individual"`
	SupervisorBoardApproved bool      `json:"supervisor_board_approved"`
	Summary                 string    `json:"summary"`
}

type ObservationInput struct {
	TraineeID          uuid.UUID  `json:"trainee_id"`
	ObservationType    string     `json:"observation_type"`
	SupervisionEntryID *uuid.UUID `json:"supervision_entry_id"`
	ObservedAt         time.Time  `json:"observed_at"`
	DurationMinutes    int        `json:"duration_minutes"`
	Notes              string     `json:"notes"`
}

// SupervisionService owns the supervision evidence log. Every mutation
// refreshes the trainee's compliance report in the same transaction, so the
// stored report never lags the evidence it summarises.
type SupervisionService interface {
	RecordEntry(ctx context.Context, supervisorID uuid.UUID, input SupervisionEntryInput) (*types.SupervisionEntry, error)
	UpdateEntry(ctx context.Context, supervisorID, entryID uuid.UUID, input SupervisionEntryInput) (*types.SupervisionEntry, error)
	RemoveEntry(ctx context.Context, supervisorID, entryID uuid.UUID) error
	ListEntries(ctx context.Context, traineeID uuid.UUID) ([]*types.SupervisionEntry, error)

	RecordObservation(ctx context.Context, supervisorID uuid.UUID, input ObservationInput) (*types.SupervisionObservation, error)
	RemoveObservation(ctx context.Context, supervisorID, observationID uuid.UUID) error
	ListObservations(ctx context.Context, traineeID uuid.UUID) ([]*types.SupervisionObservation, error)
}

type supervisionService struct {
	db         *gorm.DB
	log        *logger.Logger
	entries    repos.SupervisionEntryRepo
	obs        repos.SupervisionObservationRepo
	compliance ComplianceService
}

func NewSupervisionService(db *gorm.DB, log *logger.Logger, entries repos.SupervisionEntryRepo, obs repos.SupervisionObservationRepo, compliance ComplianceService) SupervisionService {
	return &supervisionService{
		db:         db,
		log:        log.With("service", "SupervisionService"),
		entries:    entries,
		obs:        obs,
		compliance: compliance,
	}
}

func validateEntry(input SupervisionEntryInput) error {
	switch {
	case input.TraineeID == uuid.Nil:
		return apierr.Validation("trainee id is required")
	case input.DurationMinutes <= 0:
		return apierr.Validation("duration_minutes must be positive")
	case !types.ValidSupervisionMode(input.Mode):
		return apierr.Validation("unknown supervision mode %q", input.Mode)
	case input.SessionDate.IsZero():
		return apierr.Validation("session_date is required")
	}
	return nil
}

func (ss *supervisionService) RecordEntry(ctx context.Context, supervisorID uuid.UUID, input SupervisionEntryInput) (*types.SupervisionEntry, error) {
	if err := validateEntry(input); err != nil {
		return nil, err
	}

	row := &types.SupervisionEntry{
		TraineeID:               input.TraineeID,
		SupervisorID:            supervisorID,
		SessionDate:             input.SessionDate,
		DurationMinutes:         input.DurationMinutes,
		Mode:                    input.Mode,
		IsCultural:              input.IsCultural,
		IsIndividual:            input.IsIndividual,
		SupervisorBoardApproved: input.SupervisorBoardApproved,
		Summary:                 input.Summary,
	}
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ss.entries.Create(ctx, tx, row); err != nil {
			return apierr.AsError(err)
		}
		_, err := ss.compliance.Recalculate(ctx, tx, input.TraineeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	ss.log.Info("supervision entry recorded", "trainee_id", input.TraineeID, "supervisor_id", supervisorID, "minutes", input.DurationMinutes)
	return row, nil
}

func (ss *supervisionService) UpdateEntry(ctx context.Context, supervisorID, entryID uuid.UUID, input SupervisionEntryInput) (*types.SupervisionEntry, error) {
	if err := validateEntry(input); err != nil {
		return nil, err
	}
	row, err := ss.loadEntry(ctx, supervisorID, entryID)
	if err != nil {
		return nil, err
	}

	row.SessionDate = input.SessionDate
	row.DurationMinutes = input.DurationMinutes
	row.Mode = input.Mode
	row.IsCultural = input.IsCultural
	row.IsIndividual = input.IsIndividual
	row.SupervisorBoardApproved = input.SupervisorBoardApproved
	row.Summary = input.Summary

	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ss.entries.Update(ctx, tx, row); err != nil {
			return apierr.AsError(err)
		}
		_, err := ss.compliance.Recalculate(ctx, tx, row.TraineeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (ss *supervisionService) RemoveEntry(ctx context.Context, supervisorID, entryID uuid.UUID) error {
	row, err := ss.loadEntry(ctx, supervisorID, entryID)
	if err != nil {
		return err
	}
	return ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ss.entries.SoftDeleteByID(ctx, tx, entryID); err != nil {
			return apierr.AsError(err)
		}
		_, err := ss.compliance.Recalculate(ctx, tx, row.TraineeID)
		return err
	})
}

func (ss *supervisionService) ListEntries(ctx context.Context, traineeID uuid.UUID) ([]*types.SupervisionEntry, error) {
	rows, err := ss.entries.GetByTraineeID(ctx, nil, traineeID)
	if err != nil {
		return nil, apierr.AsError(err)
	}
	return rows, nil
}

func (ss *supervisionService) RecordObservation(ctx context.Context, supervisorID uuid.UUID, input ObservationInput) (*types.SupervisionObservation, error) {
	switch {
	case input.TraineeID == uuid.Nil:
		return nil, apierr.Validation("trainee id is required")
	case !types.ValidObservationType(input.ObservationType):
		return nil, apierr.Validation("observation_type must be assessment or intervention")
	case input.ObservedAt.IsZero():
		return nil, apierr.Validation("observed_at is required")
	case input.DurationMinutes < 0:
		return nil, apierr.Validation("duration_minutes cannot be negative")
	}

	row := &types.SupervisionObservation{
		TraineeID:          input.TraineeID,
		SupervisorID:       supervisorID,
		ObservationType:    input.ObservationType,
		SupervisionEntryID: input.SupervisionEntryID,
		ObservedAt:         input.ObservedAt,
		DurationMinutes:    input.DurationMinutes,
		Notes:              input.Notes,
	}
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ss.obs.Create(ctx, tx, row); err != nil {
			return apierr.AsError(err)
		}
		_, err := ss.compliance.Recalculate(ctx, tx, input.TraineeID)
		return err
	})
	if err != nil {
		return nil, err
	}
	ss.log.Info("observation recorded", "trainee_id", input.TraineeID, "supervisor_id", supervisorID, "type", input.ObservationType)
	return row, nil
}

func (ss *supervisionService) RemoveObservation(ctx context.Context, supervisorID, observationID uuid.UUID) error {
	row, err := ss.obs.GetByID(ctx, nil, observationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierr.NotFound("observation %s not found", observationID)
		}
		return apierr.AsError(err)
	}
	if row.SupervisorID != supervisorID {
		return apierr.Forbidden("observation %s was recorded by another supervisor", observationID)
	}
	return ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ss.obs.SoftDeleteByID(ctx, tx, observationID); err != nil {
			return apierr.AsError(err)
		}
		_, err := ss.compliance.Recalculate(ctx, tx, row.TraineeID)
		return err
	})
}

func (ss *supervisionService) ListObservations(ctx context.Context, traineeID uuid.UUID) ([]*types.SupervisionObservation, error) {
	rows, err := ss.obs.GetByTraineeID(ctx, nil, traineeID)
	if err != nil {
		return nil, apierr.AsError(err)
	}
	return rows, nil
}

// loadEntry enforces that only the recording supervisor mutates an entry.
func (ss *supervisionService) loadEntry(ctx context.Context, supervisorID, entryID uuid.UUID) (*types.SupervisionEntry, error) {
	row, err := ss.entries.GetByID(ctx, nil, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("supervision entry %s not found", entryID)
		}
		return nil, apierr.AsError(err)
	}
	if row.SupervisorID != supervisorID {
		return nil, apierr.Forbidden("supervision entry %s was recorded by another supervisor", entryID)
	}
	return row, nil
}
