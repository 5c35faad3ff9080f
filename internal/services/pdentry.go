package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/repos"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

type PDEntryInput struct {
	ActivityDate    time.Time `json:"activity_date"`
	ActivityDetails string    `json:"activity_details"`
	TopicsCovered   string    `json:"topics_covered"`
	DurationMinutes int       `json:"duration_minutes"`
	CompetencyCodes []string  `json:"competency_codes"`
}

// PDEntryWithQuality pairs a stored entry with its full evaluation, which is
// recomputed on read rather than persisted beyond the score/tier snapshot.
type PDEntryWithQuality struct {
	Entry   *types.ProfessionalDevelopmentEntry `json:"entry"`
	Quality PDQualityResult                     `json:"quality"`
	Prompts []string                            `json:"prompts,omitempty"`
}

type PDEntryService interface {
	Create(ctx context.Context, traineeID uuid.UUID, input PDEntryInput) (*PDEntryWithQuality, error)
	Update(ctx context.Context, traineeID, entryID uuid.UUID, input PDEntryInput) (*PDEntryWithQuality, error)
	Remove(ctx context.Context, traineeID, entryID uuid.UUID) error
	Get(ctx context.Context, traineeID, entryID uuid.UUID) (*PDEntryWithQuality, error)
	List(ctx context.Context, traineeID uuid.UUID) ([]*PDEntryWithQuality, error)
	// Preview scores text without persisting anything, for as-you-type
	// feedback in the entry form.
	Preview(text string) *PDEntryWithQuality
}

type pdEntryService struct {
	db        *gorm.DB
	log       *logger.Logger
	pdEntries repos.PDEntryRepo
	reference repos.ReferenceRepo
}

func NewPDEntryService(db *gorm.DB, log *logger.Logger, pdEntries repos.PDEntryRepo, reference repos.ReferenceRepo) PDEntryService {
	return &pdEntryService{
		db:        db,
		log:       log.With("service", "PDEntryService"),
		pdEntries: pdEntries,
		reference: reference,
	}
}

func (ps *pdEntryService) validate(ctx context.Context, input PDEntryInput) error {
	switch {
	case input.ActivityDate.IsZero():
		return apierr.Validation("activity_date is required")
	case input.ActivityDetails == "":
		return apierr.Validation("activity_details is required")
	case input.DurationMinutes < 0:
		return apierr.Validation("duration_minutes cannot be negative")
	}
	for _, code := range input.CompetencyCodes {
		if _, err := ps.reference.GetCompetencyByCode(ctx, nil, code); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierr.Validation("unknown competency code %q", code)
			}
			return apierr.AsError(err)
		}
	}
	return nil
}

func (ps *pdEntryService) Create(ctx context.Context, traineeID uuid.UUID, input PDEntryInput) (*PDEntryWithQuality, error) {
	if traineeID == uuid.Nil {
		return nil, apierr.Validation("trainee id is required")
	}
	if err := ps.validate(ctx, input); err != nil {
		return nil, err
	}

	quality := EvaluatePDQuality(input.ActivityDetails)
	row := &types.ProfessionalDevelopmentEntry{
		TraineeID:        traineeID,
		ActivityDate:     input.ActivityDate,
		ActivityDetails:  input.ActivityDetails,
		TopicsCovered:    input.TopicsCovered,
		DurationMinutes:  input.DurationMinutes,
		CompetencyCodes:  encodeCodes(input.CompetencyCodes),
		LastQualityScore: quality.Score,
		LastQualityTier:  quality.Tier,
	}
	if _, err := ps.pdEntries.Create(ctx, nil, row); err != nil {
		return nil, apierr.AsError(err)
	}
	ps.log.Info("pd entry created", "trainee_id", traineeID, "score", quality.Score, "tier", quality.Tier)
	return ps.withQuality(row), nil
}

func (ps *pdEntryService) Update(ctx context.Context, traineeID, entryID uuid.UUID, input PDEntryInput) (*PDEntryWithQuality, error) {
	if err := ps.validate(ctx, input); err != nil {
		return nil, err
	}
	row, err := ps.loadOwned(ctx, traineeID, entryID)
	if err != nil {
		return nil, err
	}

	quality := EvaluatePDQuality(input.ActivityDetails)
	row.ActivityDate = input.ActivityDate
	row.ActivityDetails = input.ActivityDetails
	row.TopicsCovered = input.TopicsCovered
	row.DurationMinutes = input.DurationMinutes
	row.CompetencyCodes = encodeCodes(input.CompetencyCodes)
	row.LastQualityScore = quality.Score
	row.LastQualityTier = quality.Tier

	if err := ps.pdEntries.Update(ctx, nil, row); err != nil {
		return nil, apierr.AsError(err)
	}
	return ps.withQuality(row), nil
}

func (ps *pdEntryService) Remove(ctx context.Context, traineeID, entryID uuid.UUID) error {
	if _, err := ps.loadOwned(ctx, traineeID, entryID); err != nil {
		return err
	}
	if err := ps.pdEntries.SoftDeleteByID(ctx, nil, entryID); err != nil {
		return apierr.AsError(err)
	}
	return nil
}

func (ps *pdEntryService) Get(ctx context.Context, traineeID, entryID uuid.UUID) (*PDEntryWithQuality, error) {
	row, err := ps.loadOwned(ctx, traineeID, entryID)
	if err != nil {
		return nil, err
	}
	return ps.withQuality(row), nil
}

func (ps *pdEntryService) List(ctx context.Context, traineeID uuid.UUID) ([]*PDEntryWithQuality, error) {
	rows, err := ps.pdEntries.GetByTraineeID(ctx, nil, traineeID)
	if err != nil {
		return nil, apierr.AsError(err)
	}
	out := make([]*PDEntryWithQuality, 0, len(rows))
	for _, row := range rows {
		out = append(out, ps.withQuality(row))
	}
	return out, nil
}

func (ps *pdEntryService) Preview(text string) *PDEntryWithQuality {
	return &PDEntryWithQuality{
		Quality: EvaluatePDQuality(text),
		Prompts: GeneratePDPrompts(text),
	}
}

func (ps *pdEntryService) withQuality(row *types.ProfessionalDevelopmentEntry) *PDEntryWithQuality {
	return &PDEntryWithQuality{
		Entry:   row,
		Quality: EvaluatePDQuality(row.ActivityDetails),
		Prompts: GeneratePDPrompts(row.ActivityDetails),
	}
}

func (ps *pdEntryService) loadOwned(ctx context.Context, traineeID, entryID uuid.UUID) (*types.ProfessionalDevelopmentEntry, error) {
	row, err := ps.pdEntries.GetByID(ctx, nil, entryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("pd entry %s not found", entryID)
		}
		return nil, apierr.AsError(err)
	}
	if row.TraineeID != traineeID {
		return nil, apierr.Forbidden("pd entry %s does not belong to this trainee", entryID)
	}
	return row, nil
}

func encodeCodes(codes []string) datatypes.JSON {
	if codes == nil {
		codes = []string{}
	}
	raw, _ := json.Marshal(codes)
	return datatypes.JSON(raw)
}
