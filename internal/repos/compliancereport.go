package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

type ComplianceReportRepo interface {
	GetByTraineeID(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID) (*types.SupervisionComplianceReport, error)
	Upsert(ctx context.Context, tx *gorm.DB, row *types.SupervisionComplianceReport) error
}

type complianceReportRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewComplianceReportRepo(db *gorm.DB, baseLog *logger.Logger) ComplianceReportRepo {
	return &complianceReportRepo{db: db, log: baseLog.With("repo", "ComplianceReportRepo")}
}

func (r *complianceReportRepo) GetByTraineeID(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID) (*types.SupervisionComplianceReport, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.SupervisionComplianceReport
	if err := transaction.WithContext(ctx).
		Where("trainee_id = ?", traineeID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Upsert replaces the single report row keyed by trainee_id. Assign +
// FirstOrCreate keeps the write a single-row replace so readers never see a
// half-updated report.
func (r *complianceReportRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.SupervisionComplianceReport) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("trainee_id = ?", row.TraineeID).
		Assign(map[string]interface{}{
			"total_hours":               row.TotalHours,
			"direct_in_person_hours":    row.DirectInPersonHours,
			"direct_video_hours":        row.DirectVideoHours,
			"direct_phone_hours":        row.DirectPhoneHours,
			"indirect_hours":            row.IndirectHours,
			"individual_hours":          row.IndividualHours,
			"group_hours":               row.GroupHours,
			"cultural_hours":            row.CulturalHours,
			"board_approved_hours":      row.BoardApprovedHours,
			"assessment_observations":   row.AssessmentObservations,
			"intervention_observations": row.InterventionObservations,
			"meets_total_hours":         row.MeetsTotalHours,
			"meets_individual_ratio":    row.MeetsIndividualRatio,
			"meets_direct_ratio":        row.MeetsDirectRatio,
			"meets_cultural_hours":      row.MeetsCulturalHours,
			"meets_observation_count":   row.MeetsObservationCount,
			"meets_board_approved_ratio": row.MeetsBoardApprovedRatio,
			"is_compliant":              row.IsCompliant,
			"warnings":                  row.Warnings,
			"last_calculated_at":        row.LastCalculatedAt,
		}).
		FirstOrCreate(row).Error
}
