package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

type SupervisionObservationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.SupervisionObservation) (*types.SupervisionObservation, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SupervisionObservation, error)
	GetByTraineeID(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID) ([]*types.SupervisionObservation, error)
	Update(ctx context.Context, tx *gorm.DB, row *types.SupervisionObservation) error
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type supervisionObservationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSupervisionObservationRepo(db *gorm.DB, baseLog *logger.Logger) SupervisionObservationRepo {
	return &supervisionObservationRepo{db: db, log: baseLog.With("repo", "SupervisionObservationRepo")}
}

func (r *supervisionObservationRepo) Create(ctx context.Context, tx *gorm.DB, row *types.SupervisionObservation) (*types.SupervisionObservation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *supervisionObservationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SupervisionObservation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.SupervisionObservation
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *supervisionObservationRepo) GetByTraineeID(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID) ([]*types.SupervisionObservation, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.SupervisionObservation
	if traineeID == uuid.Nil {
		return rows, nil
	}
	if err := transaction.WithContext(ctx).
		Where("trainee_id = ?", traineeID).
		Order("observed_at asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *supervisionObservationRepo) Update(ctx context.Context, tx *gorm.DB, row *types.SupervisionObservation) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(row).Error
}

func (r *supervisionObservationRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.SupervisionObservation{}).Error
}
