package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

type PDEntryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.ProfessionalDevelopmentEntry) (*types.ProfessionalDevelopmentEntry, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ProfessionalDevelopmentEntry, error)
	GetByTraineeID(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID) ([]*types.ProfessionalDevelopmentEntry, error)
	Update(ctx context.Context, tx *gorm.DB, row *types.ProfessionalDevelopmentEntry) error
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type pdEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPDEntryRepo(db *gorm.DB, baseLog *logger.Logger) PDEntryRepo {
	return &pdEntryRepo{db: db, log: baseLog.With("repo", "PDEntryRepo")}
}

func (r *pdEntryRepo) Create(ctx context.Context, tx *gorm.DB, row *types.ProfessionalDevelopmentEntry) (*types.ProfessionalDevelopmentEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *pdEntryRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ProfessionalDevelopmentEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.ProfessionalDevelopmentEntry
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *pdEntryRepo) GetByTraineeID(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID) ([]*types.ProfessionalDevelopmentEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.ProfessionalDevelopmentEntry
	if traineeID == uuid.Nil {
		return rows, nil
	}
	if err := transaction.WithContext(ctx).
		Where("trainee_id = ?", traineeID).
		Order("activity_date desc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *pdEntryRepo) Update(ctx context.Context, tx *gorm.DB, row *types.ProfessionalDevelopmentEntry) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(row).Error
}

func (r *pdEntryRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.ProfessionalDevelopmentEntry{}).Error
}
