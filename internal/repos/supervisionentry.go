package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

type SupervisionEntryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.SupervisionEntry) (*types.SupervisionEntry, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SupervisionEntry, error)
	GetByTraineeID(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID) ([]*types.SupervisionEntry, error)
	ListTraineeIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error)
	Update(ctx context.Context, tx *gorm.DB, row *types.SupervisionEntry) error
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type supervisionEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSupervisionEntryRepo(db *gorm.DB, baseLog *logger.Logger) SupervisionEntryRepo {
	return &supervisionEntryRepo{db: db, log: baseLog.With("repo", "SupervisionEntryRepo")}
}

func (r *supervisionEntryRepo) Create(ctx context.Context, tx *gorm.DB, row *types.SupervisionEntry) (*types.SupervisionEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *supervisionEntryRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SupervisionEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.SupervisionEntry
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *supervisionEntryRepo) GetByTraineeID(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID) ([]*types.SupervisionEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.SupervisionEntry
	if traineeID == uuid.Nil {
		return rows, nil
	}
	if err := transaction.WithContext(ctx).
		Where("trainee_id = ?", traineeID).
		Order("session_date asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListTraineeIDs returns the distinct trainees that have at least one
// supervision entry, for batch recalculation.
func (r *supervisionEntryRepo) ListTraineeIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.SupervisionEntry{}).
		Distinct("trainee_id").
		Pluck("trainee_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *supervisionEntryRepo) Update(ctx context.Context, tx *gorm.DB, row *types.SupervisionEntry) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(row).Error
}

func (r *supervisionEntryRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.SupervisionEntry{}).Error
}
