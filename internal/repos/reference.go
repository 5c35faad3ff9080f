package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

// ReferenceRepo serves the seeded AHPRA competency/EPA reference tables.
type ReferenceRepo interface {
	ListCompetencies(ctx context.Context, tx *gorm.DB) ([]*types.Competency, error)
	GetCompetencyByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Competency, error)
	ListDescriptorsByCodes(ctx context.Context, tx *gorm.DB, codes []string) ([]*types.CompetencyDescriptor, error)
	ListEPAs(ctx context.Context, tx *gorm.DB) ([]*types.EPA, error)
	SeedCompetencies(ctx context.Context, tx *gorm.DB, rows []*types.Competency) error
	SeedEPAs(ctx context.Context, tx *gorm.DB, rows []*types.EPA) error
	CountCompetencies(ctx context.Context, tx *gorm.DB) (int64, error)
}

type referenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReferenceRepo(db *gorm.DB, baseLog *logger.Logger) ReferenceRepo {
	return &referenceRepo{db: db, log: baseLog.With("repo", "ReferenceRepo")}
}

func (r *referenceRepo) ListCompetencies(ctx context.Context, tx *gorm.DB) ([]*types.Competency, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.Competency
	if err := transaction.WithContext(ctx).
		Preload("Descriptors", func(db *gorm.DB) *gorm.DB {
			return db.Order("code asc")
		}).
		Order("code asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *referenceRepo) GetCompetencyByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Competency, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.Competency
	if err := transaction.WithContext(ctx).
		Preload("Descriptors").
		Where("code = ?", code).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *referenceRepo) ListDescriptorsByCodes(ctx context.Context, tx *gorm.DB, codes []string) ([]*types.CompetencyDescriptor, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.CompetencyDescriptor
	if len(codes) == 0 {
		return rows, nil
	}
	if err := transaction.WithContext(ctx).
		Where("code IN ?", codes).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *referenceRepo) ListEPAs(ctx context.Context, tx *gorm.DB) ([]*types.EPA, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.EPA
	if err := transaction.WithContext(ctx).
		Order("code asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *referenceRepo) SeedCompetencies(ctx context.Context, tx *gorm.DB, rows []*types.Competency) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&rows).Error
}

func (r *referenceRepo) SeedEPAs(ctx context.Context, tx *gorm.DB, rows []*types.EPA) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).Create(&rows).Error
}

func (r *referenceRepo) CountCompetencies(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Competency{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
