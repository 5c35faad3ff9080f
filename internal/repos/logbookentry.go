package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

type LogbookEntryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.LogbookEntry) (*types.LogbookEntry, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LogbookEntry, error)
	GetByLogbookID(ctx context.Context, tx *gorm.DB, logbookID uuid.UUID) ([]*types.LogbookEntry, error)
	CountBySection(ctx context.Context, tx *gorm.DB, logbookID uuid.UUID) (map[string]int64, error)
	Update(ctx context.Context, tx *gorm.DB, row *types.LogbookEntry) error
	SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type logbookEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLogbookEntryRepo(db *gorm.DB, baseLog *logger.Logger) LogbookEntryRepo {
	return &logbookEntryRepo{db: db, log: baseLog.With("repo", "LogbookEntryRepo")}
}

func (r *logbookEntryRepo) Create(ctx context.Context, tx *gorm.DB, row *types.LogbookEntry) (*types.LogbookEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *logbookEntryRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LogbookEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.LogbookEntry
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *logbookEntryRepo) GetByLogbookID(ctx context.Context, tx *gorm.DB, logbookID uuid.UUID) ([]*types.LogbookEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.LogbookEntry
	if logbookID == uuid.Nil {
		return rows, nil
	}
	if err := transaction.WithContext(ctx).
		Where("logbook_id = ?", logbookID).
		Order("section asc, position asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *logbookEntryRepo) CountBySection(ctx context.Context, tx *gorm.DB, logbookID uuid.UUID) (map[string]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []struct {
		Section string
		Count   int64
	}
	if err := transaction.WithContext(ctx).
		Model(&types.LogbookEntry{}).
		Select("section, count(*) as count").
		Where("logbook_id = ?", logbookID).
		Group("section").
		Scan(&results).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(results))
	for _, res := range results {
		counts[res.Section] = res.Count
	}
	return counts, nil
}

func (r *logbookEntryRepo) Update(ctx context.Context, tx *gorm.DB, row *types.LogbookEntry) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(row).Error
}

func (r *logbookEntryRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.LogbookEntry{}).Error
}
