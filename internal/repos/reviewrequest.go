package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

type ReviewRequestRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.LogbookReviewRequest) ([]*types.LogbookReviewRequest, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LogbookReviewRequest, error)
	GetByLogbookID(ctx context.Context, tx *gorm.DB, logbookID uuid.UUID) ([]*types.LogbookReviewRequest, error)
	GetOpenByLogbookID(ctx context.Context, tx *gorm.DB, logbookID uuid.UUID) ([]*types.LogbookReviewRequest, error)
	Update(ctx context.Context, tx *gorm.DB, row *types.LogbookReviewRequest) error
}

type reviewRequestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRequestRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRequestRepo {
	return &reviewRequestRepo{db: db, log: baseLog.With("repo", "ReviewRequestRepo")}
}

func (r *reviewRequestRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.LogbookReviewRequest) ([]*types.LogbookReviewRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.LogbookReviewRequest{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *reviewRequestRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.LogbookReviewRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.LogbookReviewRequest
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *reviewRequestRepo) GetByLogbookID(ctx context.Context, tx *gorm.DB, logbookID uuid.UUID) ([]*types.LogbookReviewRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.LogbookReviewRequest
	if logbookID == uuid.Nil {
		return rows, nil
	}
	if err := transaction.WithContext(ctx).
		Where("logbook_id = ?", logbookID).
		Order("requested_at asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *reviewRequestRepo) GetOpenByLogbookID(ctx context.Context, tx *gorm.DB, logbookID uuid.UUID) ([]*types.LogbookReviewRequest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.LogbookReviewRequest
	if logbookID == uuid.Nil {
		return rows, nil
	}
	if err := transaction.WithContext(ctx).
		Where("logbook_id = ? AND status IN ?", logbookID,
			[]string{types.ReviewRequestPending, types.ReviewRequestInProgress}).
		Order("requested_at asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *reviewRequestRepo) Update(ctx context.Context, tx *gorm.DB, row *types.LogbookReviewRequest) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(row).Error
}
