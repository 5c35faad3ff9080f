package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

// ErrStaleStatus is returned when a guarded update finds the stored status no
// longer matches the status the caller read. Services surface it as a
// conflict so the caller refetches and retries.
var ErrStaleStatus = errors.New("logbook status changed since it was read")

type WeeklyLogbookRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.WeeklyLogbook) (*types.WeeklyLogbook, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WeeklyLogbook, error)
	GetByTraineeAndWeekStart(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID, weekStart time.Time) (*types.WeeklyLogbook, error)
	GetByTraineeID(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID) ([]*types.WeeklyLogbook, error)
	ListSubmittedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.WeeklyLogbook, error)
	UpdateGuarded(ctx context.Context, tx *gorm.DB, row *types.WeeklyLogbook, expectedStatus string) error
}

type weeklyLogbookRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWeeklyLogbookRepo(db *gorm.DB, baseLog *logger.Logger) WeeklyLogbookRepo {
	return &weeklyLogbookRepo{db: db, log: baseLog.With("repo", "WeeklyLogbookRepo")}
}

func (r *weeklyLogbookRepo) Create(ctx context.Context, tx *gorm.DB, row *types.WeeklyLogbook) (*types.WeeklyLogbook, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *weeklyLogbookRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WeeklyLogbook, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.WeeklyLogbook
	if err := transaction.WithContext(ctx).
		Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("section asc, position asc")
		}).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *weeklyLogbookRepo) GetByTraineeAndWeekStart(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID, weekStart time.Time) (*types.WeeklyLogbook, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.WeeklyLogbook
	if err := transaction.WithContext(ctx).
		Where("trainee_id = ? AND week_start = ?", traineeID, weekStart).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *weeklyLogbookRepo) GetByTraineeID(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID) ([]*types.WeeklyLogbook, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.WeeklyLogbook
	if traineeID == uuid.Nil {
		return rows, nil
	}
	if err := transaction.WithContext(ctx).
		Where("trainee_id = ?", traineeID).
		Order("week_start desc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListSubmittedBefore finds logbooks sitting in submitted since before the
// cutoff, used by the reminder sweep.
func (r *weeklyLogbookRepo) ListSubmittedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.WeeklyLogbook, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.WeeklyLogbook
	if err := transaction.WithContext(ctx).
		Where("status = ? AND submitted_at < ?", types.LogbookStatusSubmitted, cutoff).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateGuarded persists every mutable column of row, but only when the
// stored status still equals expectedStatus. Zero rows affected means a
// concurrent actor already transitioned the logbook.
func (r *weeklyLogbookRepo) UpdateGuarded(ctx context.Context, tx *gorm.DB, row *types.WeeklyLogbook, expectedStatus string) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.WeeklyLogbook{}).
		Where("id = ? AND status = ?", row.ID, expectedStatus).
		Select("*").
		Omit("id", "trainee_id", "week_start", "week_end", "created_at", "deleted_at").
		Updates(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}
