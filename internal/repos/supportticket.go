package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

type SupportTicketRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.SupportTicket) (*types.SupportTicket, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SupportTicket, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.SupportTicket, error)
	ListByStatus(ctx context.Context, tx *gorm.DB, status string) ([]*types.SupportTicket, error)
	Update(ctx context.Context, tx *gorm.DB, row *types.SupportTicket) error
	AddMessage(ctx context.Context, tx *gorm.DB, row *types.SupportTicketMessage) (*types.SupportTicketMessage, error)
}

type supportTicketRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSupportTicketRepo(db *gorm.DB, baseLog *logger.Logger) SupportTicketRepo {
	return &supportTicketRepo{db: db, log: baseLog.With("repo", "SupportTicketRepo")}
}

func (r *supportTicketRepo) Create(ctx context.Context, tx *gorm.DB, row *types.SupportTicket) (*types.SupportTicket, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *supportTicketRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SupportTicket, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.SupportTicket
	if err := transaction.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *supportTicketRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.SupportTicket, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.SupportTicket
	if userID == uuid.Nil {
		return rows, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *supportTicketRepo) ListByStatus(ctx context.Context, tx *gorm.DB, status string) ([]*types.SupportTicket, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.SupportTicket
	q := transaction.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *supportTicketRepo) Update(ctx context.Context, tx *gorm.DB, row *types.SupportTicket) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(row).Error
}

func (r *supportTicketRepo) AddMessage(ctx context.Context, tx *gorm.DB, row *types.SupportTicketMessage) (*types.SupportTicketMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}
