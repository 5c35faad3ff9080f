package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

type InviteRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.SupervisionInvite) (*types.SupervisionInvite, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SupervisionInvite, error)
	GetByToken(ctx context.Context, tx *gorm.DB, token string) (*types.SupervisionInvite, error)
	ListBySupervisorID(ctx context.Context, tx *gorm.DB, supervisorID uuid.UUID) ([]*types.SupervisionInvite, error)
	ListPendingExpired(ctx context.Context, tx *gorm.DB, now time.Time) ([]*types.SupervisionInvite, error)
	ListAcceptedByTraineeID(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID) ([]*types.SupervisionInvite, error)
	Update(ctx context.Context, tx *gorm.DB, row *types.SupervisionInvite) error
}

type inviteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInviteRepo(db *gorm.DB, baseLog *logger.Logger) InviteRepo {
	return &inviteRepo{db: db, log: baseLog.With("repo", "InviteRepo")}
}

func (r *inviteRepo) Create(ctx context.Context, tx *gorm.DB, row *types.SupervisionInvite) (*types.SupervisionInvite, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *inviteRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SupervisionInvite, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.SupervisionInvite
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *inviteRepo) GetByToken(ctx context.Context, tx *gorm.DB, token string) (*types.SupervisionInvite, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var row types.SupervisionInvite
	if err := transaction.WithContext(ctx).
		Where("token = ?", token).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *inviteRepo) ListBySupervisorID(ctx context.Context, tx *gorm.DB, supervisorID uuid.UUID) ([]*types.SupervisionInvite, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.SupervisionInvite
	if supervisorID == uuid.Nil {
		return rows, nil
	}
	if err := transaction.WithContext(ctx).
		Where("supervisor_id = ?", supervisorID).
		Order("created_at desc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *inviteRepo) ListPendingExpired(ctx context.Context, tx *gorm.DB, now time.Time) ([]*types.SupervisionInvite, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.SupervisionInvite
	if err := transaction.WithContext(ctx).
		Where("status = ? AND expires_at < ?", types.InviteStatusPending, now).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *inviteRepo) ListAcceptedByTraineeID(ctx context.Context, tx *gorm.DB, traineeID uuid.UUID) ([]*types.SupervisionInvite, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.SupervisionInvite
	if traineeID == uuid.Nil {
		return rows, nil
	}
	if err := transaction.WithContext(ctx).
		Where("trainee_id = ? AND status = ?", traineeID, types.InviteStatusAccepted).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *inviteRepo) Update(ctx context.Context, tx *gorm.DB, row *types.SupervisionInvite) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(row).Error
}
