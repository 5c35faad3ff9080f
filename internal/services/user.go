package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/repos"
	"github.com/practicetrack/practicetrack-backend/internal/sse"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

type UserService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*types.User, error)
	ListByRole(ctx context.Context, role string) ([]*types.User, error)
	UpdateName(ctx context.Context, userID uuid.UUID, fullName string) (*types.User, error)
	UpdateAhpraNumber(ctx context.Context, userID uuid.UUID, ahpraNumber string) (*types.User, error)
	UpdateAvatarColor(ctx context.Context, userID uuid.UUID, colorHex string) (*types.User, error)
	UploadAvatarImage(ctx context.Context, userID uuid.UUID, raw []byte) (*types.User, error)
}

type userService struct {
	db      *gorm.DB
	log     *logger.Logger
	users   repos.UserRepo
	avatars AvatarService
	emit    SSEEmitter
}

func NewUserService(db *gorm.DB, log *logger.Logger, users repos.UserRepo, avatars AvatarService, emit SSEEmitter) UserService {
	return &userService{
		db:      db,
		log:     log.With("service", "UserService"),
		users:   users,
		avatars: avatars,
		emit:    emit,
	}
}

func (us *userService) GetByID(ctx context.Context, id uuid.UUID) (*types.User, error) {
	user, err := us.users.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFound("user %s not found", id)
		}
		return nil, apierr.AsError(err)
	}
	return user, nil
}

func (us *userService) ListByRole(ctx context.Context, role string) ([]*types.User, error) {
	switch role {
	case types.RoleTrainee, types.RoleSupervisor, types.RoleAdmin:
	default:
		return nil, apierr.Validation("unknown role %q", role)
	}
	rows, err := us.users.ListByRole(ctx, nil, role)
	if err != nil {
		return nil, apierr.AsError(err)
	}
	return rows, nil
}

// UpdateName re-renders the initials avatar since the initials may change.
func (us *userService) UpdateName(ctx context.Context, userID uuid.UUID, fullName string) (*types.User, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, apierr.Validation("full name is required")
	}

	user, err := us.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.FullName = fullName
	if us.avatars != nil {
		if err := us.avatars.CreateUserAvatar(ctx, user); err != nil {
			us.log.Warn("Failed to re-render avatar after name change", "user_id", userID, "error", err)
		}
	}
	if err := us.users.Update(ctx, nil, user); err != nil {
		return nil, apierr.AsError(err)
	}
	us.emitAvatarChanged(ctx, user)
	return user, nil
}

func (us *userService) UpdateAhpraNumber(ctx context.Context, userID uuid.UUID, ahpraNumber string) (*types.User, error) {
	ahpraNumber = strings.ToUpper(strings.TrimSpace(ahpraNumber))
	if ahpraNumber == "" {
		return nil, apierr.Validation("ahpra number is required")
	}

	user, err := us.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.AhpraNumber = ahpraNumber
	if err := us.users.Update(ctx, nil, user); err != nil {
		return nil, apierr.AsError(err)
	}
	return user, nil
}

func (us *userService) UpdateAvatarColor(ctx context.Context, userID uuid.UUID, colorHex string) (*types.User, error) {
	user, err := us.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.AvatarColorHex = colorHex
	if us.avatars != nil {
		if err := us.avatars.CreateUserAvatar(ctx, user); err != nil {
			return nil, apierr.AsError(err)
		}
	}
	if err := us.users.Update(ctx, nil, user); err != nil {
		return nil, apierr.AsError(err)
	}
	us.emitAvatarChanged(ctx, user)
	return user, nil
}

func (us *userService) UploadAvatarImage(ctx context.Context, userID uuid.UUID, raw []byte) (*types.User, error) {
	if len(raw) == 0 {
		return nil, apierr.Validation("image payload is empty")
	}

	user, err := us.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := us.avatars.SetUserAvatarFromImage(ctx, user, raw); err != nil {
		return nil, apierr.Validation("could not process avatar image: %v", err)
	}
	if err := us.users.Update(ctx, nil, user); err != nil {
		return nil, apierr.AsError(err)
	}
	us.emitAvatarChanged(ctx, user)
	return user, nil
}

func (us *userService) emitAvatarChanged(ctx context.Context, user *types.User) {
	if us.emit == nil {
		return
	}
	us.emit.Emit(ctx, sse.SSEMessage{
		Channel: user.ID.String(),
		Event:   sse.SSEEventUserAvatarUpdated,
		Data: map[string]any{
			"avatar_path":      user.AvatarPath,
			"avatar_color_hex": user.AvatarColorHex,
		},
	})
}
