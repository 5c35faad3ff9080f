package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/practicetrack/practicetrack-backend/internal/apierr"
	"github.com/practicetrack/practicetrack-backend/internal/logger"
	"github.com/practicetrack/practicetrack-backend/internal/repos"
	"github.com/practicetrack/practicetrack-backend/internal/types"
)

type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	Role        string `json:"role"`
	AhpraNumber string `json:"ahpra_number"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService issues HS256 access tokens backed by rotating refresh tokens
// persisted in user_token.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*types.User, *TokenPair, error)
	Login(ctx context.Context, email, password string) (*types.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	ParseAccessToken(tokenString string) (*JWTClaims, error)
	AccessTTL() time.Duration
}

type authService struct {
	db         *gorm.DB
	log        *logger.Logger
	users      repos.UserRepo
	tokens     repos.UserTokenRepo
	avatars    AvatarService
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(db *gorm.DB, log *logger.Logger, users repos.UserRepo, tokens repos.UserTokenRepo, avatars AvatarService, jwtSecret string, accessTTL, refreshTTL time.Duration) AuthService {
	return &authService{
		db:         db,
		log:        log.With("service", "AuthService"),
		users:      users,
		tokens:     tokens,
		avatars:    avatars,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (as *authService) Register(ctx context.Context, input RegisterInput) (*types.User, *TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	fullName := strings.TrimSpace(input.FullName)
	role := input.Role
	if role == "" {
		role = types.RoleTrainee
	}

	switch {
	case email == "" || !strings.Contains(email, "@"):
		return nil, nil, apierr.Validation("a valid email is required")
	case len(input.Password) < 8:
		return nil, nil, apierr.Validation("password must be at least 8 characters")
	case fullName == "":
		return nil, nil, apierr.Validation("full name is required")
	}
	switch role {
	case types.RoleTrainee, types.RoleSupervisor, types.RoleAdmin:
	default:
		return nil, nil, apierr.Validation("unknown role %q", role)
	}

	if _, err := as.users.GetByEmail(ctx, nil, email); err == nil {
		return nil, nil, apierr.Conflict("an account with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apierr.AsError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, apierr.AsError(err)
	}

	user := &types.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Role:         role,
		AhpraNumber:  strings.TrimSpace(input.AhpraNumber),
	}

	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if as.avatars != nil {
			if err := as.avatars.CreateUserAvatar(ctx, user); err != nil {
				as.log.Warn("Failed to render initials avatar", "user_id", user.ID, "error", err)
			}
		}
		if _, err := as.users.Create(ctx, tx, user); err != nil {
			return apierr.AsError(err)
		}
		var err error
		pair, err = as.issueTokens(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	as.log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, pair, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*types.User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, nil, apierr.Validation("email and password are required")
	}

	user, err := as.users.GetByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apierr.Unauthorized("invalid email or password")
		}
		return nil, nil, apierr.AsError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, apierr.Unauthorized("invalid email or password")
	}

	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		pair, err = as.issueTokens(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh rotates the refresh token: the presented token is revoked and a
// fresh pair is issued in the same transaction.
func (as *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apierr.Unauthorized("refresh token is required")
	}

	var pair *TokenPair
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := as.tokens.GetByRefreshToken(ctx, tx, refreshToken)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierr.Unauthorized("refresh token not recognised")
			}
			return apierr.AsError(err)
		}
		if row.ExpiresAt.Before(time.Now().UTC()) {
			return apierr.Unauthorized("refresh token expired")
		}
		user, err := as.users.GetByID(ctx, tx, row.UserID)
		if err != nil {
			return apierr.AsError(err)
		}
		if err := as.tokens.Revoke(ctx, tx, row.ID); err != nil {
			return apierr.AsError(err)
		}
		pair, err = as.issueTokens(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (as *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	row, err := as.tokens.GetByRefreshToken(ctx, nil, refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apierr.AsError(err)
	}
	if err := as.tokens.Revoke(ctx, nil, row.ID); err != nil {
		return apierr.AsError(err)
	}
	return nil
}

func (as *authService) ParseAccessToken(tokenString string) (*JWTClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apierr.Unauthorized("unexpected signing method %v", token.Header["alg"])
		}
		return as.jwtSecret, nil
	})
	if err != nil {
		return nil, apierr.Unauthorized("invalid or expired token")
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return nil, apierr.Unauthorized("invalid or expired token")
	}
	return claims, nil
}

func (as *authService) AccessTTL() time.Duration { return as.accessTTL }

func (as *authService) issueTokens(ctx context.Context, tx *gorm.DB, user *types.User) (*TokenPair, error) {
	now := time.Now().UTC()
	claims := JWTClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.jwtSecret)
	if err != nil {
		return nil, apierr.AsError(err)
	}

	refresh := uuid.New().String()
	row := &types.UserToken{
		UserID:       user.ID,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(as.refreshTTL),
	}
	if _, err := as.tokens.Create(ctx, tx, row); err != nil {
		return nil, apierr.AsError(err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
