package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/suggestbox-go-api/internal/dto"
	"github.com/noah-isme/suggestbox-go-api/internal/repository"
)

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords; callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenExpired indicates the bearer token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid indicates the bearer token failed verification.
	ErrTokenInvalid = errors.New("token invalid")
)

// dummyPasswordHash is compared against when the username is unknown so both
// login failure paths cost one bcrypt verification.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type adminClaims struct {
	AdminID uint `json:"admin_id"`
	jwt.RegisteredClaims
}

// AuthService authenticates administrators and issues bearer tokens.
type AuthService interface {
	Login(ctx context.Context, username, password string) (dto.TokenResponse, error)
	Verify(token string) (uint, error)
	CurrentAdmin(ctx context.Context, id uint) (dto.AdminResponse, error)
}

type authService struct {
	repo   repository.AdminRepository
	secret []byte
	ttl    time.Duration
	logger zerolog.Logger
}

// NewAuthService constructs the admin authentication service.
func NewAuthService(repo repository.AdminRepository, secret string, ttl time.Duration, logger zerolog.Logger) AuthService {
	if ttl <= 0 {
		ttl = 720 * time.Minute
	}

	return &authService{
		repo:   repo,
		secret: []byte(secret),
		ttl:    ttl,
		logger: logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Login(ctx context.Context, username, password string) (dto.TokenResponse, error) {
	admin, err := s.repo.FindByUsername(ctx, username)
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.TokenResponse{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	hash := dummyPasswordHash
	if found {
		hash = admin.PasswordHash
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil || !found {
		return dto.TokenResponse{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, admin.ID, now); err != nil {
		s.logger.Warn().Err(err).Str("username", username).Msg("failed to update last login")
	}

	expiresAt := now.Add(s.ttl)
	claims := adminClaims{
		AdminID: admin.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(admin.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return dto.TokenResponse{}, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info().Uint("admin_id", admin.ID).Msg("admin logged in")

	return dto.TokenResponse{Token: token, ExpiresAt: expiresAt}, nil
}

func (s *authService) Verify(token string) (uint, error) {
	claims := &adminClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenInvalid
	}
	if !parsed.Valid || claims.AdminID == 0 {
		return 0, ErrTokenInvalid
	}

	return claims.AdminID, nil
}

func (s *authService) CurrentAdmin(ctx context.Context, id uint) (dto.AdminResponse, error) {
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AdminResponse{}, ErrTokenInvalid
		}
		return dto.AdminResponse{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return dto.NewAdminResponse(admin), nil
}
