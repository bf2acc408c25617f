package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/suggestbox-go-api/internal/models"
)

type adminRepoStub struct {
	admin       models.Admin
	lastLoginAt time.Time
}

func (s *adminRepoStub) Create(ctx context.Context, admin *models.Admin) error {
	s.admin = *admin
	return nil
}

func (s *adminRepoStub) FindByUsername(ctx context.Context, username string) (models.Admin, error) {
	if s.admin.Username != username {
		return models.Admin{}, gorm.ErrRecordNotFound
	}
	return s.admin, nil
}

func (s *adminRepoStub) FindByID(ctx context.Context, id uint) (models.Admin, error) {
	if s.admin.ID != id {
		return models.Admin{}, gorm.ErrRecordNotFound
	}
	return s.admin, nil
}

func (s *adminRepoStub) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	s.lastLoginAt = at
	return nil
}

func (s *adminRepoStub) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	s.admin.PasswordHash = passwordHash
	return nil
}

func seedAdminRepo(t *testing.T, password string) *adminRepoStub {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &adminRepoStub{admin: models.Admin{ID: 1, Username: "council", PasswordHash: string(hash)}}
}

func TestAuthServiceLoginIssuesVerifiableToken(t *testing.T) {
	repo := seedAdminRepo(t, "correct horse")
	svc := NewAuthService(repo, "test-secret", time.Hour, testLogger())

	token, err := svc.Login(context.Background(), "council", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, token.Token)
	require.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, time.Minute)
	require.False(t, repo.lastLoginAt.IsZero())

	adminID, err := svc.Verify(token.Token)
	require.NoError(t, err)
	require.Equal(t, uint(1), adminID)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := seedAdminRepo(t, "correct horse")
	svc := NewAuthService(repo, "test-secret", time.Hour, testLogger())

	_, err := svc.Login(context.Background(), "council", "battery staple")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthServiceLoginUnknownUser(t *testing.T) {
	repo := seedAdminRepo(t, "correct horse")
	svc := NewAuthService(repo, "test-secret", time.Hour, testLogger())

	_, err := svc.Login(context.Background(), "nobody", "correct horse")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthServiceVerifyRejectsExpiredToken(t *testing.T) {
	repo := seedAdminRepo(t, "correct horse")
	svc := NewAuthService(repo, "test-secret", time.Hour, testLogger())

	claims := adminClaims{
		AdminID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = svc.Verify(expired)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestAuthServiceVerifyRejectsForeignSignature(t *testing.T) {
	repo := seedAdminRepo(t, "correct horse")
	issuer := NewAuthService(repo, "secret-a", time.Hour, testLogger())
	verifier := NewAuthService(repo, "secret-b", time.Hour, testLogger())

	token, err := issuer.Login(context.Background(), "council", "correct horse")
	require.NoError(t, err)

	_, err = verifier.Verify(token.Token)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAuthServiceVerifyRejectsGarbage(t *testing.T) {
	svc := NewAuthService(seedAdminRepo(t, "x"), "test-secret", time.Hour, testLogger())

	_, err := svc.Verify("not-a-token")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAuthServiceCurrentAdmin(t *testing.T) {
	repo := seedAdminRepo(t, "correct horse")
	svc := NewAuthService(repo, "test-secret", time.Hour, testLogger())

	profile, err := svc.CurrentAdmin(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "council", profile.Username)

	_, err = svc.CurrentAdmin(context.Background(), 42)
	require.ErrorIs(t, err, ErrTokenInvalid)
}
