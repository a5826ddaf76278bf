package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/unitrack/attendance-api/internal/models"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
)

type mockAuthUserRepo struct {
	byEmail    map[string]*models.User
	byID       map[string]*models.User
	studentIDs map[string]bool
	created    *models.User
}

func (m *mockAuthUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "usr-new"
	}
	m.created = user
	return nil
}

func (m *mockAuthUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) ExistsStudentID(ctx context.Context, studentID string) (bool, error) {
	return m.studentIDs[studentID], nil
}

func newAuthService(repo *mockAuthUserRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		Secret:      "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "attendance-api",
	})
}

func validRegistration() models.RegisterStudentRequest {
	return models.RegisterStudentRequest{
		Name:       "Alice",
		Email:      "alice@uni.edu",
		Password:   "secret123",
		StudentID:  "CSE-001",
		Intake:     "45",
		Section:    "A",
		Department: "CSE",
	}
}

func TestAuthServiceRegisterStudent(t *testing.T) {
	repo := &mockAuthUserRepo{}
	svc := newAuthService(repo)

	result, err := svc.RegisterStudent(context.Background(), validRegistration())
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, models.RoleStudent, repo.created.Role)
	assert.True(t, repo.created.IsActive)
	assert.NotEqual(t, "secret123", repo.created.PasswordHash)
	assert.NotEmpty(t, result.Token)

	claims, err := svc.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, repo.created.ID, claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	repo := &mockAuthUserRepo{byEmail: map[string]*models.User{
		"alice@uni.edu": {ID: "usr-1", Email: "alice@uni.edu"},
	}}
	svc := newAuthService(repo)

	_, err := svc.RegisterStudent(context.Background(), validRegistration())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDuplicateEmail.Code, appErr.Code)
}

func TestAuthServiceRegisterDuplicateStudentID(t *testing.T) {
	repo := &mockAuthUserRepo{studentIDs: map[string]bool{"CSE-001": true}}
	svc := newAuthService(repo)

	_, err := svc.RegisterStudent(context.Background(), validRegistration())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDuplicateStudentID.Code, appErr.Code)
}

func TestAuthServiceLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &mockAuthUserRepo{byEmail: map[string]*models.User{
		"alice@uni.edu": {ID: "usr-1", Email: "alice@uni.edu", PasswordHash: string(hash), Role: models.RoleStudent},
	}}
	svc := newAuthService(repo)

	result, err := svc.Login(context.Background(), models.LoginRequest{Email: "alice@uni.edu", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "usr-1", result.User.ID)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "alice@uni.edu", Password: "wrong"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := newAuthService(&mockAuthUserRepo{})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@uni.edu", Password: "secret123"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceValidateTokenRejectsTampering(t *testing.T) {
	svc := newAuthService(&mockAuthUserRepo{})

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)

	other := NewAuthService(&mockAuthUserRepo{}, validator.New(), zap.NewNop(), AuthConfig{
		Secret:      "other-secret",
		TokenExpiry: time.Hour,
	})
	token, err := other.generateToken(&models.User{ID: "usr-1", Role: models.RoleStudent})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestAuthServiceSeedAdmin(t *testing.T) {
	repo := &mockAuthUserRepo{}
	svc := newAuthService(repo)

	require.NoError(t, svc.SeedAdmin(context.Background(), "admin@uni.edu", "secret123", "Admin"))
	require.NotNil(t, repo.created)
	assert.Equal(t, models.RoleAdmin, repo.created.Role)

	repo.created = nil
	require.NoError(t, svc.SeedAdmin(context.Background(), "", "", ""))
	assert.Nil(t, repo.created)
}

func TestAuthServiceSeedAdminIdempotent(t *testing.T) {
	repo := &mockAuthUserRepo{byEmail: map[string]*models.User{
		"admin@uni.edu": {ID: "usr-1", Email: "admin@uni.edu", Role: models.RoleAdmin},
	}}
	svc := newAuthService(repo)

	require.NoError(t, svc.SeedAdmin(context.Background(), "admin@uni.edu", "secret123", "Admin"))
	assert.Nil(t, repo.created)
}
