package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unitrack/attendance-api/internal/models"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
)

type mockUserRepo struct {
	byEmail      map[string]*models.User
	listed       []models.User
	created      *models.User
	deleteResult int64
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = "usr-new"
	m.created = user
	return nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) List(ctx context.Context, role models.Role) ([]models.User, error) {
	return m.listed, nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) (int64, error) {
	return m.deleteResult, nil
}

type mockStudentEnrollments struct {
	deletedStudent string
}

func (m *mockStudentEnrollments) DeleteByStudent(ctx context.Context, studentID string) (int64, error) {
	m.deletedStudent = studentID
	return 1, nil
}

func TestUserServiceListRejectsUnknownRole(t *testing.T) {
	svc := NewUserService(&mockUserRepo{}, &mockStudentEnrollments{}, validator.New(), zap.NewNop())

	_, err := svc.List(context.Background(), "janitor")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUserServiceCreateTeacher(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewUserService(repo, &mockStudentEnrollments{}, validator.New(), zap.NewNop())

	teacher, err := svc.CreateTeacher(context.Background(), models.CreateTeacherRequest{
		Name:     "Dr. Rahman",
		Email:    "rahman@uni.edu",
		Password: "secret123",
	}, "adm-1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, teacher.Role)
	require.NotNil(t, teacher.CreatedBy)
	assert.Equal(t, "adm-1", *teacher.CreatedBy)
	assert.NotEqual(t, "secret123", teacher.PasswordHash)
}

func TestUserServiceCreateTeacherDuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{byEmail: map[string]*models.User{
		"rahman@uni.edu": {ID: "usr-1"},
	}}
	svc := NewUserService(repo, &mockStudentEnrollments{}, validator.New(), zap.NewNop())

	_, err := svc.CreateTeacher(context.Background(), models.CreateTeacherRequest{
		Name:     "Dr. Rahman",
		Email:    "rahman@uni.edu",
		Password: "secret123",
	}, "adm-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDuplicateEmail.Code, appErr.Code)
}

func TestUserServiceDeleteCascadesEnrollments(t *testing.T) {
	enrollments := &mockStudentEnrollments{}
	svc := NewUserService(&mockUserRepo{deleteResult: 1}, enrollments, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "usr-1"))
	assert.Equal(t, "usr-1", enrollments.deletedStudent)
}

func TestUserServiceDeleteNotFound(t *testing.T) {
	svc := NewUserService(&mockUserRepo{deleteResult: 0}, &mockStudentEnrollments{}, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
