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
	"github.com/unitrack/attendance-api/internal/repository"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
)

type mockCourseRepo struct {
	courses      map[string]*models.Course
	created      *models.Course
	updateResult int64
	deleteResult int64
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	course.ID = "crs-new"
	m.created = course
	return nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) List(ctx context.Context, teacherID, department string) ([]models.Course, error) {
	return nil, nil
}

func (m *mockCourseRepo) Update(ctx context.Context, id string, patch repository.CoursePatch) (int64, error) {
	return m.updateResult, nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) (int64, error) {
	return m.deleteResult, nil
}

type mockCascadeEnrollments struct {
	deletedCourse string
}

func (m *mockCascadeEnrollments) DeleteByCourse(ctx context.Context, courseID string) (int64, error) {
	m.deletedCourse = courseID
	return 2, nil
}

func TestCourseServiceCreateDefaultsCredits(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := NewCourseService(repo, &mockCascadeEnrollments{}, validator.New(), zap.NewNop())

	course, err := svc.Create(context.Background(), models.CreateCourseRequest{
		CourseCode: "CSE101",
		CourseName: "Intro",
		Department: "CSE",
		TeacherID:  "tch-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCredits, course.Credits)
	assert.True(t, course.IsActive)
}

func TestCourseServiceUpdateNotFound(t *testing.T) {
	svc := NewCourseService(&mockCourseRepo{updateResult: 0}, &mockCascadeEnrollments{}, validator.New(), zap.NewNop())

	code := "CSE999"
	err := svc.Update(context.Background(), "missing", models.UpdateCourseRequest{CourseCode: &code})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCourseServiceDeleteCascadesEnrollments(t *testing.T) {
	enrollments := &mockCascadeEnrollments{}
	svc := NewCourseService(&mockCourseRepo{deleteResult: 1}, enrollments, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "crs-1"))
	assert.Equal(t, "crs-1", enrollments.deletedCourse)
}

func TestCourseServiceDeleteNotFoundStillRemovesEnrollments(t *testing.T) {
	enrollments := &mockCascadeEnrollments{}
	svc := NewCourseService(&mockCourseRepo{deleteResult: 0}, enrollments, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "missing", enrollments.deletedCourse)
}
