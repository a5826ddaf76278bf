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

type mockEnrollmentRepo struct {
	active       map[string]bool
	created      *models.Enrollment
	byStudent    []models.Enrollment
	statusResult int64
	available    []models.Course
}

func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.ID = "enr-new"
	m.created = enrollment
	return nil
}

func (m *mockEnrollmentRepo) ExistsActive(ctx context.Context, studentID, courseID string) (bool, error) {
	return m.active[studentID+courseID], nil
}

func (m *mockEnrollmentRepo) ListActiveByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	return m.byStudent, nil
}

func (m *mockEnrollmentRepo) ListActiveByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	return nil, nil
}

func (m *mockEnrollmentRepo) ListActiveByCourseFast(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	return nil, nil
}

func (m *mockEnrollmentRepo) ListActiveByTeacher(ctx context.Context, teacherID string) ([]models.Enrollment, error) {
	return nil, nil
}

func (m *mockEnrollmentRepo) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) (int64, error) {
	return m.statusResult, nil
}

func (m *mockEnrollmentRepo) AvailableCourses(ctx context.Context, studentID, department string) ([]models.Course, error) {
	return m.available, nil
}

type mockUserReader struct {
	users map[string]*models.User
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type mockCourseReader struct {
	courses map[string]*models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func newEnrollmentService(repo *mockEnrollmentRepo, users *mockUserReader, courses *mockCourseReader) *EnrollmentService {
	return NewEnrollmentService(repo, users, courses, validator.New(), zap.NewNop())
}

func TestEnrollmentServiceEnrollSnapshotsStudentAndCourse(t *testing.T) {
	repo := &mockEnrollmentRepo{}
	users := &mockUserReader{users: map[string]*models.User{
		"stu-1": {ID: "stu-1", Name: "Alice", Email: "alice@uni.edu", StudentID: "CSE-001", Intake: "45", Section: "A"},
	}}
	courses := &mockCourseReader{courses: map[string]*models.Course{
		"crs-1": {ID: "crs-1", CourseCode: "CSE101", CourseName: "Intro", Department: "CSE"},
	}}
	svc := newEnrollmentService(repo, users, courses)

	enrollment, err := svc.Enroll(context.Background(), models.EnrollRequest{StudentID: "stu-1", CourseID: "crs-1"})
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.Equal(t, "Alice", enrollment.StudentName)
	assert.Equal(t, "CSE-001", enrollment.StudentCustomID)
	assert.Equal(t, "CSE101", enrollment.CourseCode)
	assert.Equal(t, "45", enrollment.Intake)
	assert.Equal(t, "A", enrollment.Section)
	require.NotNil(t, repo.created)
}

func TestEnrollmentServiceEnrollDuplicate(t *testing.T) {
	repo := &mockEnrollmentRepo{active: map[string]bool{"stu-1crs-1": true}}
	svc := newEnrollmentService(repo, &mockUserReader{}, &mockCourseReader{})

	_, err := svc.Enroll(context.Background(), models.EnrollRequest{StudentID: "stu-1", CourseID: "crs-1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErr.Code)
	assert.Nil(t, repo.created)
}

func TestEnrollmentServiceEnrollMissingStudent(t *testing.T) {
	svc := newEnrollmentService(&mockEnrollmentRepo{}, &mockUserReader{}, &mockCourseReader{})

	_, err := svc.Enroll(context.Background(), models.EnrollRequest{StudentID: "ghost", CourseID: "crs-1"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestEnrollmentServiceListByStudentFallsBackWhenCourseMissing(t *testing.T) {
	repo := &mockEnrollmentRepo{byStudent: []models.Enrollment{
		{ID: "enr-1", CourseID: "crs-live"},
		{ID: "enr-2", CourseID: "crs-gone"},
	}}
	courses := &mockCourseReader{courses: map[string]*models.Course{
		"crs-live": {ID: "crs-live", Credits: 4, Description: "desc", Semester: "Spring 2025", TeacherName: "Dr. Rahman"},
	}}
	svc := newEnrollmentService(repo, &mockUserReader{}, courses)

	enrollments, err := svc.ListByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 2)

	live := enrollments[0]
	assert.Equal(t, 4, live.Credits)
	assert.Equal(t, "Spring 2025", live.Semester)
	assert.Equal(t, "Dr. Rahman", live.TeacherName)

	gone := enrollments[1]
	assert.Equal(t, models.DefaultCredits, gone.Credits)
	assert.Equal(t, "N/A", gone.Semester)
	assert.Equal(t, "N/A", gone.TeacherName)
	assert.Empty(t, gone.Description)
}

func TestEnrollmentServiceDropNotFound(t *testing.T) {
	svc := newEnrollmentService(&mockEnrollmentRepo{statusResult: 0}, &mockUserReader{}, &mockCourseReader{})

	err := svc.Drop(context.Background(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
