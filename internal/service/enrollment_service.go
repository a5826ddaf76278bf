package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unitrack/attendance-api/internal/models"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
)

type enrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	ExistsActive(ctx context.Context, studentID, courseID string) (bool, error)
	ListActiveByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	ListActiveByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error)
	ListActiveByCourseFast(ctx context.Context, courseID string) ([]models.Enrollment, error)
	ListActiveByTeacher(ctx context.Context, teacherID string) ([]models.Enrollment, error)
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) (int64, error)
	AvailableCourses(ctx context.Context, studentID, department string) ([]models.Course, error)
}

type enrollmentUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type enrollmentCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// Fallbacks for the live-course fields when the course behind an enrollment
// has been deleted. The snapshot row still renders.
const (
	fallbackSemester    = "N/A"
	fallbackTeacherName = "N/A"
)

// EnrollmentService manages student-course links.
type EnrollmentService struct {
	repo      enrollmentRepository
	users     enrollmentUserRepository
	courses   enrollmentCourseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService instance.
func NewEnrollmentService(repo enrollmentRepository, users enrollmentUserRepository, courses enrollmentCourseRepository, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EnrollmentService{repo: repo, users: users, courses: courses, validator: validate, logger: logger}
}

// Enroll creates an active enrollment, snapshotting the student and course
// display fields as they stand right now.
func (s *EnrollmentService) Enroll(ctx context.Context, req models.EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	exists, err := s.repo.ExistsActive(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	}

	student, err := s.users.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	enrollment := &models.Enrollment{
		StudentID:       student.ID,
		CourseID:        course.ID,
		StudentName:     student.Name,
		StudentEmail:    student.Email,
		StudentCustomID: student.StudentID,
		CourseCode:      course.CourseCode,
		CourseName:      course.CourseName,
		Department:      course.Department,
		Intake:          student.Intake,
		Section:         student.Section,
		Status:          models.EnrollmentStatusActive,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.logger.Info("student enrolled",
		zap.String("student_id", student.ID),
		zap.String("course_id", course.ID))
	return enrollment, nil
}

// ListByStudent returns a student's active enrollments enriched with live
// course fields. A missing course falls back to defaults instead of dropping
// the row.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentWithCourse, error) {
	enrollments, err := s.repo.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	result := make([]models.EnrollmentWithCourse, 0, len(enrollments))
	for _, e := range enrollments {
		enriched := models.EnrollmentWithCourse{
			Enrollment:  e,
			Credits:     models.DefaultCredits,
			Semester:    fallbackSemester,
			TeacherName: fallbackTeacherName,
		}
		if course, err := s.courses.FindByID(ctx, e.CourseID); err == nil {
			enriched.Credits = course.Credits
			enriched.Description = course.Description
			enriched.Semester = course.Semester
			enriched.TeacherName = course.TeacherName
		}
		result = append(result, enriched)
	}
	return result, nil
}

// ListByCourse returns a course's active enrollments with orphaned rows
// filtered out.
func (s *EnrollmentService) ListByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	enrollments, err := s.repo.ListActiveByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// ListByCourseFast returns a course's active enrollments straight from the
// snapshots, skipping the orphan filter for speed.
func (s *EnrollmentService) ListByCourseFast(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	enrollments, err := s.repo.ListActiveByCourseFast(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// ListByTeacher returns active enrollments across every course owned by the
// teacher.
func (s *EnrollmentService) ListByTeacher(ctx context.Context, teacherID string) ([]models.Enrollment, error) {
	enrollments, err := s.repo.ListActiveByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// Drop soft-deletes an enrollment by flipping its status. Attendance history
// is untouched.
func (s *EnrollmentService) Drop(ctx context.Context, id string) error {
	affected, err := s.repo.UpdateStatus(ctx, id, models.EnrollmentStatusDropped)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to drop enrollment")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	return nil
}

// AvailableCourses returns the department's active courses the student is not
// yet enrolled in. Intake is accepted for symmetry with the client but does
// not narrow the result.
func (s *EnrollmentService) AvailableCourses(ctx context.Context, studentID, department, intake string) ([]models.Course, error) {
	_ = intake
	courses, err := s.repo.AvailableCourses(ctx, studentID, department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available courses")
	}
	return courses, nil
}
