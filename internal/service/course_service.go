package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unitrack/attendance-api/internal/models"
	"github.com/unitrack/attendance-api/internal/repository"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
)

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, teacherID, department string) ([]models.Course, error)
	Update(ctx context.Context, id string, patch repository.CoursePatch) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type courseEnrollmentRepository interface {
	DeleteByCourse(ctx context.Context, courseID string) (int64, error)
}

// CourseService provides course management.
type CourseService struct {
	repo        courseRepository
	enrollments courseEnrollmentRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService constructs a CourseService instance.
func NewCourseService(repo courseRepository, enrollments courseEnrollmentRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CourseService{repo: repo, enrollments: enrollments, validator: validate, logger: logger}
}

// Create registers a new course. Credits default when absent; course codes
// are not required to be unique across offerings.
func (s *CourseService) Create(ctx context.Context, req models.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	credits := req.Credits
	if credits == 0 {
		credits = models.DefaultCredits
	}

	course := &models.Course{
		CourseCode:  req.CourseCode,
		CourseName:  req.CourseName,
		Department:  req.Department,
		Credits:     credits,
		Description: req.Description,
		TeacherID:   req.TeacherID,
		TeacherName: req.TeacherName,
		Semester:    req.Semester,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("course_code", course.CourseCode))
	return course, nil
}

// Get returns one course by id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// List returns active courses, optionally filtered by teacher or department.
func (s *CourseService) List(ctx context.Context, teacherID, department string) ([]models.Course, error) {
	courses, err := s.repo.List(ctx, teacherID, department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Update applies a partial edit to a course.
func (s *CourseService) Update(ctx context.Context, id string, req models.UpdateCourseRequest) error {
	patch := repository.CoursePatch{
		CourseCode:  req.CourseCode,
		CourseName:  req.CourseName,
		Department:  req.Department,
		Credits:     req.Credits,
		Description: req.Description,
		Semester:    req.Semester,
		IsActive:    req.IsActive,
	}
	affected, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return nil
}

// Delete hard-deletes a course together with its enrollments. Attendance
// history is left in place.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	removed, err := s.enrollments.DeleteByCourse(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollments")
	}

	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}

	s.logger.Info("course deleted", zap.String("course_id", id), zap.Int64("enrollments_removed", removed))
	return nil
}
