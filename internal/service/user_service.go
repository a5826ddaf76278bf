package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/unitrack/attendance-api/internal/models"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
)

type userRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, role models.Role) ([]models.User, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type userEnrollmentRepository interface {
	DeleteByStudent(ctx context.Context, studentID string) (int64, error)
}

// UserService provides admin-facing account management.
type UserService struct {
	repo        userRepository
	enrollments userEnrollmentRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewUserService constructs a UserService instance.
func NewUserService(repo userRepository, enrollments userEnrollmentRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, enrollments: enrollments, validator: validate, logger: logger}
}

// List returns accounts, optionally filtered by role.
func (s *UserService) List(ctx context.Context, role string) ([]models.User, error) {
	r := models.Role(role)
	if role != "" && !r.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid role filter")
	}
	users, err := s.repo.List(ctx, r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, nil
}

// CreateTeacher provisions a teacher account on behalf of an admin.
func (s *UserService) CreateTeacher(ctx context.Context, req models.CreateTeacherRequest, createdBy string) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicateEmail, "")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	teacher := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         models.RoleTeacher,
		IsActive:     true,
	}
	if createdBy != "" {
		teacher.CreatedBy = &createdBy
	}
	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	s.logger.Info("teacher created", zap.String("user_id", teacher.ID), zap.String("created_by", createdBy))
	return teacher, nil
}

// Delete removes an account and hard-deletes its enrollments. Attendance
// history is left in place.
func (s *UserService) Delete(ctx context.Context, id string) error {
	removed, err := s.enrollments.DeleteByStudent(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete enrollments")
	}

	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}

	s.logger.Info("user deleted", zap.String("user_id", id), zap.Int64("enrollments_removed", removed))
	return nil
}
