package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/unitrack/attendance-api/internal/models"
	"github.com/unitrack/attendance-api/internal/repository"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
)

type attendanceRepository interface {
	TakeBulk(ctx context.Context, courseID, date, intake, section string, records []models.Attendance) (int, bool, error)
	Upsert(ctx context.Context, record *models.Attendance) error
	Update(ctx context.Context, id string, patch repository.AttendancePatch) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
	ListByCourse(ctx context.Context, courseID, date string) ([]models.Attendance, error)
	ListByStudent(ctx context.Context, studentID, courseID string) ([]models.Attendance, error)
	ListForStudents(ctx context.Context, courseID string, studentIDs []string, from, to string) ([]models.Attendance, error)
}

type attendanceEnrollmentRepository interface {
	ListActiveByCourseFast(ctx context.Context, courseID string) ([]models.Enrollment, error)
	ListActiveByCourseFiltered(ctx context.Context, courseID, intake, section string) ([]models.Enrollment, error)
}

// AttendanceService records and edits attendance.
type AttendanceService struct {
	repo        attendanceRepository
	enrollments attendanceEnrollmentRepository
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService constructs an AttendanceService instance.
func NewAttendanceService(repo attendanceRepository, enrollments attendanceEnrollmentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceService{repo: repo, enrollments: enrollments, cache: cache, validator: validate, logger: logger}
}

// TakeBulk records one section's attendance for a day. The first submission
// for a (course, date, intake, section) wins; later ones come back with
// Success=false and nothing written. Students with an empty status are
// skipped, not marked absent.
func (s *AttendanceService) TakeBulk(ctx context.Context, req models.TakeBulkAttendanceRequest) (*models.TakeBulkAttendanceResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if _, err := time.Parse(models.DateLayout, req.Date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be in YYYY-MM-DD format")
	}

	result := &models.TakeBulkAttendanceResult{}
	records := make([]models.Attendance, 0, len(req.Students))
	for studentID, status := range req.Students {
		if status == "" {
			continue
		}
		st := models.AttendanceStatus(status)
		if !st.Valid() {
			result.Errors = append(result.Errors, fmt.Sprintf("invalid status %q for student %s", status, studentID))
			continue
		}
		records = append(records, models.Attendance{
			CourseID:  req.CourseID,
			StudentID: studentID,
			Intake:    req.Intake,
			Section:   req.Section,
			Date:      req.Date,
			Status:    st,
			Notes:     req.Notes,
			TakenBy:   req.TakenBy,
		})
	}

	created, alreadyTaken, err := s.repo.TakeBulk(ctx, req.CourseID, req.Date, req.Intake, req.Section, records)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	if alreadyTaken {
		result.Success = false
		result.Message = "Attendance already recorded for this date, intake, and section"
		return result, nil
	}

	result.Success = true
	result.Created = created
	s.invalidateCourseReports(ctx, req.CourseID)
	s.logger.Info("attendance recorded",
		zap.String("course_id", req.CourseID),
		zap.String("date", req.Date),
		zap.Int("created", created))
	return result, nil
}

// Record writes or replaces a single attendance entry.
func (s *AttendanceService) Record(ctx context.Context, req models.CreateAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if _, err := time.Parse(models.DateLayout, req.Date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be in YYYY-MM-DD format")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid attendance status")
	}

	record := &models.Attendance{
		CourseID:     req.CourseID,
		StudentID:    req.StudentID,
		StudentName:  req.StudentName,
		StudentEmail: req.StudentEmail,
		Intake:       req.Intake,
		Section:      req.Section,
		Date:         req.Date,
		Status:       req.Status,
		Notes:        req.Notes,
		TakenBy:      req.TakenBy,
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	s.invalidateCourseReports(ctx, req.CourseID)
	return record, nil
}

// Update applies a partial edit to an attendance record.
func (s *AttendanceService) Update(ctx context.Context, id string, req models.UpdateAttendanceRequest) error {
	if req.Status != nil && !req.Status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "invalid attendance status")
	}
	if req.Date != nil {
		if _, err := time.Parse(models.DateLayout, *req.Date); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "date must be in YYYY-MM-DD format")
		}
	}

	patch := repository.AttendancePatch{Status: req.Status, Notes: req.Notes, Date: req.Date}
	affected, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update attendance")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
	}

	s.invalidateAllReports(ctx)
	return nil
}

// Delete removes an attendance record.
func (s *AttendanceService) Delete(ctx context.Context, id string) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete attendance")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "attendance record not found")
	}

	s.invalidateAllReports(ctx)
	return nil
}

// ByCourse returns a course's records, optionally narrowed to one day.
func (s *AttendanceService) ByCourse(ctx context.Context, courseID, date string) ([]models.Attendance, error) {
	records, err := s.repo.ListByCourse(ctx, courseID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// ByStudent returns a student's records, optionally narrowed to one course.
func (s *AttendanceService) ByStudent(ctx context.Context, studentID, courseID string) ([]models.Attendance, error) {
	records, err := s.repo.ListByStudent(ctx, studentID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// IntakesAndSections derives the distinct intake and section values among a
// course's active enrollments, plus which sections appear under each intake.
func (s *AttendanceService) IntakesAndSections(ctx context.Context, courseID string) (*models.IntakeSections, error) {
	enrollments, err := s.enrollments.ListActiveByCourseFast(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	intakeSet := map[string]struct{}{}
	sectionSet := map[string]struct{}{}
	pairSet := map[string]map[string]struct{}{}
	for _, e := range enrollments {
		if e.Intake != "" {
			intakeSet[e.Intake] = struct{}{}
		}
		if e.Section != "" {
			sectionSet[e.Section] = struct{}{}
		}
		if e.Intake != "" && e.Section != "" {
			if pairSet[e.Intake] == nil {
				pairSet[e.Intake] = map[string]struct{}{}
			}
			pairSet[e.Intake][e.Section] = struct{}{}
		}
	}

	result := &models.IntakeSections{
		Intakes:          sortedKeys(intakeSet),
		Sections:         sortedKeys(sectionSet),
		IntakeSectionMap: make(map[string][]string, len(pairSet)),
	}
	for intake, sections := range pairSet {
		result.IntakeSectionMap[intake] = sortedKeys(sections)
	}
	return result, nil
}

// Stats returns coarse attendance counters for a course, optionally narrowed
// by intake and section. The rate counts late as attended.
func (s *AttendanceService) Stats(ctx context.Context, courseID, intake, section string) (*models.CourseStats, error) {
	enrollments, err := s.enrollments.ListActiveByCourseFiltered(ctx, courseID, intake, section)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	stats := &models.CourseStats{TotalStudents: len(enrollments)}
	if len(enrollments) == 0 {
		return stats, nil
	}

	studentIDs := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		studentIDs = append(studentIDs, e.StudentID)
	}

	records, err := s.repo.ListForStudents(ctx, courseID, studentIDs, "", "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}

	for _, r := range records {
		switch r.Status {
		case models.AttendanceStatusPresent:
			stats.PresentCount++
		case models.AttendanceStatusLate:
			stats.LateCount++
		default:
			stats.AbsentCount++
		}
	}
	stats.TotalAttendanceRecords = len(records)
	if stats.TotalAttendanceRecords > 0 {
		rate := float64(stats.PresentCount+stats.LateCount) / float64(stats.TotalAttendanceRecords) * 100
		stats.AttendanceRate = math.Round(rate*100) / 100
	}
	return stats, nil
}

func (s *AttendanceService) invalidateCourseReports(ctx context.Context, courseID string) {
	if s.cache.Enabled() {
		_ = s.cache.Invalidate(ctx, fmt.Sprintf("report:course:%s:*", courseID))
	}
}

// invalidateAllReports clears every cached report. Edits and deletes address
// records by id alone, so the owning course is not known here.
func (s *AttendanceService) invalidateAllReports(ctx context.Context) {
	if s.cache.Enabled() {
		_ = s.cache.Invalidate(ctx, "report:course:*")
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
