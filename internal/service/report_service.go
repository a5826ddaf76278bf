package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unitrack/attendance-api/internal/models"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
)

type reportAttendanceRepository interface {
	ListForStudents(ctx context.Context, courseID string, studentIDs []string, from, to string) ([]models.Attendance, error)
	ListRange(ctx context.Context, studentID, courseID, from, to string) ([]models.Attendance, error)
	ListByStudent(ctx context.Context, studentID, courseID string) ([]models.Attendance, error)
	DistinctMonths(ctx context.Context, courseID, studentID string) ([]string, error)
}

type reportEnrollmentRepository interface {
	ListActiveByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error)
	ListActiveByCourseFiltered(ctx context.Context, courseID, intake, section string) ([]models.Enrollment, error)
}

// ReportService aggregates attendance into report payloads. It only reads;
// every write path lives in AttendanceService.
type ReportService struct {
	attendance  reportAttendanceRepository
	enrollments reportEnrollmentRepository
	cache       *CacheService
	logger      *zap.Logger
}

// NewReportService constructs a ReportService instance.
func NewReportService(attendance reportAttendanceRepository, enrollments reportEnrollmentRepository, cache *CacheService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{attendance: attendance, enrollments: enrollments, cache: cache, logger: logger}
}

// CourseReport builds the per-student report for one course and month. The
// population comes from the enrollments, so students without a single
// attendance row still show up with zeroed stats.
func (s *ReportService) CourseReport(ctx context.Context, courseID, intake, section string, month, year int) ([]models.CourseReportEntry, error) {
	if month < 1 || month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	if year < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year is required")
	}
	from, to := monthRange(year, month)
	return s.courseReport(ctx, courseID, intake, section, from, to)
}

// CourseReportTotal builds the all-time per-student report for one course.
// The payload is cached; attendance writes for the course invalidate it.
func (s *ReportService) CourseReportTotal(ctx context.Context, courseID, intake, section string) ([]models.CourseReportEntry, error) {
	key := fmt.Sprintf("report:course:%s:%s:%s", courseID, intake, section)

	var cached []models.CourseReportEntry
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	entries, err := s.courseReport(ctx, courseID, intake, section, "", "")
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, entries, 0); err != nil {
		s.logger.Warn("failed to cache course report", zap.String("course_id", courseID), zap.Error(err))
	}
	return entries, nil
}

func (s *ReportService) courseReport(ctx context.Context, courseID, intake, section, from, to string) ([]models.CourseReportEntry, error) {
	enrollments, err := s.enrollments.ListActiveByCourseFiltered(ctx, courseID, intake, section)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	if len(enrollments) == 0 {
		return []models.CourseReportEntry{}, nil
	}

	studentIDs := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		studentIDs = append(studentIDs, e.StudentID)
	}

	records, err := s.attendance.ListForStudents(ctx, courseID, studentIDs, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}

	byStudent := make(map[string][]models.Attendance, len(enrollments))
	for _, r := range records {
		byStudent[r.StudentID] = append(byStudent[r.StudentID], r)
	}

	entries := make([]models.CourseReportEntry, 0, len(enrollments))
	for _, e := range enrollments {
		entry := models.CourseReportEntry{
			StudentID:       e.StudentID,
			StudentCustomID: e.StudentCustomID,
			StudentName:     e.StudentName,
			StudentEmail:    e.StudentEmail,
			Intake:          e.Intake,
			Section:         e.Section,
			Attendance:      []models.DailyRecord{},
		}
		for _, r := range byStudent[e.StudentID] {
			entry.Attendance = append(entry.Attendance, models.DailyRecord{Date: r.Date, Status: r.Status, Notes: r.Notes})
			entry.TotalDays++
			if r.Status == models.AttendanceStatusPresent {
				entry.PresentDays++
			}
		}
		entry.Tally()
		entries = append(entries, entry)
	}
	return entries, nil
}

// StudentCourseReport builds one student's report for a single course and
// month.
func (s *ReportService) StudentCourseReport(ctx context.Context, studentID, courseID string, month, year int) (*models.StudentCourseReport, error) {
	if month < 1 || month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}
	if year < 1 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year is required")
	}
	from, to := monthRange(year, month)

	records, err := s.attendance.ListRange(ctx, studentID, courseID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}

	report := &models.StudentCourseReport{Records: []models.DailyRecord{}}
	for _, r := range records {
		report.Records = append(report.Records, models.DailyRecord{Date: r.Date, Status: r.Status, Notes: r.Notes})
		report.Summary.TotalDays++
		if r.Status == models.AttendanceStatusPresent {
			report.Summary.PresentDays++
		}
	}
	report.Summary.Tally()
	return report, nil
}

// StudentTotal aggregates every attendance row a student has, across all
// courses, next to the list of their active enrollments. Rows from dropped
// courses still count.
func (s *ReportService) StudentTotal(ctx context.Context, studentID string) (*models.TotalAttendance, []models.EnrolledCourseRef, error) {
	enrollments, err := s.enrollments.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}

	courses := make([]models.EnrolledCourseRef, 0, len(enrollments))
	for _, e := range enrollments {
		courses = append(courses, models.EnrolledCourseRef{
			CourseID:   e.CourseID,
			CourseCode: e.CourseCode,
			CourseName: e.CourseName,
			Intake:     e.Intake,
			Section:    e.Section,
		})
	}

	total := &models.TotalAttendance{TotalCourses: len(enrollments)}
	if len(enrollments) == 0 {
		total.Tally()
		return total, courses, nil
	}

	records, err := s.attendance.ListByStudent(ctx, studentID, "")
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	for _, r := range records {
		total.TotalDays++
		if r.Status == models.AttendanceStatusPresent {
			total.PresentDays++
		}
	}
	total.Tally()
	return total, courses, nil
}

// StudentAllCourses breaks a student's attendance down per enrolled course.
// Rows belonging to courses the student is no longer enrolled in are ignored.
func (s *ReportService) StudentAllCourses(ctx context.Context, studentID string) ([]models.StudentCourseBreakdown, error) {
	enrollments, err := s.enrollments.ListActiveByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	if len(enrollments) == 0 {
		return []models.StudentCourseBreakdown{}, nil
	}

	records, err := s.attendance.ListByStudent(ctx, studentID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}

	byCourse := make(map[string][]models.Attendance)
	for _, r := range records {
		byCourse[r.CourseID] = append(byCourse[r.CourseID], r)
	}

	breakdown := make([]models.StudentCourseBreakdown, 0, len(enrollments))
	for _, e := range enrollments {
		entry := models.StudentCourseBreakdown{
			CourseID:   e.CourseID,
			CourseCode: e.CourseCode,
			CourseName: e.CourseName,
			Intake:     e.Intake,
			Section:    e.Section,
			Attendance: []models.DailyRecord{},
		}
		for _, r := range byCourse[e.CourseID] {
			entry.Attendance = append(entry.Attendance, models.DailyRecord{Date: r.Date, Status: r.Status, Notes: r.Notes})
			entry.TotalDays++
			if r.Status == models.AttendanceStatusPresent {
				entry.PresentDays++
			}
		}
		entry.Tally()
		breakdown = append(breakdown, entry)
	}
	return breakdown, nil
}

// AvailableMonths lists the YYYY-MM values a course has records for, newest
// first. An empty studentID spans the whole course.
func (s *ReportService) AvailableMonths(ctx context.Context, courseID, studentID string) ([]string, error) {
	months, err := s.attendance.DistinctMonths(ctx, courseID, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list months")
	}
	if months == nil {
		months = []string{}
	}
	return months, nil
}

func monthRange(year, month int) (string, string) {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(models.DateLayout), last.Format(models.DateLayout)
}
