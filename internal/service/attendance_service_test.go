package service

import (
	"context"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unitrack/attendance-api/internal/models"
	"github.com/unitrack/attendance-api/internal/repository"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
)

type mockAttendanceRepo struct {
	taken        map[string]bool
	bulkRecords  []models.Attendance
	upserted     []models.Attendance
	updateResult int64
	deleteResult int64
	byCourse     []models.Attendance
	byStudent    []models.Attendance
	forStudents  []models.Attendance
}

func sectionKey(courseID, date, intake, section string) string {
	return courseID + "|" + date + "|" + intake + "|" + section
}

func (m *mockAttendanceRepo) TakeBulk(ctx context.Context, courseID, date, intake, section string, records []models.Attendance) (int, bool, error) {
	if m.taken[sectionKey(courseID, date, intake, section)] {
		return 0, true, nil
	}
	m.bulkRecords = append(m.bulkRecords, records...)
	return len(records), false, nil
}

func (m *mockAttendanceRepo) Upsert(ctx context.Context, record *models.Attendance) error {
	m.upserted = append(m.upserted, *record)
	return nil
}

func (m *mockAttendanceRepo) Update(ctx context.Context, id string, patch repository.AttendancePatch) (int64, error) {
	return m.updateResult, nil
}

func (m *mockAttendanceRepo) Delete(ctx context.Context, id string) (int64, error) {
	return m.deleteResult, nil
}

func (m *mockAttendanceRepo) ListByCourse(ctx context.Context, courseID, date string) ([]models.Attendance, error) {
	return m.byCourse, nil
}

func (m *mockAttendanceRepo) ListByStudent(ctx context.Context, studentID, courseID string) ([]models.Attendance, error) {
	return m.byStudent, nil
}

func (m *mockAttendanceRepo) ListForStudents(ctx context.Context, courseID string, studentIDs []string, from, to string) ([]models.Attendance, error) {
	return m.forStudents, nil
}

type mockEnrollmentLister struct {
	enrollments []models.Enrollment
}

func (m *mockEnrollmentLister) ListActiveByCourseFast(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	return m.enrollments, nil
}

func (m *mockEnrollmentLister) ListActiveByCourseFiltered(ctx context.Context, courseID, intake, section string) ([]models.Enrollment, error) {
	var out []models.Enrollment
	for _, e := range m.enrollments {
		if intake != "" && e.Intake != intake {
			continue
		}
		if section != "" && e.Section != section {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func newAttendanceService(repo *mockAttendanceRepo, enrollments *mockEnrollmentLister) *AttendanceService {
	return NewAttendanceService(repo, enrollments, nil, validator.New(), zap.NewNop())
}

func TestAttendanceServiceTakeBulkSkipsEmptyStatuses(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newAttendanceService(repo, &mockEnrollmentLister{})

	result, err := svc.TakeBulk(context.Background(), models.TakeBulkAttendanceRequest{
		CourseID: "crs-1",
		Date:     "2024-09-02",
		Intake:   "45",
		Section:  "A",
		Students: map[string]string{
			"stu-1": "present",
			"stu-2": "absent",
			"stu-3": "",
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Created)
	assert.Empty(t, result.Errors)
	assert.Len(t, repo.bulkRecords, 2)
}

func TestAttendanceServiceTakeBulkInvalidStatus(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newAttendanceService(repo, &mockEnrollmentLister{})

	result, err := svc.TakeBulk(context.Background(), models.TakeBulkAttendanceRequest{
		CourseID: "crs-1",
		Date:     "2024-09-02",
		Intake:   "45",
		Section:  "A",
		Students: map[string]string{
			"stu-1": "present",
			"stu-2": "excused",
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Created)
	assert.Len(t, result.Errors, 1)
}

func TestAttendanceServiceTakeBulkAlreadyTaken(t *testing.T) {
	repo := &mockAttendanceRepo{taken: map[string]bool{sectionKey("crs-1", "2024-09-02", "45", "A"): true}}
	svc := newAttendanceService(repo, &mockEnrollmentLister{})

	result, err := svc.TakeBulk(context.Background(), models.TakeBulkAttendanceRequest{
		CourseID: "crs-1",
		Date:     "2024-09-02",
		Intake:   "45",
		Section:  "A",
		Students: map[string]string{"stu-1": "present"},
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Zero(t, result.Created)
	assert.NotEmpty(t, result.Message)
	assert.Empty(t, repo.bulkRecords)
}

// lockingAttendanceRepo mirrors the advisory-lock contract of the real
// repository: submissions for one section key serialize, the first marks the
// section taken and every later one sees the lockout.
type lockingAttendanceRepo struct {
	mockAttendanceRepo
	mu sync.Mutex
}

func (m *lockingAttendanceRepo) TakeBulk(ctx context.Context, courseID, date, intake, section string, records []models.Attendance) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := sectionKey(courseID, date, intake, section)
	if m.taken == nil {
		m.taken = make(map[string]bool)
	}
	if m.taken[key] {
		return 0, true, nil
	}
	m.taken[key] = true
	m.bulkRecords = append(m.bulkRecords, records...)
	return len(records), false, nil
}

func TestAttendanceServiceTakeBulkConcurrentSubmissionsOneWins(t *testing.T) {
	repo := &lockingAttendanceRepo{}
	svc := NewAttendanceService(repo, &mockEnrollmentLister{}, nil, validator.New(), zap.NewNop())

	req := models.TakeBulkAttendanceRequest{
		CourseID: "crs-1",
		Date:     "2024-09-02",
		Intake:   "45",
		Section:  "A",
		Students: map[string]string{"stu-1": "present", "stu-2": "absent"},
	}

	const submitters = 8
	results := make([]*models.TakeBulkAttendanceResult, submitters)
	errs := make([]error, submitters)

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(submitters)
	for i := 0; i < submitters; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			results[i], errs[i] = svc.TakeBulk(context.Background(), req)
		}(i)
	}
	start.Done()
	done.Wait()

	wins, lockouts := 0, 0
	for i := 0; i < submitters; i++ {
		require.NoError(t, errs[i])
		if results[i].Success {
			wins++
			assert.Equal(t, 2, results[i].Created)
		} else {
			lockouts++
			assert.Zero(t, results[i].Created)
			assert.NotEmpty(t, results[i].Message)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, submitters-1, lockouts)
	assert.Len(t, repo.bulkRecords, 2)
}

func TestAttendanceServiceTakeBulkRejectsBadDate(t *testing.T) {
	svc := newAttendanceService(&mockAttendanceRepo{}, &mockEnrollmentLister{})

	_, err := svc.TakeBulk(context.Background(), models.TakeBulkAttendanceRequest{
		CourseID: "crs-1",
		Date:     "02-09-2024",
		Intake:   "45",
		Section:  "A",
		Students: map[string]string{"stu-1": "present"},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestAttendanceServiceUpdateNotFound(t *testing.T) {
	repo := &mockAttendanceRepo{updateResult: 0}
	svc := newAttendanceService(repo, &mockEnrollmentLister{})

	err := svc.Update(context.Background(), "missing", models.UpdateAttendanceRequest{})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestAttendanceServiceIntakesAndSections(t *testing.T) {
	enrollments := &mockEnrollmentLister{enrollments: []models.Enrollment{
		{StudentID: "stu-1", Intake: "45", Section: "A"},
		{StudentID: "stu-2", Intake: "45", Section: "B"},
		{StudentID: "stu-3", Intake: "46", Section: "A"},
		{StudentID: "stu-4", Intake: "45", Section: "A"},
	}}
	svc := newAttendanceService(&mockAttendanceRepo{}, enrollments)

	result, err := svc.IntakesAndSections(context.Background(), "crs-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"45", "46"}, result.Intakes)
	assert.Equal(t, []string{"A", "B"}, result.Sections)
	assert.Equal(t, []string{"A", "B"}, result.IntakeSectionMap["45"])
	assert.Equal(t, []string{"A"}, result.IntakeSectionMap["46"])
}

func TestAttendanceServiceStats(t *testing.T) {
	enrollments := &mockEnrollmentLister{enrollments: []models.Enrollment{
		{StudentID: "stu-1", Intake: "45", Section: "A"},
		{StudentID: "stu-2", Intake: "45", Section: "A"},
	}}
	repo := &mockAttendanceRepo{forStudents: []models.Attendance{
		{StudentID: "stu-1", Status: models.AttendanceStatusPresent},
		{StudentID: "stu-1", Status: models.AttendanceStatusLate},
		{StudentID: "stu-2", Status: models.AttendanceStatusAbsent},
		{StudentID: "stu-2", Status: models.AttendanceStatusPresent},
	}}
	svc := newAttendanceService(repo, enrollments)

	stats, err := svc.Stats(context.Background(), "crs-1", "45", "A")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalStudents)
	assert.Equal(t, 4, stats.TotalAttendanceRecords)
	assert.Equal(t, 2, stats.PresentCount)
	assert.Equal(t, 1, stats.LateCount)
	assert.Equal(t, 1, stats.AbsentCount)
	assert.InDelta(t, 75.0, stats.AttendanceRate, 1e-9)
}
