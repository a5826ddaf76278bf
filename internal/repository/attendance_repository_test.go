package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/unitrack/attendance-api/internal/models"
)

func TestAttendanceRepositoryTakeBulk(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	records := []models.Attendance{
		{CourseID: "crs-1", StudentID: "stu-1", Intake: "45", Section: "A", Date: "2024-09-02", Status: models.AttendanceStatusPresent},
		{CourseID: "crs-1", StudentID: "stu-2", Intake: "45", Section: "A", Date: "2024-09-02", Status: models.AttendanceStatusAbsent},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("crs-1|2024-09-02|45|A").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM attendance WHERE course_id = \$1 AND date = \$2 AND intake = \$3 AND section = \$4 LIMIT 1`).
		WithArgs("crs-1", "2024-09-02", "45", "A").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectExec(`INSERT INTO attendance`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO attendance`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	created, alreadyTaken, err := repo.TakeBulk(context.Background(), "crs-1", "2024-09-02", "45", "A", records)
	require.NoError(t, err)
	require.False(t, alreadyTaken)
	require.Equal(t, 2, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryTakeBulkAlreadyTaken(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("crs-1|2024-09-02|45|A").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT 1 FROM attendance WHERE course_id = \$1 AND date = \$2 AND intake = \$3 AND section = \$4 LIMIT 1`).
		WithArgs("crs-1", "2024-09-02", "45", "A").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	created, alreadyTaken, err := repo.TakeBulk(context.Background(), "crs-1", "2024-09-02", "45", "A", []models.Attendance{
		{CourseID: "crs-1", StudentID: "stu-1", Date: "2024-09-02", Status: models.AttendanceStatusPresent},
	})
	require.NoError(t, err)
	require.True(t, alreadyTaken)
	require.Zero(t, created)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpdatePatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	status := models.AttendanceStatusAbsent
	notes := "sick leave"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE attendance SET status = $1, notes = $2 WHERE id = $3")).
		WithArgs(status, notes, "att-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Update(context.Background(), "att-1", AttendancePatch{Status: &status, Notes: &notes})
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpdateEmptyPatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	affected, err := repo.Update(context.Background(), "att-1", AttendancePatch{})
	require.NoError(t, err)
	require.Zero(t, affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryDistinctMonths(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"month"}).AddRow("2024-10").AddRow("2024-09")
	mock.ExpectQuery(`SELECT DISTINCT substr\(date, 1, 7\) AS month FROM attendance`).
		WithArgs("crs-1", "stu-1").
		WillReturnRows(rows)

	months, err := repo.DistinctMonths(context.Background(), "crs-1", "stu-1")
	require.NoError(t, err)
	require.Equal(t, []string{"2024-10", "2024-09"}, months)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryDistinctMonthsCourseWide(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"month"}).AddRow("2024-10").AddRow("2024-09").AddRow("2024-08")
	mock.ExpectQuery(`SELECT DISTINCT substr\(date, 1, 7\) AS month FROM attendance WHERE course_id = \$1 ORDER BY month DESC`).
		WithArgs("crs-1").
		WillReturnRows(rows)

	months, err := repo.DistinctMonths(context.Background(), "crs-1", "")
	require.NoError(t, err)
	require.Equal(t, []string{"2024-10", "2024-09", "2024-08"}, months)
	require.NoError(t, mock.ExpectationsWereMet())
}
