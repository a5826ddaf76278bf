package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unitrack/attendance-api/internal/models"
)

// AttendanceRepository handles persistence of attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

const attendanceColumns = `id, course_id, student_id, student_name, student_email, intake, section, date, status, notes, taken_by, taken_at`

const upsertAttendanceQuery = `INSERT INTO attendance (id, course_id, student_id, student_name, student_email, intake, section, date, status, notes, taken_by, taken_at)
        VALUES (:id, :course_id, :student_id, :student_name, :student_email, :intake, :section, :date, :status, :notes, :taken_by, :taken_at)
        ON CONFLICT (course_id, student_id, date, intake, section)
        DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes, taken_by = EXCLUDED.taken_by, taken_at = EXCLUDED.taken_at`

// AttendancePatch carries the updatable attendance fields. Nil fields are left
// untouched.
type AttendancePatch struct {
	Status *models.AttendanceStatus
	Notes  *string
	Date   *string
}

func fillAttendanceDefaults(record *models.Attendance) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.TakenAt.IsZero() {
		record.TakenAt = time.Now().UTC()
	}
}

// ExistsForSection reports whether any record exists for the section on the
// given day.
func (r *AttendanceRepository) ExistsForSection(ctx context.Context, courseID, date, intake, section string) (bool, error) {
	const query = `SELECT 1 FROM attendance WHERE course_id = $1 AND date = $2 AND intake = $3 AND section = $4 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, courseID, date, intake, section); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check attendance: %w", err)
	}
	return true, nil
}

// TakeBulk writes a section's records for one day inside a single transaction.
// A transaction-scoped advisory lock on the (course, date, intake, section)
// key serializes concurrent submissions, so the duplicate-day check and the
// writes observe a consistent state. Returns alreadyTaken=true and writes
// nothing when the section's day is occupied.
func (r *AttendanceRepository) TakeBulk(ctx context.Context, courseID, date, intake, section string, records []models.Attendance) (created int, alreadyTaken bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin take bulk: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	lockKey := strings.Join([]string{courseID, date, intake, section}, "|")
	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return 0, false, fmt.Errorf("acquire section lock: %w", err)
	}

	var exists int
	checkErr := tx.GetContext(ctx, &exists,
		`SELECT 1 FROM attendance WHERE course_id = $1 AND date = $2 AND intake = $3 AND section = $4 LIMIT 1`,
		courseID, date, intake, section)
	if checkErr == nil {
		_ = tx.Rollback()
		return 0, true, nil
	}
	if checkErr != sql.ErrNoRows {
		err = fmt.Errorf("check attendance: %w", checkErr)
		return 0, false, err
	}

	for i := range records {
		fillAttendanceDefaults(&records[i])
		if _, err = tx.NamedExecContext(ctx, upsertAttendanceQuery, records[i]); err != nil {
			return 0, false, fmt.Errorf("insert attendance: %w", err)
		}
		created++
	}

	if err = tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit take bulk: %w", err)
	}
	return created, false, nil
}

// Upsert writes one record, replacing any existing row for the same tuple.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.Attendance) error {
	fillAttendanceDefaults(record)
	if _, err := r.db.NamedExecContext(ctx, upsertAttendanceQuery, record); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}

// Update applies the non-nil patch fields, returning the number of rows
// touched.
func (r *AttendanceRepository) Update(ctx context.Context, id string, patch AttendancePatch) (int64, error) {
	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}
	if patch.Date != nil {
		add("date", *patch.Date)
	}
	if len(sets) == 0 {
		return 0, nil
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE attendance SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update attendance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update attendance rows: %w", err)
	}
	return affected, nil
}

// Delete hard-deletes a record, returning the number of rows removed.
func (r *AttendanceRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete attendance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete attendance rows: %w", err)
	}
	return affected, nil
}

// ListByCourse returns a course's records, optionally narrowed to one day.
func (r *AttendanceRepository) ListByCourse(ctx context.Context, courseID, date string) ([]models.Attendance, error) {
	conditions := []string{"course_id = $1"}
	args := []interface{}{courseID}
	if date != "" {
		args = append(args, date)
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s FROM attendance WHERE %s ORDER BY date DESC, student_name`,
		attendanceColumns, strings.Join(conditions, " AND "))

	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance by course: %w", err)
	}
	return records, nil
}

// ListByStudent returns a student's records newest first, optionally narrowed
// to one course.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID, courseID string) ([]models.Attendance, error) {
	conditions := []string{"student_id = $1"}
	args := []interface{}{studentID}
	if courseID != "" {
		args = append(args, courseID)
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s FROM attendance WHERE %s ORDER BY date DESC`,
		attendanceColumns, strings.Join(conditions, " AND "))

	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance by student: %w", err)
	}
	return records, nil
}

// ListRange returns a student's records for one course within the inclusive
// date range, oldest first.
func (r *AttendanceRepository) ListRange(ctx context.Context, studentID, courseID, from, to string) ([]models.Attendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance
        WHERE student_id = $1 AND course_id = $2 AND date >= $3 AND date <= $4
        ORDER BY date`, attendanceColumns)
	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, query, studentID, courseID, from, to); err != nil {
		return nil, fmt.Errorf("list attendance range: %w", err)
	}
	return records, nil
}

// ListForStudents returns the records of the given students within one course,
// optionally bounded by an inclusive date range, oldest first.
func (r *AttendanceRepository) ListForStudents(ctx context.Context, courseID string, studentIDs []string, from, to string) ([]models.Attendance, error) {
	if len(studentIDs) == 0 {
		return nil, nil
	}
	conditions := []string{"course_id = ?", "student_id IN (?)"}
	args := []interface{}{courseID, studentIDs}
	if from != "" {
		conditions = append(conditions, "date >= ?")
		args = append(args, from)
	}
	if to != "" {
		conditions = append(conditions, "date <= ?")
		args = append(args, to)
	}
	query := fmt.Sprintf(`SELECT %s FROM attendance WHERE %s ORDER BY date`,
		attendanceColumns, strings.Join(conditions, " AND "))
	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("build attendance query: %w", err)
	}
	query = r.db.Rebind(query)

	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, query, inArgs...); err != nil {
		return nil, fmt.Errorf("list attendance for students: %w", err)
	}
	return records, nil
}

// DistinctMonths returns the YYYY-MM values present among a course's records,
// newest first. An empty studentID covers the whole course.
func (r *AttendanceRepository) DistinctMonths(ctx context.Context, courseID, studentID string) ([]string, error) {
	query := `SELECT DISTINCT substr(date, 1, 7) AS month FROM attendance WHERE course_id = $1`
	args := []interface{}{courseID}
	if studentID != "" {
		query += ` AND student_id = $2`
		args = append(args, studentID)
	}
	query += ` ORDER BY month DESC`

	var months []string
	if err := r.db.SelectContext(ctx, &months, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance months: %w", err)
	}
	return months, nil
}
