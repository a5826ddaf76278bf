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

// EnrollmentRepository handles persistence of student-course links.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentColumns = `id, student_id, course_id, student_name, student_email, student_custom_id, course_code, course_name, department, intake, section, status, enrolled_at`

func prefixedEnrollmentColumns(alias string) string {
	cols := strings.Split(enrollmentColumns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

// Create persists a new enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (id, student_id, course_id, student_name, student_email, student_custom_id, course_code, course_name, department, intake, section, status, enrolled_at)
        VALUES (:id, :student_id, :course_id, :student_name, :student_email, :student_custom_id, :course_code, :course_name, :department, :intake, :section, :status, :enrolled_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// ExistsActive reports whether the student already has an active enrollment in
// the course.
func (r *EnrollmentRepository) ExistsActive(ctx context.Context, studentID, courseID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2 AND status = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID, models.EnrollmentStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// ListActiveByStudent returns a student's active enrollments.
func (r *EnrollmentRepository) ListActiveByStudent(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE student_id = $1 AND status = $2 ORDER BY enrolled_at`, enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, studentID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list enrollments by student: %w", err)
	}
	return enrollments, nil
}

// ListActiveByCourse returns a course's active enrollments whose student
// account still exists, dropping rows orphaned by account deletion.
func (r *EnrollmentRepository) ListActiveByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments e
        WHERE e.course_id = $1 AND e.status = $2
          AND EXISTS (SELECT 1 FROM users u WHERE u.id = e.student_id)
        ORDER BY e.student_name`, prefixedEnrollmentColumns("e"))
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list enrollments by course: %w", err)
	}
	return enrollments, nil
}

// ListActiveByCourseFast returns a course's active enrollments straight from
// the snapshot rows, skipping the account existence check.
func (r *EnrollmentRepository) ListActiveByCourseFast(ctx context.Context, courseID string) ([]models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE course_id = $1 AND status = $2 ORDER BY student_name`, enrollmentColumns)
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list enrollments by course fast: %w", err)
	}
	return enrollments, nil
}

// ListActiveByCourseFiltered returns a course's active enrollments narrowed by
// optional intake and section values.
func (r *EnrollmentRepository) ListActiveByCourseFiltered(ctx context.Context, courseID, intake, section string) ([]models.Enrollment, error) {
	conditions := []string{"course_id = $1", "status = $2"}
	args := []interface{}{courseID, models.EnrollmentStatusActive}
	if intake != "" {
		args = append(args, intake)
		conditions = append(conditions, fmt.Sprintf("intake = $%d", len(args)))
	}
	if section != "" {
		args = append(args, section)
		conditions = append(conditions, fmt.Sprintf("section = $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s FROM enrollments WHERE %s ORDER BY student_name`,
		enrollmentColumns, strings.Join(conditions, " AND "))

	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, fmt.Errorf("list enrollments filtered: %w", err)
	}
	return enrollments, nil
}

// ListActiveByTeacher returns active enrollments across every course the
// teacher owns, with the account existence check applied.
func (r *EnrollmentRepository) ListActiveByTeacher(ctx context.Context, teacherID string) ([]models.Enrollment, error) {
	query := fmt.Sprintf(`SELECT %s FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        WHERE c.teacher_id = $1 AND e.status = $2
          AND EXISTS (SELECT 1 FROM users u WHERE u.id = e.student_id)
        ORDER BY e.course_code, e.student_name`, prefixedEnrollmentColumns("e"))
	var enrollments []models.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, teacherID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list enrollments by teacher: %w", err)
	}
	return enrollments, nil
}

// UpdateStatus sets the enrollment status, returning the number of rows
// touched.
func (r *EnrollmentRepository) UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE enrollments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return 0, fmt.Errorf("update enrollment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update enrollment rows: %w", err)
	}
	return affected, nil
}

// AvailableCourses returns active courses in the department the student has no
// active enrollment in.
func (r *EnrollmentRepository) AvailableCourses(ctx context.Context, studentID, department string) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses c
        WHERE c.department = $1 AND c.is_active = TRUE
          AND NOT EXISTS (
            SELECT 1 FROM enrollments e
            WHERE e.course_id = c.id AND e.student_id = $2 AND e.status = $3
          )
        ORDER BY c.course_code`, prefixedCourseColumns("c"))
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, department, studentID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list available courses: %w", err)
	}
	return courses, nil
}

// DeleteByCourse hard-deletes every enrollment of a course.
func (r *EnrollmentRepository) DeleteByCourse(ctx context.Context, courseID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE course_id = $1`, courseID)
	if err != nil {
		return 0, fmt.Errorf("delete enrollments by course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete enrollments rows: %w", err)
	}
	return affected, nil
}

// DeleteByStudent hard-deletes every enrollment of a student.
func (r *EnrollmentRepository) DeleteByStudent(ctx context.Context, studentID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM enrollments WHERE student_id = $1`, studentID)
	if err != nil {
		return 0, fmt.Errorf("delete enrollments by student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete enrollments rows: %w", err)
	}
	return affected, nil
}

func prefixedCourseColumns(alias string) string {
	cols := strings.Split(courseColumns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}
