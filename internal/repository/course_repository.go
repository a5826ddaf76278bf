package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/unitrack/attendance-api/internal/models"
)

// CourseRepository handles persistence of courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, course_code, course_name, department, credits, description, teacher_id, teacher_name, semester, is_active, created_at`

// CoursePatch carries the updatable course fields. Nil fields are left
// untouched.
type CoursePatch struct {
	CourseCode  *string
	CourseName  *string
	Department  *string
	Credits     *int
	Description *string
	Semester    *string
	IsActive    *bool
}

// Create persists a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO courses (id, course_code, course_name, department, credits, description, teacher_id, teacher_name, semester, is_active, created_at)
        VALUES (:id, :course_code, :course_name, :department, :credits, :description, :teacher_id, :teacher_name, :semester, :is_active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// FindByID returns a course by id.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns active courses, optionally filtered by teacher or department.
func (r *CourseRepository) List(ctx context.Context, teacherID, department string) ([]models.Course, error) {
	conditions := []string{"is_active = TRUE"}
	args := []interface{}{}
	if teacherID != "" {
		args = append(args, teacherID)
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)))
	}
	if department != "" {
		args = append(args, department)
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)))
	}
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE %s ORDER BY created_at`,
		courseColumns, strings.Join(conditions, " AND "))

	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// Update applies the non-nil patch fields, returning the number of rows
// touched.
func (r *CourseRepository) Update(ctx context.Context, id string, patch CoursePatch) (int64, error) {
	sets := []string{}
	args := []interface{}{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.CourseCode != nil {
		add("course_code", *patch.CourseCode)
	}
	if patch.CourseName != nil {
		add("course_name", *patch.CourseName)
	}
	if patch.Department != nil {
		add("department", *patch.Department)
	}
	if patch.Credits != nil {
		add("credits", *patch.Credits)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Semester != nil {
		add("semester", *patch.Semester)
	}
	if patch.IsActive != nil {
		add("is_active", *patch.IsActive)
	}
	if len(sets) == 0 {
		return 0, nil
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE courses SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update course rows: %w", err)
	}
	return affected, nil
}

// Delete hard-deletes a course, returning the number of rows removed.
func (r *CourseRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete course: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete course rows: %w", err)
	}
	return affected, nil
}
