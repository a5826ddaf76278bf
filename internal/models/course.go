package models

import "time"

// Course is a teachable unit. CourseCode is not unique; multiple offerings
// may share a code. TeacherName is denormalized alongside TeacherID.
type Course struct {
	ID          string    `db:"id" json:"_id"`
	CourseCode  string    `db:"course_code" json:"courseCode"`
	CourseName  string    `db:"course_name" json:"courseName"`
	Department  string    `db:"department" json:"department"`
	Credits     int       `db:"credits" json:"credits"`
	Description string    `db:"description" json:"description"`
	TeacherID   string    `db:"teacher_id" json:"teacherId"`
	TeacherName string    `db:"teacher_name" json:"teacherName"`
	Semester    string    `db:"semester" json:"semester"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

const DefaultCredits = 3
