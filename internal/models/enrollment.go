package models

import "time"

// EnrollmentStatus tracks the soft lifecycle of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusActive  EnrollmentStatus = "active"
	EnrollmentStatusDropped EnrollmentStatus = "dropped"
)

// Enrollment links one student to one course. The student and course display
// fields are snapshots taken at enrollment time; they are deliberately not
// kept in sync with later edits to the source documents.
type Enrollment struct {
	ID              string           `db:"id" json:"_id"`
	StudentID       string           `db:"student_id" json:"studentId"`
	CourseID        string           `db:"course_id" json:"courseId"`
	StudentName     string           `db:"student_name" json:"studentName"`
	StudentEmail    string           `db:"student_email" json:"studentEmail"`
	StudentCustomID string           `db:"student_custom_id" json:"studentCustomId,omitempty"`
	CourseCode      string           `db:"course_code" json:"courseCode"`
	CourseName      string           `db:"course_name" json:"courseName"`
	Department      string           `db:"department" json:"department"`
	Intake          string           `db:"intake" json:"intake"`
	Section         string           `db:"section" json:"section"`
	Status          EnrollmentStatus `db:"status" json:"status"`
	EnrolledAt      time.Time        `db:"enrolled_at" json:"enrolledAt"`
}

// EnrollmentWithCourse is a student-facing enrollment enriched with live
// course fields fetched at read time rather than from the snapshot.
type EnrollmentWithCourse struct {
	Enrollment
	Credits     int    `json:"credits"`
	Description string `json:"description"`
	Semester    string `json:"semester"`
	TeacherName string `json:"teacherName"`
}
