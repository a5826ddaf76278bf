package models

import "github.com/golang-jwt/jwt/v5"

// RegisterStudentRequest is the self-service student signup payload.
type RegisterStudentRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	StudentID  string `json:"studentId" validate:"required"`
	Intake     string `json:"intake" validate:"required"`
	Section    string `json:"section" validate:"required"`
	Department string `json:"department" validate:"required"`
}

// LoginRequest is the credential payload for any role.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse pairs the signed token with the authenticated account.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// JWTClaims is the signed token payload.
type JWTClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// CreateTeacherRequest is the admin payload for provisioning a teacher.
type CreateTeacherRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// CreateCourseRequest is the payload for creating a course.
type CreateCourseRequest struct {
	CourseCode  string `json:"courseCode" validate:"required"`
	CourseName  string `json:"courseName" validate:"required"`
	Department  string `json:"department" validate:"required"`
	Credits     int    `json:"credits" validate:"omitempty,min=1"`
	Description string `json:"description"`
	TeacherID   string `json:"teacherId" validate:"required"`
	TeacherName string `json:"teacherName"`
	Semester    string `json:"semester"`
}

// UpdateCourseRequest carries the editable course fields. Absent fields are
// left untouched.
type UpdateCourseRequest struct {
	CourseCode  *string `json:"courseCode"`
	CourseName  *string `json:"courseName"`
	Department  *string `json:"department"`
	Credits     *int    `json:"credits"`
	Description *string `json:"description"`
	Semester    *string `json:"semester"`
	IsActive    *bool   `json:"isActive"`
}

// EnrollRequest links a student to a course.
type EnrollRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
}

// TakeBulkAttendanceRequest records one section's attendance for a day.
// Students maps student id to status; entries with an empty status are
// skipped rather than defaulted to absent.
type TakeBulkAttendanceRequest struct {
	CourseID string            `json:"courseId" validate:"required"`
	Date     string            `json:"date" validate:"required"`
	Intake   string            `json:"intake" validate:"required"`
	Section  string            `json:"section" validate:"required"`
	Students map[string]string `json:"students" validate:"required"`
	Notes    string            `json:"notes"`
	TakenBy  string            `json:"takenBy"`
}

// TakeBulkAttendanceResult reports the outcome of a bulk submission.
type TakeBulkAttendanceResult struct {
	Success bool     `json:"success"`
	Created int      `json:"created"`
	Errors  []string `json:"errors,omitempty"`
	Message string   `json:"message,omitempty"`
}

// CreateAttendanceRequest records or replaces a single attendance entry.
type CreateAttendanceRequest struct {
	CourseID     string           `json:"courseId" validate:"required"`
	StudentID    string           `json:"studentId" validate:"required"`
	StudentName  string           `json:"studentName"`
	StudentEmail string           `json:"studentEmail"`
	Intake       string           `json:"intake"`
	Section      string           `json:"section"`
	Date         string           `json:"date" validate:"required"`
	Status       AttendanceStatus `json:"status" validate:"required"`
	Notes        string           `json:"notes"`
	TakenBy      string           `json:"takenBy"`
}

// UpdateAttendanceRequest carries the editable attendance fields. Absent
// fields are left untouched.
type UpdateAttendanceRequest struct {
	Status *AttendanceStatus `json:"status"`
	Notes  *string           `json:"notes"`
	Date   *string           `json:"date"`
}
