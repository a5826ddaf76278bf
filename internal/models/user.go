package models

import "time"

// Role classifies an account.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Valid returns true when the role is a supported value.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is an account. StudentID is the user-chosen external identifier
// (distinct from the internal id) and, with Intake/Section/Department, is
// only meaningful for students. The password hash never leaves the API.
type User struct {
	ID           string    `db:"id" json:"_id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Name         string    `db:"name" json:"name"`
	Role         Role      `db:"role" json:"role"`
	StudentID    string    `db:"student_id" json:"studentId,omitempty"`
	Intake       string    `db:"intake" json:"intake,omitempty"`
	Section      string    `db:"section" json:"section,omitempty"`
	Department   string    `db:"department" json:"department,omitempty"`
	CreatedBy    *string   `db:"created_by" json:"createdBy,omitempty"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}
