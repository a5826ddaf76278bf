package models

import "time"

// AttendanceStatus is the recorded presence state. Late is reserved: it is
// accepted on the wire but aggregation only distinguishes present from
// not-present.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate:
		return true
	default:
		return false
	}
}

// Attendance is one record per (courseId, studentId, date, intake, section)
// tuple. Date is the calendar day in YYYY-MM-DD form, matching how the
// legacy data stores it.
type Attendance struct {
	ID           string           `db:"id" json:"_id"`
	CourseID     string           `db:"course_id" json:"courseId"`
	StudentID    string           `db:"student_id" json:"studentId"`
	StudentName  string           `db:"student_name" json:"studentName"`
	StudentEmail string           `db:"student_email" json:"studentEmail"`
	Intake       string           `db:"intake" json:"intake"`
	Section      string           `db:"section" json:"section"`
	Date         string           `db:"date" json:"date"`
	Status       AttendanceStatus `db:"status" json:"status"`
	Notes        string           `db:"notes" json:"notes"`
	TakenBy      string           `db:"taken_by" json:"takenBy"`
	TakenAt      time.Time        `db:"taken_at" json:"takenAt"`
}

// DateLayout is the canonical day format for attendance records.
const DateLayout = "2006-01-02"
