package models

import "math"

// MarksFromPercentage maps an attendance percentage onto the 0-5 marks scale,
// rounded to two decimals. Every marks value in the system comes from here.
func MarksFromPercentage(percentage float64) float64 {
	return math.Round(percentage*5) / 100
}

// Percentage returns the whole-number attendance percentage; zero days is
// defined as zero percent.
func Percentage(presentDays, totalDays int) int {
	if totalDays <= 0 {
		return 0
	}
	return int(math.Round(float64(presentDays) / float64(totalDays) * 100))
}

// DailyRecord is one day of attendance as shown inside a report.
type DailyRecord struct {
	Date   string           `json:"date"`
	Status AttendanceStatus `json:"status"`
	Notes  string           `json:"notes"`
}

// AttendanceSummary is the stats block shared by every report shape. Any
// status other than present counts toward AbsentDays.
type AttendanceSummary struct {
	TotalDays            int     `json:"totalDays"`
	PresentDays          int     `json:"presentDays"`
	AbsentDays           int     `json:"absentDays"`
	AttendancePercentage int     `json:"attendancePercentage"`
	AttendanceMarks      float64 `json:"attendanceMarks"`
}

// Tally recomputes the derived fields from the day counts.
func (s *AttendanceSummary) Tally() {
	s.AbsentDays = s.TotalDays - s.PresentDays
	s.AttendancePercentage = Percentage(s.PresentDays, s.TotalDays)
	s.AttendanceMarks = MarksFromPercentage(float64(s.AttendancePercentage))
}

// CourseReportEntry is one student's line in a teacher course report. The
// report population is enrollment-driven: students with no attendance rows
// still appear with zeroed stats.
type CourseReportEntry struct {
	StudentID       string        `json:"studentId"`
	StudentCustomID string        `json:"studentCustomId,omitempty"`
	StudentName     string        `json:"studentName"`
	StudentEmail    string        `json:"studentEmail"`
	Intake          string        `json:"intake"`
	Section         string        `json:"section"`
	Attendance      []DailyRecord `json:"attendance"`
	AttendanceSummary
}

// StudentCourseReport is one student's ranged report for a single course.
type StudentCourseReport struct {
	Summary AttendanceSummary `json:"summary"`
	Records []DailyRecord     `json:"attendanceRecords"`
}

// TotalAttendance aggregates a student's rows across every course.
type TotalAttendance struct {
	AttendanceSummary
	TotalCourses int `json:"totalCourses"`
}

// EnrolledCourseRef identifies one of a student's active courses inside the
// total-attendance payload.
type EnrolledCourseRef struct {
	CourseID   string `json:"courseId"`
	CourseCode string `json:"courseCode"`
	CourseName string `json:"courseName"`
	Intake     string `json:"intake"`
	Section    string `json:"section"`
}

// StudentCourseBreakdown is one course's line in a student's all-courses
// report.
type StudentCourseBreakdown struct {
	CourseID   string        `json:"courseId"`
	CourseCode string        `json:"courseCode"`
	CourseName string        `json:"courseName"`
	Intake     string        `json:"intake"`
	Section    string        `json:"section"`
	Attendance []DailyRecord `json:"attendance"`
	AttendanceSummary
}

// IntakeSections lists the intake/section values observed among a course's
// active enrollments, for driving the attendance filter UI.
type IntakeSections struct {
	Intakes          []string            `json:"intakes"`
	Sections         []string            `json:"sections"`
	IntakeSectionMap map[string][]string `json:"intakeSectionMap"`
}

// CourseStats is the coarse per-course attendance counters view.
type CourseStats struct {
	TotalStudents          int     `json:"totalStudents"`
	TotalAttendanceRecords int     `json:"totalAttendanceRecords"`
	PresentCount           int     `json:"presentCount"`
	AbsentCount            int     `json:"absentCount"`
	LateCount              int     `json:"lateCount"`
	AttendanceRate         float64 `json:"attendanceRate"`
}
