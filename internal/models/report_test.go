package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarksFromPercentage(t *testing.T) {
	cases := []struct {
		percentage float64
		want       float64
	}{
		{0, 0},
		{100, 5},
		{80, 4},
		{75, 3.75},
		{33, 1.65},
		{67, 3.35},
		{90, 4.5},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, MarksFromPercentage(tc.percentage), 1e-9, "percentage %v", tc.percentage)
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0, Percentage(0, 0))
	assert.Equal(t, 0, Percentage(5, 0))
	assert.Equal(t, 100, Percentage(10, 10))
	assert.Equal(t, 67, Percentage(2, 3))
	assert.Equal(t, 33, Percentage(1, 3))
	assert.Equal(t, 50, Percentage(1, 2))
}

func TestAttendanceSummaryTally(t *testing.T) {
	s := AttendanceSummary{TotalDays: 4, PresentDays: 3}
	s.Tally()
	assert.Equal(t, 1, s.AbsentDays)
	assert.Equal(t, 75, s.AttendancePercentage)
	assert.InDelta(t, 3.75, s.AttendanceMarks, 1e-9)

	empty := AttendanceSummary{}
	empty.Tally()
	assert.Equal(t, 0, empty.AbsentDays)
	assert.Equal(t, 0, empty.AttendancePercentage)
	assert.InDelta(t, 0, empty.AttendanceMarks, 1e-9)
}

func TestAttendanceStatusValid(t *testing.T) {
	assert.True(t, AttendanceStatusPresent.Valid())
	assert.True(t, AttendanceStatusAbsent.Valid())
	assert.True(t, AttendanceStatusLate.Valid())
	assert.False(t, AttendanceStatus("excused").Valid())
	assert.False(t, AttendanceStatus("").Valid())
}
