package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unitrack/attendance-api/internal/models"
	"github.com/unitrack/attendance-api/internal/service"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
	"github.com/unitrack/attendance-api/pkg/response"
)

// AttendanceHandler exposes attendance recording endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// TakeBulk records one section's attendance for a day. A repeat submission
// answers HTTP 200 with success=false rather than an error status.
func (h *AttendanceHandler) TakeBulk(c *gin.Context) {
	var req models.TakeBulkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	result, err := h.attendance.TakeBulk(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !result.Success {
		response.Fail(c, gin.H{"created": result.Created, "errors": result.Errors, "message": result.Message})
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"created": result.Created, "errors": result.Errors})
}

// Record writes or replaces a single attendance entry.
func (h *AttendanceHandler) Record(c *gin.Context) {
	var req models.CreateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	record, err := h.attendance.Record(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"attendance": record})
}

// Update edits an attendance record.
func (h *AttendanceHandler) Update(c *gin.Context) {
	var req models.UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	if err := h.attendance.Update(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Attendance updated successfully"})
}

// Delete removes an attendance record.
func (h *AttendanceHandler) Delete(c *gin.Context) {
	if err := h.attendance.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Attendance deleted successfully"})
}

// ByCourse returns a course's records, optionally for one day.
func (h *AttendanceHandler) ByCourse(c *gin.Context) {
	records, err := h.attendance.ByCourse(c.Request.Context(), c.Param("courseId"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"attendance": records})
}

// ByStudent returns a student's records, optionally for one course.
func (h *AttendanceHandler) ByStudent(c *gin.Context) {
	records, err := h.attendance.ByStudent(c.Request.Context(), c.Param("studentId"), c.Query("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"attendance": records})
}

// IntakesSections lists the intake/section values among a course's
// enrollments.
func (h *AttendanceHandler) IntakesSections(c *gin.Context) {
	result, err := h.attendance.IntakesAndSections(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"intakes":          result.Intakes,
		"sections":         result.Sections,
		"intakeSectionMap": result.IntakeSectionMap,
	})
}

// Stats returns coarse counters for a course.
func (h *AttendanceHandler) Stats(c *gin.Context) {
	stats, err := h.attendance.Stats(c.Request.Context(), c.Param("courseId"), c.Query("intake"), c.Query("section"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"stats": stats})
}
