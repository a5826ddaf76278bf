package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unitrack/attendance-api/internal/models"
	"github.com/unitrack/attendance-api/internal/service"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
	"github.com/unitrack/attendance-api/pkg/response"
)

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Create enrolls a student in a course.
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req models.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"enrollment": enrollment})
}

// ByStudent returns a student's active enrollments with live course fields.
func (h *EnrollmentHandler) ByStudent(c *gin.Context) {
	enrollments, err := h.enrollments.ListByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"enrollments": enrollments})
}

// ByCourse returns a course's active enrollments with orphans filtered.
func (h *EnrollmentHandler) ByCourse(c *gin.Context) {
	enrollments, err := h.enrollments.ListByCourse(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"enrollments": enrollments})
}

// ByCourseFast returns a course's active enrollments from the snapshots.
func (h *EnrollmentHandler) ByCourseFast(c *gin.Context) {
	enrollments, err := h.enrollments.ListByCourseFast(c.Request.Context(), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"enrollments": enrollments})
}

// ByTeacher returns active enrollments across a teacher's courses.
func (h *EnrollmentHandler) ByTeacher(c *gin.Context) {
	enrollments, err := h.enrollments.ListByTeacher(c.Request.Context(), c.Param("teacherId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"enrollments": enrollments})
}

// Drop marks an enrollment dropped.
func (h *EnrollmentHandler) Drop(c *gin.Context) {
	if err := h.enrollments.Drop(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "Enrollment dropped successfully"})
}

// AvailableCourses lists the department's courses the student can still join.
func (h *EnrollmentHandler) AvailableCourses(c *gin.Context) {
	courses, err := h.enrollments.AvailableCourses(c.Request.Context(),
		c.Param("studentId"), c.Query("department"), c.Query("intake"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"courses": courses})
}
