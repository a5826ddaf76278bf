package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/unitrack/attendance-api/internal/middleware"
	"github.com/unitrack/attendance-api/internal/service"
	appErrors "github.com/unitrack/attendance-api/pkg/errors"
	"github.com/unitrack/attendance-api/pkg/export"
	"github.com/unitrack/attendance-api/pkg/response"
)

// ReportHandler exposes the report read and export endpoints.
type ReportHandler struct {
	reports *service.ReportService
	exports *service.ExportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService, exports *service.ExportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// Course returns the monthly per-student report for a course.
func (h *ReportHandler) Course(c *gin.Context) {
	month, year, err := monthYearParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.reports.CourseReport(c.Request.Context(),
		c.Param("courseId"), c.Query("intake"), c.Query("section"), month, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"report": entries})
}

// CourseTotal returns the all-time per-student report for a course.
func (h *ReportHandler) CourseTotal(c *gin.Context) {
	entries, err := h.reports.CourseReportTotal(c.Request.Context(),
		c.Param("courseId"), c.Query("intake"), c.Query("section"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"report": entries})
}

// CourseExport downloads the all-time course report as CSV or PDF.
func (h *ReportHandler) CourseExport(c *gin.Context) {
	courseID := c.Param("courseId")
	entries, err := h.reports.CourseReportTotal(c.Request.Context(),
		courseID, c.Query("intake"), c.Query("section"))
	if err != nil {
		response.Error(c, err)
		return
	}

	table := service.CourseReportTable(entries)

	format := c.DefaultQuery("format", "csv")
	switch format {
	case "csv":
		payload, err := export.CSV(table)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=attendance-report-%s.csv", courseID))
		c.Data(200, "text/csv", payload)
	case "pdf":
		payload, err := export.PDF(table)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=attendance-report-%s.pdf", courseID))
		c.Data(200, "application/pdf", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

// StudentCourse returns one student's monthly report for a course.
func (h *ReportHandler) StudentCourse(c *gin.Context) {
	month, year, err := monthYearParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.reports.StudentCourseReport(c.Request.Context(),
		c.Param("studentId"), c.Param("courseId"), month, year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"summary": report.Summary, "attendanceRecords": report.Records})
}

// StudentTotal returns a student's aggregate across every course.
func (h *ReportHandler) StudentTotal(c *gin.Context) {
	total, courses, err := h.reports.StudentTotal(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"totalAttendance": total, "courses": courses})
}

// StudentCourses returns a student's per-course breakdown.
func (h *ReportHandler) StudentCourses(c *gin.Context) {
	breakdown, err := h.reports.StudentAllCourses(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"report": breakdown})
}

// Months lists the months a course has records for, optionally narrowed to
// one student.
func (h *ReportHandler) Months(c *gin.Context) {
	months, err := h.reports.AvailableMonths(c.Request.Context(), c.Param("courseId"), c.Query("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"months": months})
}

// CreateExportJob queues a background export of the all-time course report.
func (h *ReportHandler) CreateExportJob(c *gin.Context) {
	requestedBy := ""
	if claims := middleware.CurrentUser(c); claims != nil {
		requestedBy = claims.UserID
	}
	job, err := h.exports.Enqueue(c.Request.Context(),
		c.Param("courseId"), c.Query("intake"), c.Query("section"),
		c.DefaultQuery("format", "csv"), requestedBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"job": job})
}

// ExportJobStatus reports the state of a queued export.
func (h *ReportHandler) ExportJobStatus(c *gin.Context) {
	job, err := h.exports.Job(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"job": job})
}

// ExportDownload streams a finished export file identified by a signed token.
func (h *ReportHandler) ExportDownload(c *gin.Context) {
	f, name, err := h.exports.OpenDownload(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}

	contentType := "text/csv"
	if strings.HasSuffix(name, ".pdf") {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	c.DataFromReader(http.StatusOK, info.Size(), contentType, f, nil)
}

func monthYearParams(c *gin.Context) (int, int, error) {
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "month is required")
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "year is required")
	}
	return month, year, nil
}
