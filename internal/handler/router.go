package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/unitrack/attendance-api/internal/middleware"
	"github.com/unitrack/attendance-api/internal/models"
	"github.com/unitrack/attendance-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth       *AuthHandler
	Users      *UserHandler
	Courses    *CourseHandler
	Enrollment *EnrollmentHandler
	Attendance *AttendanceHandler
	Reports    *ReportHandler
}

// RegisterRoutes mounts the API under the given prefix plus the health and
// metrics endpoints at the root.
func RegisterRoutes(router *gin.Engine, prefix string, h Handlers, auth *service.AuthService, metrics *service.MetricsService) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group(prefix)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.GET("/me", middleware.JWT(auth), h.Auth.Me)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(auth))

	staff := middleware.RequireRoles(models.RoleTeacher, models.RoleAdmin)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	users := authed.Group("/users")
	{
		users.GET("", adminOnly, h.Users.List)
		users.POST("/teachers", adminOnly, h.Users.CreateTeacher)
		users.DELETE("/:id", adminOnly, h.Users.Delete)
	}

	courses := authed.Group("/courses")
	{
		courses.POST("", staff, h.Courses.Create)
		courses.GET("", h.Courses.List)
		courses.GET("/:id", h.Courses.Get)
		courses.PUT("/:id", staff, h.Courses.Update)
		courses.DELETE("/:id", adminOnly, h.Courses.Delete)
	}

	enrollments := authed.Group("/enrollments")
	{
		enrollments.POST("", h.Enrollment.Create)
		enrollments.GET("/student/:studentId", h.Enrollment.ByStudent)
		enrollments.GET("/course/:courseId", h.Enrollment.ByCourse)
		enrollments.GET("/course/:courseId/fast", h.Enrollment.ByCourseFast)
		enrollments.GET("/teacher/:teacherId", staff, h.Enrollment.ByTeacher)
		enrollments.GET("/available-courses/:studentId", h.Enrollment.AvailableCourses)
		enrollments.DELETE("/:id", h.Enrollment.Drop)
	}

	attendance := authed.Group("/attendance")
	{
		attendance.POST("/bulk", staff, h.Attendance.TakeBulk)
		attendance.POST("", staff, h.Attendance.Record)
		attendance.PUT("/:id", staff, h.Attendance.Update)
		attendance.DELETE("/:id", staff, h.Attendance.Delete)
		attendance.GET("/course/:courseId", h.Attendance.ByCourse)
		attendance.GET("/student/:studentId", h.Attendance.ByStudent)
		attendance.GET("/intakes-sections/:courseId", h.Attendance.IntakesSections)
		attendance.GET("/stats/:courseId", h.Attendance.Stats)
	}

	// Export downloads carry their own signed token instead of a JWT.
	api.GET("/reports/export/:token", h.Reports.ExportDownload)

	reports := authed.Group("/reports")
	{
		reports.GET("/course/:courseId", h.Reports.Course)
		reports.GET("/course/:courseId/total", h.Reports.CourseTotal)
		reports.GET("/course/:courseId/export", staff, h.Reports.CourseExport)
		reports.POST("/course/:courseId/export-jobs", staff, h.Reports.CreateExportJob)
		reports.GET("/export-jobs/:id", staff, h.Reports.ExportJobStatus)
		reports.GET("/student/:studentId/course/:courseId", h.Reports.StudentCourse)
		reports.GET("/student/:studentId/total", h.Reports.StudentTotal)
		reports.GET("/student/:studentId/courses", h.Reports.StudentCourses)
		reports.GET("/months/:courseId", h.Reports.Months)
	}
}
