package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/unitrack/attendance-api/pkg/errors"
)

// OK sends a success response. The payload keys are merged next to the
// "success" flag, which is the envelope the mobile client expects
// (e.g. {"success":true,"enrollments":[...]}).
func OK(c *gin.Context, payload gin.H) {
	JSON(c, http.StatusOK, payload)
}

// JSON sends a success response with an explicit status code.
func JSON(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// Error sends {"success":false,"error":<message>} with the status carried by
// the typed error; unknown errors become a 500.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.JSON(appErr.Status, gin.H{"success": false, "error": appErr.Message})
}

// Fail sends a non-exceptional failure body with HTTP 200. Bulk attendance
// reports "already recorded" this way rather than as a transport error.
func Fail(c *gin.Context, payload gin.H) {
	body := gin.H{"success": false}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}
