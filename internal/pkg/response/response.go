package response

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"releasedesk/internal/pkg/apperr"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

type kindMapping struct {
	kind    error
	status  int
	code    string
	message string
}

var kindMappings = []kindMapping{
	{apperr.ErrValidationFailed, http.StatusBadRequest, "VALIDATION_ERROR", ""},
	{apperr.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED", "Sign in with Google to continue"},
	{apperr.ErrPermissionDenied, http.StatusForbidden, "PERMISSION_DENIED", "The signed-in account cannot access this resource"},
	{apperr.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "Release not found"},
	{apperr.ErrConfigurationMissing, http.StatusInternalServerError, "CONFIGURATION_MISSING", "Server is missing required configuration"},
	{apperr.ErrRemoteUnavailable, http.StatusBadGateway, "REMOTE_UNAVAILABLE", "Remote service is unavailable"},
}

// backendNotFound covers a missing spreadsheet, tab or folder, as opposed
// to a missing release row.
var backendNotFound = kindMapping{apperr.ErrNotFound, http.StatusNotFound, "BACKEND_NOT_FOUND",
	"Configured spreadsheet, tab or folder was not found"}

func mappingFor(err error) (kindMapping, bool) {
	for _, m := range kindMappings {
		if !errors.Is(err, m.kind) {
			continue
		}
		if m.kind == apperr.ErrNotFound && isBackendOp(apperr.RootOp(err)) {
			return backendNotFound, true
		}
		return m, true
	}
	return kindMapping{}, false
}

func isBackendOp(op string) bool {
	return strings.HasPrefix(op, "sheets.") || strings.HasPrefix(op, "drive.")
}

// FromError writes the envelope for an apperr-classified error. Validation
// errors echo their message; other kinds use a fixed message and the cause
// is only logged.
func FromError(c *gin.Context, err error) {
	m, ok := mappingFor(err)
	if !ok {
		log.Printf("request_failed method=%s path=%s code=INTERNAL_ERROR err=%v", c.Request.Method, c.FullPath(), err)
		Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		return
	}

	msg := m.message
	if msg == "" {
		msg = err.Error()
	}
	if m.status >= http.StatusInternalServerError || m.code == backendNotFound.code {
		log.Printf("request_failed method=%s path=%s code=%s err=%v", c.Request.Method, c.FullPath(), m.code, err)
	}
	Error(c, m.status, m.code, msg)
}
