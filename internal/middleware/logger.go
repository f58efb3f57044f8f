package middleware

import (
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorLogger writes one line per failed request and turns panics into the
// standard 500 envelope. Remote failures reach it through c.Error.
func ErrorLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				logRequestError(c, start, "panic", fmt.Sprint(recovered))
				log.Printf("request_panic_stack request_id=%s\n%s", requestID(c), debug.Stack())

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error": gin.H{
						"code":    "INTERNAL_SERVER_ERROR",
						"message": "Internal Server Error",
					},
				})
				return
			}

			if len(c.Errors) == 0 {
				if c.Writer.Status() >= http.StatusInternalServerError {
					logRequestError(c, start, "http_error", "")
				}
				return
			}
			for _, err := range c.Errors {
				logRequestError(c, start, "handler", err.Error())
			}
		}()

		c.Next()
	}
}

func logRequestError(c *gin.Context, start time.Time, kind, message string) {
	log.Printf(
		"request_error kind=%s status=%d method=%s route=%s release_id=%s session_id=%s request_id=%s latency=%s error=%q",
		kind,
		c.Writer.Status(),
		c.Request.Method,
		c.FullPath(),
		c.Param("id"),
		c.GetString("session_id"),
		requestID(c),
		time.Since(start),
		message,
	)
}

func requestID(c *gin.Context) string {
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-Id")
}
