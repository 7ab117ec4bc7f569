package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	utils "github.com/phillip/tour-booking-go/utils"
)

// ErrorFunnel is the single terminal stage every forwarded error reaches.
// Operational errors keep their status and message; anything else is logged
// and collapsed into a generic 500 envelope.
func ErrorFunnel() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err

		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			c.JSON(appErr.StatusCode, gin.H{
				"status":  appErr.Status(),
				"message": appErr.Message,
			})
			return
		}

		log.Printf("unexpected error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Something went wrong. Please, try again later",
		})
	}
}
