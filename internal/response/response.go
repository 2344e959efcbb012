// Package response renders the API's JSON envelope.
package response

import (
	"time"

	"github.com/labstack/echo/v4"
)

// Success writes the success envelope around the given payload
func Success(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Error writes the error envelope with the request path and a human-readable
// message
func Error(c echo.Context, status int, message string) error {
	return c.JSON(status, echo.Map{
		"success":    false,
		"statusCode": status,
		"message":    message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"path":       c.Request().URL.Path,
	})
}
