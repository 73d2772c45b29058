package printify

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error is a non-2xx response from the Printify API.
type Error struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("printify %s %s failed: status=%d body=%s", e.Method, e.Path, e.StatusCode, e.Body)
}

// HTTPStatus exposes the upstream status to the HTTP error mapping.
func (e *Error) HTTPStatus() int {
	return e.StatusCode
}

// StatusCode returns the upstream status of err, or 0 when err is not a
// Printify API error.
func StatusCode(err error) int {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.StatusCode
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

func IsRateLimited(err error) bool {
	return StatusCode(err) == http.StatusTooManyRequests
}
