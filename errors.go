package userconsole

import (
	"errors"
	"net/http"
	"regexp"
)

// APIError is a failed call to the users API collapsed into one readable
// message.
type APIError struct {
	Op      string // login | list | get | create | update | delete
	Status  int    // 0 when no HTTP response was received
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is an HTTP 401 from the users API.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

var unauthorizedText = regexp.MustCompile(`\b401\b|Unauthorized`)

// LooksUnauthorized is IsUnauthorized widened to failures that carry no HTTP
// status but whose message names a 401. A known non-401 status is never
// reinterpreted from its text, which may contain a user id.
func LooksUnauthorized(err error) bool {
	if err == nil {
		return false
	}
	if status := StatusOf(err); status != 0 {
		return status == http.StatusUnauthorized
	}
	return unauthorizedText.MatchString(err.Error())
}

// IsForbidden reports whether err is an HTTP 403.
func IsForbidden(err error) bool {
	return StatusOf(err) == http.StatusForbidden
}
