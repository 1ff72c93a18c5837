package provider

import (
	"fmt"
	"net/http"

	crerr "github.com/cockroachdb/errors"
)

// ErrAuth is returned by constructors when required credentials are absent.
var ErrAuth = crerr.New("provider credentials missing")

// HTTPError is a non-2xx response from an upstream provider.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: status=%d url=%s body=%s", e.Provider, e.StatusCode, e.URL, e.Body)
}

// HTTPStatus lets callers outside this package read the status without
// importing it.
func (e *HTTPError) HTTPStatus() int {
	return e.StatusCode
}

// StatusCode returns the upstream status carried by err, or 0.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if crerr.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

func IsForbidden(err error) bool {
	return StatusCode(err) == http.StatusForbidden
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
