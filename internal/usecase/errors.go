package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrConfiguration         = errors.New("configuration error")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrPlanRestricted means the provider plan does not cover a competition.
	ErrPlanRestricted = errors.New("competition not included in provider plan")
	ErrNoBroadcastKey = errors.New("fixture has no key for broadcast source")
)

type httpStatusError interface {
	HTTPStatus() int
}

// upstreamStatus returns the HTTP status an upstream client attached to err,
// or 0.
func upstreamStatus(err error) int {
	var statusErr httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.HTTPStatus()
	}
	return 0
}
