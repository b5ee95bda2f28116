package aurion

import (
	"errors"
	"fmt"
	"net/url"
)

// ErrPageStructure is wrapped by every error caused by a page that no longer
// looks the way the navigation sequence expects.
var ErrPageStructure = errors.New("unexpected page structure")

var (
	ErrTokenNotFound     = fmt.Errorf("%w: token not found", ErrPageStructure)
	ErrContainerNotFound = fmt.Errorf("%w: update container not found", ErrPageStructure)
	ErrEnvelopeMismatch  = fmt.Errorf("%w: events envelope mismatch", ErrPageStructure)
	ErrLoginFailed       = errors.New("login failed: invalid credentials")
)

// StatusError is returned when the portal or the CAS answers with a non-2xx status.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Status)
}

// IsTransportError tells whether err came from the HTTP exchange itself
// (bad status, network failure) rather than from the page contents.
func IsTransportError(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func IsPageStructureError(err error) bool {
	return errors.Is(err, ErrPageStructure)
}
