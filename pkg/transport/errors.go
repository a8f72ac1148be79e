package transport

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// TypeError reports a request that cannot be built from the supplied data.
// It is returned before any network call is made.
type TypeError struct {
	Msg string
}

func (e *TypeError) Error() string { return e.Msg }

// ErrFormDataQuery is returned when a multipart form is given to a query verb.
var ErrFormDataQuery = &TypeError{Msg: "Unable to encode FormData for GET, DELETE requests"}

// HTTPError is returned when the server answers with a non-2xx status.
type HTTPError struct {
	// Response is the decoded JSON error body, or the raw body text when it is not JSON.
	Response any
	Status   int
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("http %d", e.Status)
	if text := strings.TrimSpace(http.StatusText(e.Status)); text != "" {
		msg += " " + text
	}
	return msg
}

// AsHTTPError extracts *HTTPError from err.
func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// IsHTTPStatus reports whether err is an HTTPError with the given status.
func IsHTTPStatus(err error, status int) bool {
	he, ok := AsHTTPError(err)
	return ok && he.Status == status
}
