package teamiq

import (
	"errors"
	"fmt"
)

// ErrSessionExpired marks authentication failures that survived the
// refresh-and-retry cycle. Callers branch on it with errors.Is to send the
// user back to the login screen.
var ErrSessionExpired = errors.New("session expired")

// APIError is a non-2xx answer from the server. When the body carried the
// standard error envelope its fields are copied over; otherwise Message
// holds the raw body or the HTTP status text.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// TransportError means the request never produced an HTTP response:
// connection refused, DNS failure, timeout. Transport failures are not
// translated into API errors and never trigger the refresh path.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
