package prestashop

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindTimeout   ErrorKind = "timeout"
	KindStatus    ErrorKind = "status"
	KindDecode    ErrorKind = "decode"
)

// RemoteError is the single error type returned by Client for any failed call.
type RemoteError struct {
	Path   string
	Kind   ErrorKind
	Status int
	Body   string
	Err    error
}

func (e *RemoteError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("prestashop %s: API request failed: %d - %s", e.Path, e.Status, e.Body)
	default:
		return fmt.Sprintf("prestashop %s: %s: %v", e.Path, e.Kind, e.Err)
	}
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsNotFound reports a 404 from the webservice.
func IsNotFound(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Kind == KindStatus && re.Status == http.StatusNotFound
}

func IsTimeout(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Kind == KindTimeout
}
