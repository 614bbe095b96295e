package gateway

import (
	"errors"
	"fmt"
)

// TransportError reports a failed round trip to the remote authority:
// connectivity problems, a non-2xx status, or a body that does not parse
// as the endpoint's response shape. It is never used for a well-formed
// response with success=false; that is a business outcome, not an error.
type TransportError struct {
	Op         string // endpoint path, e.g. /api/login
	StatusCode int    // 0 when the request never completed
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is (or wraps) a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
