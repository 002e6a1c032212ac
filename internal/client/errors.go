package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed request.
type Kind int

const (
	// KindNetwork means no response was received.
	KindNetwork Kind = iota + 1
	// KindValidation is a 4xx rejection carrying the server's message.
	KindValidation
	// KindServer is a 5xx failure.
	KindServer
	// KindMalformed means the response did not have the expected shape.
	KindMalformed
)

var (
	ErrNetwork    = errors.New("network error")
	ErrValidation = errors.New("request rejected")
	ErrServer     = errors.New("server error")
	ErrMalformed  = errors.New("malformed response")
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindValidation:
		return ErrValidation
	case KindServer:
		return ErrServer
	case KindMalformed:
		return ErrMalformed
	default:
		return nil
	}
}

// APIError is returned by every Client method on failure.
type APIError struct {
	Op      string // e.g. "POST /cart"
	Kind    Kind
	Status  int    // HTTP status, zero for network failures
	Message string // server supplied or synthesized, fit for display
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (%d): %s", e.Op, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels so callers can use errors.Is(err, ErrServer).
func (e *APIError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func statusKind(status int) Kind {
	if status >= http.StatusInternalServerError {
		return KindServer
	}
	return KindValidation
}
