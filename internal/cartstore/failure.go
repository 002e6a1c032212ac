package cartstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikolayk812/cartsync/internal/client"
)

var ErrClosed = errors.New("cart store is closed")

type FailureKind int

const (
	FailureUnknown FailureKind = iota
	FailureNetwork
	FailureValidation
	FailureServer
	FailureMalformed
	FailureCanceled
)

func (k FailureKind) String() string {
	switch k {
	case FailureNetwork:
		return "network"
	case FailureValidation:
		return "validation"
	case FailureServer:
		return "server"
	case FailureMalformed:
		return "malformed"
	case FailureCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Failure is what lands in the store's error slot. Message is the single
// human-readable string a view displays; Kind and Status keep the origin.
type Failure struct {
	Kind    FailureKind
	Status  int
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func validationFailure(message string) *Failure {
	return &Failure{Kind: FailureValidation, Message: message}
}

// reduce collapses any transport error into a Failure.
func reduce(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	switch {
	case errors.Is(err, ErrClosed):
		return &Failure{Kind: FailureCanceled, Message: "The cart is no longer available.", Err: err}
	case errors.Is(err, context.Canceled):
		return &Failure{Kind: FailureCanceled, Message: "The request was canceled.", Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Failure{Kind: FailureNetwork, Message: "The cart service did not respond in time.", Err: err}
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Kind {
		case client.KindNetwork:
			return &Failure{
				Kind:    FailureNetwork,
				Message: "Cannot reach the cart service. Check your connection and try again.",
				Err:     err,
			}
		case client.KindValidation:
			return &Failure{Kind: FailureValidation, Status: apiErr.Status, Message: apiErr.Message, Err: err}
		case client.KindServer:
			return &Failure{
				Kind:    FailureServer,
				Status:  apiErr.Status,
				Message: fmt.Sprintf("The cart service failed (%d). Try again later.", apiErr.Status),
				Err:     err,
			}
		case client.KindMalformed:
			return &Failure{
				Kind:    FailureMalformed,
				Message: "Unexpected response from the cart service.",
				Err:     err,
			}
		}
	}

	return &Failure{Kind: FailureUnknown, Message: err.Error(), Err: err}
}
