// Package faults defines the typed error taxonomy shared by the gateways,
// the scheduler, and the storage layer. Faults carry their classification
// from the point of failure; transport layers translate the kind into
// HTTP statuses and JSON-RPC codes without ever inspecting message text.
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a fault for transport mapping.
type Kind int

const (
	// KindInternal - unexpected or unclassified failure.
	KindInternal Kind = iota
	// KindValidation - malformed or missing request field.
	KindValidation
	// KindAuth - missing or invalid credential.
	KindAuth
	// KindNotFound - unknown RPC method, path, or workflow identifier.
	KindNotFound
	// KindUpstream - a workflow or storage collaborator failed.
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Fault is an error with a transport-relevant classification.
type Fault struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Message != "" {
		return f.Message
	}
	if f.Err != nil {
		return f.Err.Error()
	}
	return f.Kind.String() + " fault"
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Validation builds a validation fault with a formatted message.
func Validation(format string, args ...any) *Fault {
	return &Fault{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Auth builds an authorization fault with a formatted message.
func Auth(format string, args ...any) *Fault {
	return &Fault{Kind: KindAuth, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a not-found fault with a formatted message.
func NotFound(format string, args ...any) *Fault {
	return &Fault{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Upstream wraps a collaborator failure.
func Upstream(err error, format string, args ...any) *Fault {
	return &Fault{Kind: KindUpstream, Message: fmt.Sprintf(format, args...), Err: err}
}

// Internal wraps an unexpected failure.
func Internal(err error, format string, args ...any) *Fault {
	return &Fault{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the classification of err, walking the Unwrap chain.
// Errors that carry no Fault classify as internal.
func KindOf(err error) Kind {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault.Kind
	}
	return KindInternal
}

// IsClient reports whether err should surface as a caller error (4xx).
func IsClient(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindNotFound, KindAuth:
		return true
	default:
		return false
	}
}
