package services

import (
	"fmt"

	"github.com/desertthunder/wardrobe/internal/shared"
)

// Op names a remote wardrobe operation.
type Op string

const (
	OpList   Op = "list"
	OpUpload Op = "upload"
	OpDelete Op = "delete"
)

// FailureKind separates failures that need different remediation.
type FailureKind int

const (
	// KindTransport means the server could not be reached.
	KindTransport FailureKind = iota
	// KindDecode means the server answered with something that is not the expected JSON.
	KindDecode
	// KindStatus means the server answered with a non-2xx status.
	KindStatus
	// KindRejected means the server answered 2xx but reported a status other than "ok".
	KindRejected
)

func (k FailureKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindStatus:
		return "status"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// RequestError is a failed remote call.
//
// It matches [shared.ErrLoadFailed], [shared.ErrUploadFailed] or [shared.ErrDeleteFailed] depending on Op,
// and additionally [shared.ErrServiceUnavailable] for transport failures.
type RequestError struct {
	Op         Op
	Kind       FailureKind
	File       string
	StatusCode int
	Reason     string
	Err        error
}

func (e *RequestError) Error() string {
	prefix := e.sentinel().Error()
	if e.File != "" {
		prefix += ": " + e.File
	}
	return prefix + ": " + e.Detail()
}

// Detail is the user-facing description without the operation prefix.
func (e *RequestError) Detail() string {
	switch e.Kind {
	case KindTransport:
		return "wardrobe server unreachable, check your connection"
	case KindDecode:
		return "server sent an unreadable response, check the server configuration"
	case KindStatus:
		if e.Reason != "" {
			return fmt.Sprintf("server responded %d: %s", e.StatusCode, e.Reason)
		}
		return fmt.Sprintf("server responded %d", e.StatusCode)
	case KindRejected:
		if e.Reason != "" {
			return "server rejected the request: " + e.Reason
		}
		return "server rejected the request"
	default:
		return "unknown failure"
	}
}

func (e *RequestError) Unwrap() error { return e.Err }

func (e *RequestError) Is(target error) bool {
	if target == e.sentinel() {
		return true
	}
	return e.Kind == KindTransport && target == shared.ErrServiceUnavailable
}

func (e *RequestError) sentinel() error {
	switch e.Op {
	case OpUpload:
		return shared.ErrUploadFailed
	case OpDelete:
		return shared.ErrDeleteFailed
	default:
		return shared.ErrLoadFailed
	}
}

// Retryable reports whether repeating the request could succeed.
func (e *RequestError) Retryable() bool {
	return e.Kind == KindTransport || (e.Kind == KindStatus && e.StatusCode >= 500)
}

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{shared.ErrValidation}, args...)...)
}
