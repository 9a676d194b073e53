package kdberrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind enumerates the error taxonomy of the configuration database core.
// Kinds are reported, not type-asserted: callers compare a Kind value,
// never a Go error type.
type Kind int

const (
	// Unknown is the zero value and should never be set deliberately.
	Unknown Kind = iota

	// InvalidName means a string is not a valid key name.
	InvalidName

	// InvalidArgument means a required input is null, out of range, or
	// structurally malformed.
	InvalidArgument

	// ReadOnlyOrShared means a mutation was attempted on a key whose
	// use-count is nonzero or whose read-only flag is set.
	ReadOnlyOrShared

	// OutOfMemory means an allocation failed.
	OutOfMemory

	// NotFound means the requested key or mountpoint does not exist.
	NotFound

	// PluginOpenFailed means a plugin's open verb returned failure; the
	// backend containing it is abandoned.
	PluginOpenFailed

	// BackendMisconfigured means the mount description is missing a
	// required child or contains conflicting back-references.
	BackendMisconfigured

	// PluginExecutionFailed means a failure propagated from a plugin's
	// get or set verb.
	PluginExecutionFailed
)

// String renders the Kind the way it would be reported as a primary error
// code: a short, stable, machine-greppable token.
func (k Kind) String() string {
	switch k {
	case InvalidName:
		return "InvalidName"
	case InvalidArgument:
		return "InvalidArgument"
	case ReadOnlyOrShared:
		return "ReadOnlyOrShared"
	case OutOfMemory:
		return "OutOfMemory"
	case NotFound:
		return "NotFound"
	case PluginOpenFailed:
		return "PluginOpenFailed"
	case BackendMisconfigured:
		return "BackendMisconfigured"
	case PluginExecutionFailed:
		return "PluginExecutionFailed"
	default:
		return "Unknown"
	}
}

// Error is the concrete error value returned by this module's fallible
// calls. It carries a Kind plus the underlying cause, if any, wrapped with
// github.com/pkg/errors so the causal chain survives.
type Error struct {
	Kind   Kind
	Reason string
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Unwrap exposes the wrapped cause so errors.Is/errors.As keep working.
func (e *Error) Unwrap() error { return e.cause }

// New builds an Error of the given Kind with no underlying cause.
func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Newf builds an Error of the given Kind with a formatted reason.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind and reason to an existing cause, preserving it for
// errors.Is/errors.As via github.com/pkg/errors.
func Wrap(kind Kind, reason string, cause error) *Error {
	if cause == nil {
		return New(kind, reason)
	}
	return &Error{Kind: kind, Reason: reason, cause: errors.Wrap(cause, reason)}
}

// Is reports whether err is a *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
