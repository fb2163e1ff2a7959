// Package build owns the shared mutable pipeline state: the file index, the
// chunk graph, the rename map and the running statistics threaded through
// every stage.
package build

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind distinguishes error categories at the stage boundary so callers can
// switch on what went wrong instead of pattern-matching an error string.
type Kind int

const (
	// KindUnknown is the zero value; never returned deliberately.
	KindUnknown Kind = iota
	// KindConfigInvalid means the loaded configuration failed validation.
	KindConfigInvalid
	// KindScanFailed means the asset tree could not be enumerated.
	KindScanFailed
	// KindFileNotFound means a context mutation referenced an absent file.
	KindFileNotFound
	// KindFileAlreadyExists means add_file collided with an existing key.
	KindFileAlreadyExists
	// KindInvalidPath means a path could not be made relative to the root.
	KindInvalidPath
	// KindMinifyFailed means the minify stage could not process a file.
	KindMinifyFailed
	// KindHashFailed means the hash stage could not process a file.
	KindHashFailed
	// KindChunkFailed means the chunk stage could not process a file.
	KindChunkFailed
	// KindInjectFailed means the inject stage could not complete.
	KindInjectFailed
	// KindIO means an unclassified filesystem failure occurred.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindConfigInvalid:
		return "ConfigInvalid"
	case KindScanFailed:
		return "ScanFailed"
	case KindFileNotFound:
		return "FileNotFound"
	case KindFileAlreadyExists:
		return "FileAlreadyExists"
	case KindInvalidPath:
		return "InvalidPath"
	case KindMinifyFailed:
		return "MinifyFailed"
	case KindHashFailed:
		return "HashFailed"
	case KindChunkFailed:
		return "ChunkFailed"
	case KindInjectFailed:
		return "InjectFailed"
	case KindIO:
		return "Io"
	default:
		return "Unknown"
	}
}

// Error is the single error type that crosses every stage boundary. Path is
// empty when a failure isn't associated with one file (e.g. ConfigInvalid).
type Error struct {
	Kind   Kind
	Path   string
	Reason string
	cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Reason)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Newf constructs an *Error with no associated path.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// WithPath constructs an *Error carrying the offending path.
func WithPath(kind Kind, path, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Path: path, Reason: fmt.Sprintf(format, args...)}
}

// Wrap annotates cause with a Kind and path. The cause stays reachable via
// Unwrap, wrapped by pkg/errors' WithStack, so printing that cause with %+v
// shows the stack at the Wrap call; the *Error itself prints only its kind,
// path and reason.
func Wrap(kind Kind, path string, cause error) *Error {
	wrapped := errors.WithStack(cause)
	return &Error{Kind: kind, Path: path, Reason: cause.Error(), cause: wrapped}
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind == kind
	}
	return false
}
