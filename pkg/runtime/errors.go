package runtime

import (
	"errors"
	"fmt"

	"github.com/hutchdb/hutch/pkg/types"
)

// TransportError reports a failed socket conversation: the runtime
// socket was unreachable, denied permission, or went silent until the
// idle deadline fired. Fatal for the call; never retried internally.
type TransportError struct {
	Op      string
	Socket  string
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("runtime gateway %s: timed out waiting on %s: %v", e.Op, e.Socket, e.Err)
	}
	return fmt.Sprintf("runtime gateway unreachable (%s on %s): %v", e.Op, e.Socket, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a response the decoder could not make sense of:
// a malformed status line or header block. Indicates a protocol
// mismatch with the runtime rather than a transient fault.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed runtime response: %s", e.Reason)
}

// DialectError reports an operation the active dialect cannot express.
// This is a programming error: a complete translator never produces it
// at runtime.
type DialectError struct {
	Dialect types.Dialect
	Op      string
}

func (e *DialectError) Error() string {
	return fmt.Sprintf("operation %q not supported for %s dialect", e.Op, e.Dialect)
}

// StatusError reports a non-2xx response from the runtime, with
// whatever body text the runtime attached to it.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("runtime returned status %d", e.Code)
	}
	return fmt.Sprintf("runtime returned status %d: %s", e.Code, e.Body)
}

// IsConflict reports whether the error is a 409 from the runtime, such
// as a create racing an existing name.
func IsConflict(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == 409
}

// IsTimeout reports whether the error is a transport timeout.
func IsTimeout(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Timeout
}
