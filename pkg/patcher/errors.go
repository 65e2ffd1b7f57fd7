package patcher

import (
	"errors"
	"fmt"
)

// DeclarationNotFoundError means the script has no "<keyword> <identifier>"
// declaration.
type DeclarationNotFoundError struct {
	Keyword    string
	Identifier string
}

func (e *DeclarationNotFoundError) Error() string {
	return fmt.Sprintf("version declaration %q not found", e.Keyword+" "+e.Identifier)
}

// MalformedDeclarationError means the declaration was found but is not of
// the form "<keyword> <identifier> = <value>;".
type MalformedDeclarationError struct {
	Identifier string
	Offset     int
	Reason     string
	Err        error
}

func (e *MalformedDeclarationError) Error() string {
	msg := fmt.Sprintf("malformed %s declaration at offset %d: %s", e.Identifier, e.Offset, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedDeclarationError) Unwrap() error { return e.Err }

// UnsafeValueError means a custom handler produced a value that would break
// the statement it is spliced into.
type UnsafeValueError struct {
	Handler string
	Value   string
}

func (e *UnsafeValueError) Error() string {
	return fmt.Sprintf("version handler %s returned unsafe value %q", e.Handler, e.Value)
}

// HandlerError wraps a failure inside a version handler.
type HandlerError struct {
	Handler string
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("version handler %s failed: %v", e.Handler, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// IsRecoverable reports whether err should be surfaced as a build diagnostic
// while the rest of the build carries on.
func IsRecoverable(err error) bool {
	var (
		notFound  *DeclarationNotFoundError
		malformed *MalformedDeclarationError
		unsafe    *UnsafeValueError
		handler   *HandlerError
	)
	return errors.As(err, &notFound) ||
		errors.As(err, &malformed) ||
		errors.As(err, &unsafe) ||
		errors.As(err, &handler)
}
