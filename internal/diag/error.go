package diag

import (
	"errors"
	"fmt"
)

// Error is a fatal diagnostic: it aborts the bundling run that produced it.
type Error struct {
	Diagnostic
	Err error // underlying cause (I/O error, parser or transformer error), may be nil
}

// Sentinels for errors.Is; only the Code is compared.
var (
	ErrUnreadableSource    = &Error{Diagnostic: Diagnostic{Code: BundleUnreadableSource}}
	ErrSyntaxError         = &Error{Diagnostic: Diagnostic{Code: BundleSyntaxError}}
	ErrTransformError      = &Error{Diagnostic: Diagnostic{Code: BundleTransformError}}
	ErrUnresolvedSpecifier = &Error{Diagnostic: Diagnostic{Code: BundleUnresolvedSpecifier}}
	ErrCyclicGraphOverflow = &Error{Diagnostic: Diagnostic{Code: BundleCyclicGraphOverflow}}
	ErrCorruptGraph        = &Error{Diagnostic: Diagnostic{Code: BundleCorruptGraph}}
	ErrWriteFailed         = &Error{Diagnostic: Diagnostic{Code: BundleWriteFailed}}
)

// Errorf builds an *Error with SevError.
func Errorf(code Code, path string, cause error, format string, args ...any) *Error {
	return &Error{
		Diagnostic: New(SevError, code, path, fmt.Sprintf(format, args...)),
		Err:        cause,
	}
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Code.ID(), e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Code.ID(), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by code. An unresolved specifier is a failed read of
// the joined path, so it also matches ErrUnreadableSource.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == e.Code {
		return true
	}
	return e.Code == BundleUnresolvedSpecifier && t.Code == BundleUnreadableSource
}

// AsError extracts the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
