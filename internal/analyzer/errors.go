package analyzer

import (
	"errors"
	"fmt"
)

// UsageError reports a bad invocation: a missing argument or an input path
// that does not exist. Nothing was analyzed.
type UsageError struct {
	Path string
	Msg  string
}

func (e *UsageError) Error() string {
	if e.Path == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}

// IOFailure reports an input that exists but could not be read or decoded.
type IOFailure struct {
	Path string
	Err  error
}

func (e *IOFailure) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *IOFailure) Unwrap() error { return e.Err }

// AsUsage returns the UsageError inside err, if any.
func AsUsage(err error) (*UsageError, bool) {
	var ue *UsageError
	ok := errors.As(err, &ue)
	return ue, ok
}

// AsIOFailure returns the IOFailure inside err, if any.
func AsIOFailure(err error) (*IOFailure, bool) {
	var iof *IOFailure
	ok := errors.As(err, &iof)
	return iof, ok
}
