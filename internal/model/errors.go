package model

import (
	"errors"
	"fmt"
)

// ResolutionError means a USRN has no resolvable geometry. It is terminal for
// bbox-dependent collections in the same request but does not abort
// direct-filter collections.
type ResolutionError struct {
	USRN string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no geometry found for USRN %s", e.USRN)
}

// IsResolution reports whether err is (or wraps) a ResolutionError.
func IsResolution(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}

// ValidationError rejects malformed request input before any fetch runs.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UpstreamError is a transport failure, timeout, or unexpected schema from one
// source. It carries the source identity and underlying status so the
// coordinator can isolate it per domain.
type UpstreamError struct {
	Collection string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: status %d: %v", e.Collection, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s: %v", e.Collection, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsUpstream reports whether err is (or wraps) an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
