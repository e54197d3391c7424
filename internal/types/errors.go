package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrNoRecords          = errors.New("no records produced")
	ErrSurfaceUnavailable = errors.New("content surface unavailable")
	ErrEmptyText          = errors.New("text is empty after normalization")
	ErrScoreOutOfRange    = errors.New("polarity score outside [-1, 1]")
	ErrLoginRequired      = errors.New("login required")
	ErrNoCredentials      = errors.New("no credentials configured")
)

// SurfaceError wraps a recoverable failure of the content surface
// (growth, measurement or collection).
type SurfaceError struct {
	Op  string
	Err error
}

func (e *SurfaceError) Error() string {
	return fmt.Sprintf("surface %s: %v", e.Op, e.Err)
}

func (e *SurfaceError) Unwrap() error { return e.Err }

// SessionError reports loss of the content surface itself, such as an
// invalidated login or a closed browser. The extraction core cannot recover it.
type SessionError struct {
	URL string
	Err error
}

func (e *SessionError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("session error at %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("session error: %v", e.Err)
}

func (e *SessionError) Unwrap() error { return e.Err }

// IsSessionError reports whether err carries a *SessionError.
func IsSessionError(err error) bool {
	var se *SessionError
	return errors.As(err, &se)
}

// ClassifierError wraps a sentiment scorer failure for one candidate.
type ClassifierError struct {
	Score float64
	Err   error
}

func (e *ClassifierError) Error() string {
	if errors.Is(e.Err, ErrScoreOutOfRange) {
		return fmt.Sprintf("classifier: score %v: %v", e.Score, e.Err)
	}
	return fmt.Sprintf("classifier: %v", e.Err)
}

func (e *ClassifierError) Unwrap() error { return e.Err }

// ParseError wraps errors that occur while turning markup into fragments.
type ParseError struct {
	Source   string
	Selector string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s (selector=%q): %v", e.Source, e.Selector, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// PipelineError wraps errors raised by a record middleware.
type PipelineError struct {
	Stage string
	Index int
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error at stage %q (fragment %d): %v", e.Stage, e.Index, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
