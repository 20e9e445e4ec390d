package internal

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a Wordlist matches exactly one of the
// first four with errors.Is.
var (
	ErrFileNotFound   = errors.New("file not found")
	ErrInvalidPattern = errors.New("invalid pattern")
	ErrIO             = errors.New("i/o error")
	ErrEncoding       = errors.New("invalid utf-8")

	// ErrClosed is reported (as an ErrIO) for calls on a closed Wordlist.
	ErrClosed = errors.New("wordlist closed")
)

// SearchError carries the context of a failed operation.
type SearchError struct {
	Op   string // open, search, rewind, ...
	Path string
	Line int // 0 when not tied to a line
	Kind error
	Err  error
}

func (e *SearchError) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(":%d", e.Line)
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SearchError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op, path string, kind, err error) *SearchError {
	return &SearchError{Op: op, Path: path, Kind: kind, Err: err}
}
