package model

import (
	"errors"
	"fmt"
)

// File-level import failure kinds. Use errors.Is against an *ImportError.
var (
	ErrEmptyOrMissingFile    = errors.New("empty or missing file")
	ErrFileTooLarge          = errors.New("file too large")
	ErrUnsupportedFormat     = errors.New("unsupported format")
	ErrCorruptFile           = errors.New("corrupt file")
	ErrNoData                = errors.New("no data")
	ErrMissingRequiredColumn = errors.New("missing required column")
)

// ImportError aborts an import before any row is processed.
type ImportError struct {
	Kind    error
	Message string
	Cause   error
}

func (e *ImportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ImportError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func NewImportError(kind error, message string, cause error) *ImportError {
	return &ImportError{Kind: kind, Message: message, Cause: cause}
}

// ImportResult is what an import reports back. Success is false only for
// file-level failures; row problems land in Errors.
type ImportResult struct {
	Success       bool     `json:"success"`
	InsertedCount int      `json:"inserted_count"`
	Errors        []string `json:"errors"`

	// Err carries the file-level failure, nil on success.
	Err error `json:"-"`
}

// Failed builds the result for a file-level failure. A corrupt file also
// reports the parser error.
func Failed(err *ImportError) *ImportResult {
	msg := err.Message
	if errors.Is(err.Kind, ErrCorruptFile) && err.Cause != nil {
		msg = err.Error()
	}
	return &ImportResult{
		Success: false,
		Errors:  []string{msg},
		Err:     err,
	}
}
