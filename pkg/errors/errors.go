package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInputFormat   = errors.New("input format error")
	ErrFileAccess    = errors.New("file access error")
	ErrIndexCorrupt  = errors.New("index corrupt")
	ErrConfiguration = errors.New("configuration error")
)

// Exit codes follow the sysexits convention used by the command-line tools.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 64
	ExitDataErr = 65
	ExitNoInput = 66
	ExitIOErr   = 74
)

type AppError struct {
	Err     error
	Message string
	// Line is the 1-based input line the error refers to, or 0.
	Line    int
	Content string
}

func (e *AppError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s (%q)", e.Err.Error(), e.Line, e.Message, e.Content)
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewRecord builds an error pointing at one offending input record.
func NewRecord(sentinel error, line int, content string, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Content: content,
	}
}

// RecordOf returns the line and content of the offending record carried by
// err, if any.
func RecordOf(err error) (int, string, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Line > 0 {
		return appErr.Line, appErr.Content, true
	}
	return 0, "", false
}

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch {
	case errors.Is(err, ErrConfiguration):
		return ExitUsage
	case errors.Is(err, ErrInputFormat):
		return ExitDataErr
	case errors.Is(err, ErrFileAccess):
		return ExitNoInput
	case errors.Is(err, ErrIndexCorrupt):
		return ExitIOErr
	default:
		return ExitFailure
	}
}
