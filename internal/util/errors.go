package util

import (
	"errors"
	"fmt"
)

// ErrorContext provides standardized error formatting for different operations
type ErrorContext string

const (
	ConfigError   ErrorContext = "Config"
	FileError     ErrorContext = "File"
	DaemonError   ErrorContext = "Daemon"
	MailError     ErrorContext = "Mail"
	DatabaseError ErrorContext = "Database"
	ServerError   ErrorContext = "Server"
)

// Error kinds. Callers wrap these with fmt.Errorf("...: %w", ErrX) and match
// them with errors.Is.
var (
	// ErrConfig is fatal and aborts startup.
	ErrConfig = errors.New("configuration error")
	// ErrDatabase covers connect and query failures. The monitor loop
	// recovers from it with a cool-down.
	ErrDatabase = errors.New("database error")
	// ErrAuth is an SMTP authentication failure.
	ErrAuth = errors.New("smtp authentication failed")
	// ErrSend is any other mail delivery failure.
	ErrSend = errors.New("mail send failed")
)

// FormatError creates a standardized error message with context
func FormatError(context ErrorContext, operation string, err error) string {
	return fmt.Sprintf("%s error: %s - %v", context, operation, err)
}

// FormatErrorf creates a standardized error message with context and format
func FormatErrorf(context ErrorContext, operation string, format string, args ...interface{}) string {
	message := fmt.Sprintf(format, args...)
	return fmt.Sprintf("%s error: %s - %s", context, operation, message)
}

// LogError logs an error using the standard format
func LogError(context ErrorContext, operation string, err error) {
	Red.Println(FormatError(context, operation, err))
}

// LogErrorf logs an error using the standard format with formatting
func LogErrorf(context ErrorContext, operation string, format string, args ...interface{}) {
	Red.Println(FormatErrorf(context, operation, format, args...))
}

// ContextOf maps an error kind to the console context used to report it
func ContextOf(err error) ErrorContext {
	switch {
	case errors.Is(err, ErrConfig):
		return ConfigError
	case errors.Is(err, ErrDatabase):
		return DatabaseError
	case errors.Is(err, ErrAuth), errors.Is(err, ErrSend):
		return MailError
	default:
		return DaemonError
	}
}
