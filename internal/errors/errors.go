package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/calorix/internal/logger"
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Hint pairs an error with a follow-up suggestion for the user.
type Hint struct {
	Err error
	Tip string
}

func (h *Hint) Error() string {
	if h.Tip == "" {
		return h.Err.Error()
	}
	return fmt.Sprintf("%v (hint: %s)", h.Err, h.Tip)
}

func (h *Hint) Unwrap() error { return h.Err }

// WithHint attaches a suggestion to err. A nil err stays nil.
func WithHint(err error, tip string) error {
	if err == nil {
		return nil
	}
	return &Hint{Err: err, Tip: tip}
}

// TipOf returns the suggestion attached anywhere in err's chain.
func TipOf(err error) string {
	var h *Hint
	if stderrors.As(err, &h) {
		return h.Tip
	}
	return ""
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
