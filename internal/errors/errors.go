package errors

import (
	"fmt"
	"os"
	"strings"

	"github.com/julianstephens/hourlog/internal/logger"
)

const prefix = "Error: "

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return prefix + err.Error()
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf(prefix+format, args...)
}

// FormatAll prefixes every message, one per line. Used for validation
// results, which carry several user-facing messages at once.
func FormatAll(msgs []string) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, prefix+m)
	}
	return strings.Join(lines, "\n")
}

// Invalid wraps user-correctable messages into a single error.
func Invalid(msgs []string) error {
	if len(msgs) == 0 {
		return nil
	}
	return &InvalidError{Messages: msgs}
}

// InvalidError carries validation messages back to the command runner.
type InvalidError struct {
	Messages []string
}

func (e *InvalidError) Error() string {
	return strings.Join(e.Messages, " ")
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		if inv, ok := err.(*InvalidError); ok {
			fmt.Fprintln(os.Stderr, FormatAll(inv.Messages))
		} else {
			fmt.Fprintln(os.Stderr, Format(err))
		}
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintln(os.Stderr, Formatf(format, args...))
	os.Exit(1)
}
