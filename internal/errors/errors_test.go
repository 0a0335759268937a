package errors

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "simple error",
			err:      errors.New("entry 4 not found"),
			expected: "Error: entry 4 not found",
		},
		{
			name:     "wrapped error",
			err:      errors.New("failed to load database: storage not initialized"),
			expected: "Error: failed to load database: storage not initialized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.err)
			if result != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatf(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		args     []interface{}
		expected string
	}{
		{
			name:     "simple message",
			format:   "something went wrong",
			args:     nil,
			expected: "Error: something went wrong",
		},
		{
			name:     "formatted message with multiple args",
			format:   "row %d: %s",
			args:     []interface{}{3, "bad hours"},
			expected: "Error: row 3: bad hours",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Formatf(tt.format, tt.args...)
			if result != tt.expected {
				t.Errorf("Formatf(%q, %v) = %q, want %q", tt.format, tt.args, result, tt.expected)
			}
		})
	}
}

func TestFormatAll(t *testing.T) {
	got := FormatAll([]string{"Customer is required.", "Hours must be positive."})
	want := "Error: Customer is required.\nError: Hours must be positive."
	if got != want {
		t.Errorf("FormatAll() = %q, want %q", got, want)
	}
	if FormatAll(nil) != "" {
		t.Errorf("FormatAll(nil) = %q, want empty", FormatAll(nil))
	}
}

func TestInvalid(t *testing.T) {
	if err := Invalid(nil); err != nil {
		t.Errorf("Invalid(nil) = %v, want nil", err)
	}

	err := Invalid([]string{"Customer is required.", "Description is required."})
	var inv *InvalidError
	if !errors.As(err, &inv) {
		t.Fatalf("Invalid() returned %T, want *InvalidError", err)
	}
	if len(inv.Messages) != 2 {
		t.Errorf("got %d messages, want 2", len(inv.Messages))
	}
	if err.Error() != "Customer is required. Description is required." {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestFatal(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL") == "1" {
		Fatal(errors.New("test error"))
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestFatal$")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if e, ok := err.(*exec.ExitError); ok && !e.Success() {
		if e.ExitCode() != 1 {
			t.Errorf("Fatal() exit code = %d, want 1", e.ExitCode())
		}
		if !strings.Contains(stderr.String(), "Error: test error") {
			t.Errorf("Fatal() stderr = %q, want to contain %q", stderr.String(), "Error: test error")
		}
	} else {
		t.Errorf("Fatal() did not exit with error: %v", err)
	}
}

func TestFatal_InvalidError(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL_INVALID") == "1" {
		Fatal(Invalid([]string{"Customer is required.", "Hours must be a number."}))
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestFatal_InvalidError$")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL_INVALID=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if e, ok := err.(*exec.ExitError); !ok || e.Success() {
		t.Fatalf("Fatal() did not exit with error: %v", err)
	}
	want := "Error: Customer is required.\nError: Hours must be a number."
	if !strings.Contains(stderr.String(), want) {
		t.Errorf("stderr = %q, want to contain %q", stderr.String(), want)
	}
}

func TestFatal_NilError(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL_NIL") == "1" {
		Fatal(nil)
		os.Exit(0)
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestFatal_NilError$")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL_NIL=1")

	if err := cmd.Run(); err != nil {
		t.Errorf("Fatal(nil) should not exit, but got error: %v", err)
	}
}

func TestFatalf(t *testing.T) {
	if os.Getenv("GO_TEST_FATALF") == "1" {
		Fatalf("entry %d not found", 12)
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestFatalf$")
	cmd.Env = append(os.Environ(), "GO_TEST_FATALF=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if e, ok := err.(*exec.ExitError); ok && !e.Success() {
		if e.ExitCode() != 1 {
			t.Errorf("Fatalf() exit code = %d, want 1", e.ExitCode())
		}
		if !strings.Contains(stderr.String(), "Error: entry 12 not found") {
			t.Errorf("Fatalf() stderr = %q", stderr.String())
		}
	} else {
		t.Errorf("Fatalf() did not exit with error: %v", err)
	}
}
