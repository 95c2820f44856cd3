package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "message only",
			err:      &Error{Message: "something failed"},
			expected: "something failed",
		},
		{
			name:     "with scenario",
			err:      &Error{Scenario: "fiesta", Message: "chart unavailable"},
			expected: "[fiesta] chart unavailable",
		},
		{
			name: "mismatch",
			err: &Error{
				Scenario: "2003 Neon cranking",
				Channel:  "spark1",
				Message:  "rising edge #3 out of tolerance",
				Expected: "460.00",
				Actual:   "462.00",
			},
			expected: "[2003 Neon cranking] spark1: rising edge #3 out of tolerance: expected 460.00, got 462.00",
		},
		{
			name:     "with cause",
			err:      &Error{Message: "send failed", Cause: errors.New("broken pipe")},
			expected: "send failed: broken pipe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &Error{
		Message: "wrapper",
		Cause:   cause,
	}

	if got := err.Unwrap(); got != cause {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}

	errNoCause := &Error{Message: "no cause"}
	if got := errNoCause.Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestError_ExitCode(t *testing.T) {
	tests := []struct {
		name     string
		kind     ErrorKind
		expected int
	}{
		{"runtime", KindRuntime, ExitFailure},
		{"config", KindConfig, ExitConfigError},
		{"validation", KindValidation, ExitConfigError},
		{"environment", KindEnvironment, ExitEnvironmentError},
		{"not found", KindNotFound, ExitFailure},
		{"edge count", KindEdgeCountMismatch, ExitFailure},
		{"command exhausted", KindCommandExhausted, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &Error{Kind: tt.kind}
			if got := err.ExitCode(); got != tt.expected {
				t.Errorf("ExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf("error %d: %s", 42, "details")

	if err.Kind != KindRuntime {
		t.Errorf("Kind = %v, want %v", err.Kind, KindRuntime)
	}
	if err.Message != "error 42: details" {
		t.Errorf("Message = %q, want %q", err.Message, "error 42: details")
	}
}

func TestConfigf(t *testing.T) {
	err := Configf("field %q: %s", "name", "is required")

	if err.Kind != KindConfig {
		t.Errorf("Kind = %v, want %v", err.Kind, KindConfig)
	}
	expected := `field "name": is required`
	if err.Message != expected {
		t.Errorf("Message = %q, want %q", err.Message, expected)
	}
	if err.ExitCode() != ExitConfigError {
		t.Errorf("ExitCode() = %d, want %d", err.ExitCode(), ExitConfigError)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("original error")
	err := Wrap(cause, "wrapped message")

	if err.Kind != KindRuntime {
		t.Errorf("Kind = %v, want %v", err.Kind, KindRuntime)
	}
	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the original cause")
	}
}

func TestMismatch(t *testing.T) {
	err := Mismatch(KindPositionOutOfTolerance, "aspire", "spark1", "edge #0", "55", "57")

	if err.Kind != KindPositionOutOfTolerance {
		t.Errorf("Kind = %v, want %v", err.Kind, KindPositionOutOfTolerance)
	}
	if err.Scenario != "aspire" || err.Channel != "spark1" {
		t.Errorf("Scenario/Channel = %q/%q", err.Scenario, err.Channel)
	}
	if err.Expected != "55" || err.Actual != "57" {
		t.Errorf("Expected/Actual = %q/%q", err.Expected, err.Actual)
	}
}

func TestNotFound(t *testing.T) {
	err := NotFound("scenario", "nonexistent")

	if err.Kind != KindNotFound {
		t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
	}
	expected := "scenario not found: nonexistent"
	if err.Message != expected {
		t.Errorf("Message = %q, want %q", err.Message, expected)
	}
}

func TestIs(t *testing.T) {
	count := Kindf(KindEdgeCountMismatch, "expected 4 rising edges, got 3")
	width := Kindf(KindWidthRatioOutOfTolerance, "width")

	tests := []struct {
		name string
		err  error
		kind ErrorKind
		want bool
	}{
		{"nil", nil, KindEdgeCountMismatch, false},
		{"direct", count, KindEdgeCountMismatch, true},
		{"other kind", count, KindPositionOutOfTolerance, false},
		{"fmt wrapped", fmt.Errorf("step 3: %w", count), KindEdgeCountMismatch, true},
		{"joined", errors.Join(width, count), KindEdgeCountMismatch, true},
		{"cause chain", WrapKind(KindRuntime, count, "capture"), KindEdgeCountMismatch, true},
		{"plain error", errors.New("x"), KindRuntime, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.kind); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Kindf(KindCommandExhausted, "rpm 200"))
	kind, ok := KindOf(err)
	if !ok || kind != KindCommandExhausted {
		t.Errorf("KindOf() = %v, %v; want %v, true", kind, ok, KindCommandExhausted)
	}

	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("KindOf() on plain error should report false")
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, ExitSuccess},
		{"runtime", New("runtime"), ExitFailure},
		{"config", Config("config"), ExitConfigError},
		{"validation", &Error{Kind: KindValidation}, ExitConfigError},
		{"environment wrapped", fmt.Errorf("launch: %w", Environment("no simulator")), ExitEnvironmentError},
		{"generic error", errors.New("generic"), ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetExitCode(tt.err); got != tt.expected {
				t.Errorf("GetExitCode() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestErrorKind_String(t *testing.T) {
	if got := KindMalformedReport.String(); got != "MalformedReport" {
		t.Errorf("String() = %q", got)
	}
	if got := ErrorKind(999).String(); got != "ErrorKind(999)" {
		t.Errorf("String() = %q", got)
	}
}
