// Package errors provides structured error types and exit codes for wavecheck.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess          = 0 // Success
	ExitFailure          = 1 // Scenario failed (assertion mismatch, unconfirmed command, bad report)
	ExitConfigError      = 2 // Configuration or scenario document error
	ExitEnvironmentError = 3 // Simulator could not be launched or reached
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindNotFound
	KindValidation
	KindEnvironment

	// Report parser.
	KindMalformedReport
	KindUnknownChannel

	// Wave comparator.
	KindChannelAbsent
	KindEdgeCountMismatch
	KindPositionOutOfTolerance
	KindWidthRatioOutOfTolerance
	KindChannelPresent

	// Command channel.
	KindCommandExhausted
)

var kindNames = map[ErrorKind]string{
	KindRuntime:                  "Runtime",
	KindConfig:                   "Config",
	KindNotFound:                 "NotFound",
	KindValidation:               "Validation",
	KindEnvironment:              "Environment",
	KindMalformedReport:          "MalformedReport",
	KindUnknownChannel:           "UnknownChannel",
	KindChannelAbsent:            "ChannelAbsentUnexpectedly",
	KindEdgeCountMismatch:        "EdgeCountMismatch",
	KindPositionOutOfTolerance:   "PositionOutOfTolerance",
	KindWidthRatioOutOfTolerance: "WidthRatioOutOfTolerance",
	KindChannelPresent:           "ChannelPresentUnexpectedly",
	KindCommandExhausted:         "CommandExhausted",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the base error type for wavecheck.
//
// Comparator failures fill Scenario, Channel, Expected and Actual so that a
// failing assertion can be diagnosed from the message alone.
type Error struct {
	Kind     ErrorKind
	Message  string
	Scenario string // Scenario or step label if applicable
	Channel  string // Output channel if applicable
	Expected string
	Actual   string
	Cause    error // Underlying error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Expected != "" || e.Actual != "" {
		msg = fmt.Sprintf("%s: expected %s, got %s", msg, e.Expected, e.Actual)
	}
	if e.Channel != "" {
		msg = fmt.Sprintf("%s: %s", e.Channel, msg)
	}
	if e.Scenario != "" {
		msg = fmt.Sprintf("[%s] %s", e.Scenario, msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *Error) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindValidation:
		return ExitConfigError
	case KindEnvironment:
		return ExitEnvironmentError
	default:
		return ExitFailure
	}
}

// New creates a new runtime error.
func New(message string) *Error {
	return &Error{
		Kind:    KindRuntime,
		Message: message,
	}
}

// Newf creates a new runtime error with formatting.
func Newf(format string, args ...interface{}) *Error {
	return New(fmt.Sprintf(format, args...))
}

// Kindf creates an error of the given kind with formatting.
func Kindf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Config creates a new configuration error.
func Config(message string) *Error {
	return &Error{
		Kind:    KindConfig,
		Message: message,
	}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *Error {
	return Config(fmt.Sprintf(format, args...))
}

// Environment creates a new environment error.
func Environment(message string) *Error {
	return &Error{
		Kind:    KindEnvironment,
		Message: message,
	}
}

// Environmentf creates a new environment error with formatting.
func Environmentf(format string, args ...interface{}) *Error {
	return Environment(fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *Error {
	return &Error{
		Kind:    KindRuntime,
		Message: message,
		Cause:   err,
	}
}

// WrapKind wraps an error and assigns it a kind.
func WrapKind(kind ErrorKind, err error, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   err,
	}
}

// Mismatch creates a comparator failure carrying the expected and observed values.
func Mismatch(kind ErrorKind, scenario, channel, message, expected, actual string) *Error {
	return &Error{
		Kind:     kind,
		Message:  message,
		Scenario: scenario,
		Channel:  channel,
		Expected: expected,
		Actual:   actual,
	}
}

// NotFound creates a not found error.
func NotFound(what, name string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found: %s", what, name),
	}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind, true
	}
	return KindRuntime, false
}

// Is reports whether any *Error in err's chain (including joined errors) has the given kind.
func Is(err error, kind ErrorKind) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok && e.Kind == kind {
		return true
	}
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			if Is(inner, kind) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return Is(x.Unwrap(), kind)
	}
	return false
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.ExitCode()
	}
	return ExitFailure
}
