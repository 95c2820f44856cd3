// Package wavecheck provides public constants for tools that run the
// wavecheck CLI, such as CI scripts.
package wavecheck

// Exit codes returned by the wavecheck CLI.
const (
	// ExitSuccess indicates every selected scenario passed.
	ExitSuccess = 0

	// ExitFailure indicates a scenario failed: a wave mismatch, an
	// unconfirmed command or a malformed chart report.
	ExitFailure = 1

	// ExitConfigError indicates an invalid configuration, scenario file or
	// command line.
	ExitConfigError = 2

	// ExitEnvError indicates the simulator could not be launched or reached.
	ExitEnvError = 3
)
