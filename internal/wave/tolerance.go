package wave

import "math"

const (
	// DefaultWidthTolerance is the relative tolerance for duty ratios.
	DefaultWidthTolerance = 0.05

	// DefaultPositionTolerance is the absolute tolerance for edge positions, in degrees.
	DefaultPositionTolerance = 1.0

	// Floor replaces the denominator of a relative comparison when both
	// magnitudes are smaller than it.
	Floor = 1e-6

	// Epsilon absorbs floating-point noise so that a zero tolerance still
	// accepts values that are equal up to rounding.
	Epsilon = 1e-9
)

// IsCloseEnough reports whether a and b differ by at most ratio r of the
// larger magnitude: |a-b| <= r * max(|a|, |b|, Floor).
func IsCloseEnough(a, b, r float64) bool {
	if a == b {
		return true
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	denom := max(math.Abs(a), math.Abs(b), Floor)
	return math.Abs(a-b) <= r*denom+Epsilon
}

// WithinDegrees reports whether actual is within tol degrees of expected.
func WithinDegrees(expected, actual, tol float64) bool {
	if math.IsNaN(expected) || math.IsNaN(actual) {
		return false
	}
	return math.Abs(expected-actual) <= tol+Epsilon
}
