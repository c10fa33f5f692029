package indicator

import "math"

// almostEqual compares floats within an absolute tolerance.
func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
