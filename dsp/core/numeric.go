// Package core holds small numeric and buffer helpers shared by the
// streaming stages.
package core

import "math"

// IsFinite reports whether x is neither NaN nor an infinity.
// Streaming stages treat non-finite input as a contract violation.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
