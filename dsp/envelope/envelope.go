// Package envelope provides a moving-window magnitude tracker for
// streaming signals.
package envelope

import (
	"fmt"
	"math"

	"github.com/handzsujt/semg-online-ecg-removal/dsp/delay"
)

// Mode selects the window placement of an Estimator.
type Mode int

const (
	// ModeCausal averages over the trailing half window; output has no
	// look-ahead delay.
	ModeCausal Mode = iota
	// ModeCentered averages over the full window, delaying the output
	// by half the window length relative to ModeCausal.
	ModeCentered
)

// Estimator tracks the moving-average magnitude of a signal with a
// running sum over a fixed-size window.
type Estimator struct {
	mode   Mode
	window *delay.Line
	limit  int
	sum    float64
	count  int
}

// New creates an Estimator. windowLen is the full window length in
// samples; ModeCausal uses its trailing half.
func New(mode Mode, windowLen int) (*Estimator, error) {
	if windowLen <= 0 {
		return nil, fmt.Errorf("envelope window length must be > 0: %d", windowLen)
	}
	if mode != ModeCausal && mode != ModeCentered {
		return nil, fmt.Errorf("invalid envelope mode: %d", mode)
	}

	limit := windowLen
	if mode == ModeCausal {
		limit = (windowLen + 1) / 2
	}

	window, err := delay.New(limit)
	if err != nil {
		return nil, err
	}

	return &Estimator{mode: mode, window: window, limit: limit}, nil
}

// Update consumes one sample and returns the current envelope value,
// the mean magnitude over the window seen so far. The divisor grows
// with the number of samples until the window is full, then saturates.
func (e *Estimator) Update(value float64) float64 {
	if e.count < e.limit {
		e.count++
	} else {
		e.sum -= e.window.Read(e.limit - 1)
	}

	v := math.Abs(value)
	e.window.Write(v)
	e.sum += v

	return e.sum / float64(e.count)
}

// Delay returns the output delay in samples relative to ModeCausal:
// half the window length for ModeCentered, zero otherwise.
func (e *Estimator) Delay() int {
	if e.mode == ModeCentered {
		return e.limit / 2
	}
	return 0
}

// Reset clears the window and running sum.
func (e *Estimator) Reset() {
	e.window.Reset()
	e.sum = 0
	e.count = 0
}
