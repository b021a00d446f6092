// Package heartrate estimates the running heart rate, expressed as a
// beat interval in samples, from a stream of per-tick peak flags.
package heartrate

import "fmt"

const (
	// DefaultInterval is the estimate before enough beats are seen:
	// 768 samples, about 80 bpm at 1024 Hz.
	DefaultInterval = 768

	// maxBeats bounds the retained beat history; the estimate is the
	// mean gap among the most recent beats.
	maxBeats = 4

	maxDelay = 500
)

// Estimator is a state machine over beat timestamps. Beats are stored
// as ages in ticks, most recent first; every call ages the history by
// one tick.
type Estimator struct {
	delay    int
	beats    []int
	interval int
	started  bool
}

// New creates an Estimator. delay is how many samples peak detection
// lags the actual beat; it must not exceed the beat interval or the
// prediction overshoots, hence the [0, 500] bound.
func New(delay int) (*Estimator, error) {
	if delay < 0 || delay > maxDelay {
		return nil, fmt.Errorf("heart rate delay must be in [0, %d]: %d", maxDelay, delay)
	}
	return &Estimator{
		delay:    delay,
		beats:    make([]int, 0, maxBeats+1),
		interval: DefaultInterval,
		started:  true,
	}, nil
}

// RecordTick consumes one tick and returns the current beat-interval
// estimate in samples. On isPeak it pushes a zero-offset beat marker;
// every call ages all retained markers by one tick. The very first
// detected beat is discarded as a warm-up artifact. The estimate is
// recomputed only once at least two beats are retained and is always
// positive.
func (e *Estimator) RecordTick(isPeak bool) int {
	if isPeak {
		e.beats = append(e.beats, 0)
		copy(e.beats[1:], e.beats)
		e.beats[0] = 0
		e.update()
	}
	for i := range e.beats {
		e.beats[i]++
	}
	return e.interval
}

func (e *Estimator) update() {
	if len(e.beats) > 0 && e.started {
		e.beats = e.beats[:0]
		e.started = false
	}
	if len(e.beats) > maxBeats {
		e.beats = e.beats[:maxBeats]
	}
	if len(e.beats) > 1 {
		sum := 0
		for i := 0; i < len(e.beats)-1; i++ {
			sum += e.beats[i+1] - e.beats[i]
		}
		e.interval = sum / (len(e.beats) - 1)
	}
}

// Interval returns the current beat-interval estimate in samples.
func (e *Estimator) Interval() int {
	return e.interval
}

// NextBeatOffset returns the signed distance in ticks from now to the
// predicted next beat (negative while the next beat is still ahead).
// ok is false while no beat has been retained yet.
func (e *Estimator) NextBeatOffset() (offset int, ok bool) {
	if len(e.beats) == 0 {
		return 0, false
	}
	return e.beats[0] + e.delay - e.interval, true
}
