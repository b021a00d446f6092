package channel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/handzsujt/semg-online-ecg-removal/detect/qrs"
	"github.com/handzsujt/semg-online-ecg-removal/dsp/filter/online"
)

// NotReady is returned while the observation window is still filling.
const NotReady = -1

// MinDurationSeconds is the shortest allowed observation window. At
// least two heart beats are needed for a meaningful comparison.
const MinDurationSeconds = 2.5

// DefaultSettlingSamples is how many leading samples of each channel
// are ignored before peak statistics accumulate, letting the baseline
// and detection filters settle.
const DefaultSettlingSamples = 300

const defaultSampleRate = 1024.0

// Election weights. The direction-consistency winner scores slightly
// above the height winner so regularity decides a draw.
const (
	meanFirstScore  = 2.0
	meanSecondScore = 1.0
	dirFirstScore   = 2.1
	dirSecondScore  = 1.0
)

type config struct {
	sampleRate float64
	delayTicks int
	settling   int
}

// Option configures a Selector.
type Option func(*config)

// WithSampleRate sets the sampling rate in Hz. Default is 1024.
func WithSampleRate(fs float64) Option {
	return func(c *config) { c.sampleRate = fs }
}

// WithDetectionDelay sets the per-channel R-peak reporting delay in
// samples. Default is qrs.DefaultDelay.
func WithDetectionDelay(delayTicks int) Option {
	return func(c *config) { c.delayTicks = delayTicks }
}

// WithSettlingSamples sets how many leading samples are skipped before
// peaks count toward the statistics. Default is DefaultSettlingSamples.
func WithSettlingSamples(n int) Option {
	return func(c *config) { c.settling = n }
}

// Selector scores the channels of a multi-channel recording over a
// fixed observation window and elects the one best suited for R-peak
// detection. Peaks are judged by height and by how consistently they
// point in one direction.
type Selector struct {
	numChannels int
	required    int // observation window in samples
	warmup      int // leading samples whose peaks are ignored
	count       int

	baselines []*online.Filter
	detectors []*qrs.Detector

	heights  [][]float64
	posPeaks []int
	negPeaks []int

	done bool
	best int
}

// New creates a Selector over numChannels channels observing for
// durationSec seconds. baseline is the per-channel drift-removal
// highpass and bandpass the QRS isolation filter handed to the
// per-channel detectors.
func New(numChannels int, durationSec float64, baseline, bandpass online.Coefficients, opts ...Option) (*Selector, error) {
	if numChannels < 2 {
		return nil, fmt.Errorf("channel comparison needs at least 2 channels: %d", numChannels)
	}
	if durationSec <= MinDurationSeconds {
		return nil, fmt.Errorf("observation duration must be > %.1f s: %f", MinDurationSeconds, durationSec)
	}

	cfg := config{
		sampleRate: defaultSampleRate,
		delayTicks: qrs.DefaultDelay,
		settling:   DefaultSettlingSamples,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0: %f", cfg.sampleRate)
	}
	if cfg.settling < 0 {
		return nil, fmt.Errorf("settling samples must be >= 0: %d", cfg.settling)
	}

	s := &Selector{
		numChannels: numChannels,
		required:    int(durationSec * cfg.sampleRate),
		warmup:      cfg.settling,
		baselines:   make([]*online.Filter, numChannels),
		detectors:   make([]*qrs.Detector, numChannels),
		heights:     make([][]float64, numChannels),
		posPeaks:    make([]int, numChannels),
		negPeaks:    make([]int, numChannels),
		best:        NotReady,
	}
	for i := 0; i < numChannels; i++ {
		var err error
		if s.baselines[i], err = online.New(baseline); err != nil {
			return nil, fmt.Errorf("baseline filter: %w", err)
		}
		if s.detectors[i], err = qrs.New(cfg.delayTicks, baseline, bandpass, qrs.WithSampleRate(cfg.sampleRate)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ProcessSample consumes one sample per channel and returns NotReady
// until the observation window is full, then the elected channel index
// on every subsequent call.
func (s *Selector) ProcessSample(samples []float64) (int, error) {
	if len(samples) != s.numChannels {
		return NotReady, fmt.Errorf("sample count must match channel count %d: %d", s.numChannels, len(samples))
	}
	if s.done {
		return s.best, nil
	}

	for i, x := range samples {
		v := s.baselines[i].ProcessSample(x)
		if s.detectors[i].ProcessSample(v) && s.count >= s.warmup {
			pv := s.detectors[i].LastPeakValue()
			s.heights[i] = append(s.heights[i], math.Abs(pv))
			if pv > 0 {
				s.posPeaks[i]++
			} else {
				s.negPeaks[i]++
			}
		}
	}
	s.count++

	if s.count < s.required {
		return NotReady, nil
	}
	s.best = s.elect()
	s.done = true
	return s.best, nil
}

// Ready reports whether the observation window has been filled and a
// channel elected.
func (s *Selector) Ready() bool {
	return s.done
}

// Best returns the elected channel index, or NotReady before the
// observation window is full.
func (s *Selector) Best() int {
	return s.best
}

// elect scores every channel: the tallest mean peak height earns 2
// points and the runner-up 1; the most one-directional peak count
// earns 2.1 points and its runner-up 1, so direction consistency wins
// a draw against height. Ties fall to the lower channel index.
func (s *Selector) elect() int {
	means := make([]float64, s.numChannels)
	counts := make([]float64, s.numChannels)
	for i := 0; i < s.numChannels; i++ {
		if len(s.heights[i]) > 0 {
			means[i] = stat.Mean(s.heights[i], nil)
		}
		c := s.posPeaks[i]
		if s.negPeaks[i] > c {
			c = s.negPeaks[i]
		}
		counts[i] = float64(c)
	}

	scores := make([]float64, s.numChannels)
	meanFirst, meanSecond := firstSecondMax(means)
	countFirst, countSecond := firstSecondMax(counts)
	scores[meanFirst] += meanFirstScore
	scores[meanSecond] += meanSecondScore
	scores[countFirst] += dirFirstScore
	scores[countSecond] += dirSecondScore

	return argMax(scores)
}

// firstSecondMax returns the indices of the largest and second-largest
// values. Ties fall to the earlier index.
func firstSecondMax(values []float64) (first, second int) {
	first = argMax(values)
	second = -1
	for i, v := range values {
		if i == first {
			continue
		}
		if second < 0 || v > values[second] {
			second = i
		}
	}
	return first, second
}

func argMax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
