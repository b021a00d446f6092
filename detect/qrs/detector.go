package qrs

import (
	"fmt"
	"math"

	"github.com/handzsujt/semg-online-ecg-removal/dsp/delay"
	"github.com/handzsujt/semg-online-ecg-removal/dsp/filter/online"
)

// Detection delay bounds in samples. The reporting delay must cover the
// smoothing and box-validation lag; values in this range are known to
// keep the delay accounting consistent.
const (
	MinDelay     = 280
	MaxDelay     = 400
	DefaultDelay = 300
)

const (
	// defaultThresholdFraction of the retained maxima forms the
	// effective box-detection threshold.
	defaultThresholdFraction = 0.3

	// Outlier rejection: a new local maximum is ignored when it
	// exceeds the most recent maximum by outlierLastFactor and the
	// older ones by outlierPrevFactor.
	defaultOutlierLastFactor = 10.0
	defaultOutlierPrevFactor = 15.0

	// A stale history entry this far above the rest is collapsed back
	// onto the most recent maximum.
	historyResetFactor = 1000.0

	// Physiologically plausible QRS box width in samples: [min, max).
	defaultMinBoxWidth = 130
	defaultMaxBoxWidth = 700

	// Minimum spacing between accepted peaks.
	defaultRefractorySeconds = 0.5

	// Width of the centered moving-average smoother.
	defaultSmoothingSeconds = 0.15

	defaultSampleRate = 1024.0
)

type config struct {
	sampleRate        float64
	thresholdFraction float64
	outlierLast       float64
	outlierPrev       float64
	minBoxWidth       int
	maxBoxWidth       int
	refractorySec     float64
}

// Option configures a Detector.
type Option func(*config)

// WithSampleRate sets the sampling rate in Hz. Default is 1024. The
// smoothing width and refractory period scale with it; the supplied
// filter coefficients must be designed for the same rate.
func WithSampleRate(fs float64) Option {
	return func(c *config) { c.sampleRate = fs }
}

// WithThresholdFraction sets the fraction of the retained maxima used
// as the detection threshold. Default is 0.3.
func WithThresholdFraction(f float64) Option {
	return func(c *config) { c.thresholdFraction = f }
}

// WithOutlierFactors sets the artifact-rejection factors against the
// last and the older retained maxima. Defaults are 10 and 15.
func WithOutlierFactors(last, prev float64) Option {
	return func(c *config) {
		c.outlierLast = last
		c.outlierPrev = prev
	}
}

// WithBoxWidth sets the accepted box width range [min, max) in samples.
// Defaults are 130 and 700.
func WithBoxWidth(min, max int) Option {
	return func(c *config) {
		c.minBoxWidth = min
		c.maxBoxWidth = max
	}
}

// WithRefractorySeconds sets the minimum spacing between accepted
// peaks. Default is 0.5 s.
func WithRefractorySeconds(s float64) Option {
	return func(c *config) { c.refractorySec = s }
}

// peakSample is a buffered signal value together with its age in ticks.
type peakSample struct {
	value float64
	age   int
}

// Detector is a per-channel R-peak state machine. It consumes one
// sample per call and reports each accepted peak exactly delay ticks
// after the underlying feature position.
type Detector struct {
	cfg    config
	sigLen int // == delay
	look   int // report age, delay-1
	win    int // smoothing window width, odd
	half   int // win/2

	baseline *online.Filter
	bandpass *online.Filter

	raw     *delay.Line // baseline-filtered input history
	squared *delay.Line // squared derivative history
	smooth  *delay.Line // smoothed-mean history for the running maximum

	prevFiltered float64
	calls        int
	sumForMean   float64

	// Retained local maxima, newest first, plus the age of the newest.
	lastMax          float64
	preLastMax       float64
	prePreLastMax    float64
	prePrePreLastMax float64
	maxCnt           int

	boxOpen          bool
	upIdx, downIdx   int
	peakMax, peakMin peakSample

	found         []peakSample // accepted peaks awaiting their report tick
	refractory    int          // samples
	lastPeakValue float64
}

// New creates a Detector. delay must lie in [MinDelay, MaxDelay].
// baseline is the drift-removal highpass and bandpass the QRS isolation
// filter, both designed offline for the configured sampling rate.
func New(delayTicks int, baseline, bandpass online.Coefficients, opts ...Option) (*Detector, error) {
	if delayTicks < MinDelay || delayTicks > MaxDelay {
		return nil, fmt.Errorf("detection delay must be in [%d, %d]: %d", MinDelay, MaxDelay, delayTicks)
	}

	cfg := config{
		sampleRate:        defaultSampleRate,
		thresholdFraction: defaultThresholdFraction,
		outlierLast:       defaultOutlierLastFactor,
		outlierPrev:       defaultOutlierPrevFactor,
		minBoxWidth:       defaultMinBoxWidth,
		maxBoxWidth:       defaultMaxBoxWidth,
		refractorySec:     defaultRefractorySeconds,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0: %f", cfg.sampleRate)
	}
	if cfg.minBoxWidth <= 0 || cfg.maxBoxWidth <= cfg.minBoxWidth {
		return nil, fmt.Errorf("invalid box width range [%d, %d)", cfg.minBoxWidth, cfg.maxBoxWidth)
	}

	win := int(defaultSmoothingSeconds * cfg.sampleRate)
	if win%2 == 0 {
		win++
	}
	if win >= delayTicks {
		return nil, fmt.Errorf("smoothing window %d must be shorter than delay %d", win, delayTicks)
	}

	d := &Detector{
		cfg:        cfg,
		sigLen:     delayTicks,
		look:       delayTicks - 1,
		win:        win,
		half:       win / 2,
		refractory: int(cfg.refractorySec * cfg.sampleRate),
		found:      make([]peakSample, 0, 8),
	}

	var err error
	if d.baseline, err = online.New(baseline); err != nil {
		return nil, fmt.Errorf("baseline filter: %w", err)
	}
	if d.bandpass, err = online.New(bandpass); err != nil {
		return nil, fmt.Errorf("bandpass filter: %w", err)
	}
	if d.raw, err = delay.New(d.sigLen); err != nil {
		return nil, err
	}
	if d.squared, err = delay.New(d.win); err != nil {
		return nil, err
	}
	if d.smooth, err = delay.New(d.sigLen - d.half + 1); err != nil {
		return nil, err
	}

	return d, nil
}

// ProcessSample consumes one sample and reports whether a peak accepted
// delay ticks ago falls due on this tick.
func (d *Detector) ProcessSample(x float64) bool {
	x = d.baseline.ProcessSample(x)

	for i := range d.found {
		d.found[i].age++
	}
	d.raw.Write(x)

	// Derivative of the bandpassed signal, squared, then smoothed by a
	// centered moving average. The first call has no derivative yet.
	f := d.bandpass.ProcessSample(x)
	var sq float64
	if d.calls > 0 {
		diff := f - d.prevFiltered
		sq = diff * diff
	}
	d.prevFiltered = f
	d.calls++

	d.squared.Write(sq)
	d.sumForMean += sq
	d.sumForMean -= d.squared.Read(d.win - 2)
	mean := d.sumForMean / float64(d.win)

	d.smooth.Write(mean)
	level := d.thresholdLevel(d.smooth.Max())

	d.updateBox(mean > level, d.raw.Read(d.half))
	d.agePeakState()

	return d.report()
}

// thresholdLevel folds the current running maximum into the retained
// maxima history and returns the effective detection threshold.
func (d *Detector) thresholdLevel(maxNow float64) float64 {
	if d.prePrePreLastMax > historyResetFactor*max3(d.lastMax, d.preLastMax, d.prePreLastMax) {
		d.prePrePreLastMax = d.lastMax
	}

	firstMax := d.preLastMax == 0 && d.prePreLastMax == 0
	outlier := maxNow > d.cfg.outlierLast*d.lastMax &&
		maxNow > d.cfg.outlierPrev*d.preLastMax &&
		maxNow > d.cfg.outlierPrev*d.prePreLastMax &&
		maxNow > d.cfg.outlierPrev*d.prePrePreLastMax &&
		d.lastMax > 0 && d.preLastMax > 0 && d.prePreLastMax > 0

	var vMax float64
	if !firstMax && outlier {
		// Artifact: far above every retained maximum, keep it out of
		// both the threshold and the history.
		vMax = max3(d.lastMax, d.preLastMax, d.prePreLastMax)
	} else {
		vMax = math.Max(maxNow, max3(d.lastMax, d.preLastMax, d.prePreLastMax))
		vMax = math.Max(vMax, d.prePrePreLastMax)
		if d.maxCnt >= d.sigLen {
			d.prePrePreLastMax = d.prePreLastMax
			d.prePreLastMax = d.preLastMax
			d.preLastMax = d.lastMax
			d.lastMax = maxNow
			d.maxCnt = 0
		}
	}
	d.maxCnt++

	return d.cfg.thresholdFraction * vMax
}

// updateBox advances the hysteresis box over the smoothed signal and
// accepts a closed box as a peak when its width is plausible and the
// refractory period has passed.
func (d *Detector) updateBox(aboveThreshold bool, rawAtHalf float64) {
	if aboveThreshold {
		if !d.boxOpen {
			d.upIdx = d.half
			d.boxOpen = true
			d.peakMax = peakSample{value: rawAtHalf}
			d.peakMin = peakSample{value: rawAtHalf}
		} else {
			if rawAtHalf > d.peakMax.value {
				d.peakMax = peakSample{value: rawAtHalf, age: d.half}
			}
			if rawAtHalf < d.peakMin.value {
				d.peakMin = peakSample{value: rawAtHalf, age: d.half}
			}
		}
	} else if d.boxOpen {
		d.downIdx = d.half
		d.boxOpen = false
	}

	width := d.upIdx - d.downIdx
	if d.downIdx == d.half && width >= d.cfg.minBoxWidth && width < d.cfg.maxBoxWidth {
		// The larger magnitude of the box extrema wins, so inverted
		// leads report their (negative) R-peaks too.
		pv := d.peakMax
		if math.Abs(d.peakMin.value) > d.peakMax.value {
			pv = d.peakMin
		}
		if len(d.found) == 0 || d.found[0].age-pv.age > d.refractory {
			d.found = append(d.found, peakSample{})
			copy(d.found[1:], d.found)
			d.found[0] = pv
			d.upIdx = 0
			d.downIdx = 0
		}
	}
}

func (d *Detector) agePeakState() {
	d.upIdx++
	d.downIdx++
	d.peakMax.age++
	d.peakMin.age++
}

// report drops peaks that have aged past the report tick and emits the
// one whose age matches it exactly.
func (d *Detector) report() bool {
	if n := len(d.found); n > 0 && d.found[n-1].age > d.look {
		d.found = d.found[:n-1]
	}
	if n := len(d.found); n > 0 && d.found[n-1].age == d.look {
		d.lastPeakValue = d.found[n-1].value
		d.found = d.found[:n-1]
		return true
	}
	return false
}

// LastPeakValue returns the buffered signal value of the most recently
// reported peak (signed; negative for inverted leads).
func (d *Detector) LastPeakValue() float64 {
	return d.lastPeakValue
}

// Delay returns the configured reporting delay in samples.
func (d *Detector) Delay() int {
	return d.sigLen
}

// DecisionLatency returns how many samples after a physical R-peak its
// flag is reported: the baseline and bandpass filter delays, the
// smoothing-window half-width and the reporting delay. 386 for the
// default configuration at 1024 Hz (2 + 8 + 76 + 300).
func (d *Detector) DecisionLatency() int {
	return d.baseline.Delay() + d.bandpass.Delay() + d.half + d.sigLen
}

// Reset restores the initial state.
func (d *Detector) Reset() {
	d.baseline.Reset()
	d.bandpass.Reset()
	d.raw.Reset()
	d.squared.Reset()
	d.smooth.Reset()
	d.prevFiltered = 0
	d.calls = 0
	d.sumForMean = 0
	d.lastMax, d.preLastMax, d.prePreLastMax, d.prePrePreLastMax = 0, 0, 0, 0
	d.maxCnt = 0
	d.boxOpen = false
	d.upIdx, d.downIdx = 0, 0
	d.peakMax = peakSample{}
	d.peakMin = peakSample{}
	d.found = d.found[:0]
	d.lastPeakValue = 0
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}
