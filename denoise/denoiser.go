package denoise

import (
	"fmt"
	"math"
	"sort"

	"github.com/handzsujt/semg-online-ecg-removal/dsp/wavelet"
)

const (
	defaultSampleRate = 1024.0

	// Threshold multipliers applied to the trailing median of the
	// absolute detail coefficients: the tight one inside an R-peak
	// gate, the loose one outside.
	defaultEcgMultiplier = 4.0
	defaultEmgMultiplier = 10.0
)

type config struct {
	sampleRate    float64
	delayTicks    int
	ecgMultiplier float64
	emgMultiplier float64
}

// Option configures a Denoiser.
type Option func(*config)

// WithSampleRate sets the sampling rate in Hz. Default is 1024. The
// R-peak gate widths and the median window scale with it.
func WithSampleRate(fs float64) Option {
	return func(c *config) { c.sampleRate = fs }
}

// WithDetectionDelay sets the R-peak reporting delay in samples and
// must match the detector feeding ProcessSample. Default is 300.
func WithDetectionDelay(delayTicks int) Option {
	return func(c *config) { c.delayTicks = delayTicks }
}

// WithThresholdMultipliers sets the median multipliers used inside and
// outside the R-peak gates. Defaults are 4 and 10.
func WithThresholdMultipliers(ecg, emg float64) Option {
	return func(c *config) {
		c.ecgMultiplier = ecg
		c.emgMultiplier = emg
	}
}

// Denoiser strips cardiac artifacts from a multi-channel stream. Each
// channel runs its own wavelet bank and per-band median windows; the
// R-peak gate derived from the detector flags is shared across
// channels. Output lags input by the wavelet round-trip delay.
type Denoiser struct {
	channels int
	cfg      config

	banks   []*wavelet.Bank
	medians [][wavelet.Levels]*medianWindow

	coeffs  [][wavelet.Levels]wavelet.BandPair
	details [][wavelet.Levels]float64

	// Samples since the position of the last reported R-peak. A flag
	// arrives delayTicks after the peak itself.
	sinceLastPeak int
}

// New creates a Denoiser for the given channel count and wavelet taps.
func New(channels int, taps wavelet.Taps, opts ...Option) (*Denoiser, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("channel count must be > 0: %d", channels)
	}

	cfg := config{
		sampleRate:    defaultSampleRate,
		delayTicks:    300,
		ecgMultiplier: defaultEcgMultiplier,
		emgMultiplier: defaultEmgMultiplier,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0: %f", cfg.sampleRate)
	}
	if cfg.delayTicks <= 0 {
		return nil, fmt.Errorf("detection delay must be > 0: %d", cfg.delayTicks)
	}
	if cfg.ecgMultiplier <= 0 || cfg.emgMultiplier <= 0 {
		return nil, fmt.Errorf("threshold multipliers must be > 0: %f, %f", cfg.ecgMultiplier, cfg.emgMultiplier)
	}

	d := &Denoiser{
		channels: channels,
		cfg:      cfg,
		banks:    make([]*wavelet.Bank, channels),
		medians:  make([][wavelet.Levels]*medianWindow, channels),
		coeffs:   make([][wavelet.Levels]wavelet.BandPair, channels),
		details:  make([][wavelet.Levels]float64, channels),
	}
	windowLen := int(cfg.sampleRate / 4)
	for i := 0; i < channels; i++ {
		bank, err := wavelet.New(taps)
		if err != nil {
			return nil, err
		}
		d.banks[i] = bank
		for lvl := 0; lvl < wavelet.Levels; lvl++ {
			d.medians[i][lvl] = newMedianWindow(windowLen)
		}
	}
	return d, nil
}

// Delay returns the input-to-output delay in samples.
func (d *Denoiser) Delay() int {
	return d.banks[0].Delay()
}

// ProcessSample denoises one sample per channel into dst. isPeak is the
// detector flag for the current tick and interval the current estimated
// beat-to-beat distance in samples.
func (d *Denoiser) ProcessSample(dst, src []float64, isPeak bool, interval int) error {
	if len(src) != d.channels {
		return fmt.Errorf("sample count must match channel count %d: %d", d.channels, len(src))
	}
	if len(dst) != d.channels {
		return fmt.Errorf("destination length must match channel count %d: %d", d.channels, len(dst))
	}

	if isPeak {
		d.sinceLastPeak = d.cfg.delayTicks
	} else {
		d.sinceLastPeak++
	}
	sinceNextPeak := d.sinceLastPeak - interval

	for i := 0; i < d.channels; i++ {
		d.coeffs[i] = d.banks[i].Swt(src[i])
	}

	// The next beat is due: restart the gate accounting so the window
	// around the predicted peak opens.
	if sinceNextPeak == 0 {
		d.sinceLastPeak = 0
		sinceNextPeak = -interval
	}

	for idx := 0; idx < wavelet.Levels; idx++ {
		// Bands arrive coarsest first. The gate narrows with rising
		// frequency: the QRS complex is wide in the low bands and
		// sharpens in the high ones.
		level := wavelet.Levels - idx
		gateWidth := float64(int(float64(level) * 0.2 * d.cfg.sampleRate))
		gate := float64(sinceNextPeak)+gateWidth/2 >= 0 ||
			float64(d.sinceLastPeak)-gateWidth/2+1 <= 0

		multiplier := d.cfg.emgMultiplier
		if gate {
			multiplier = d.cfg.ecgMultiplier
		}

		for i := 0; i < d.channels; i++ {
			detail := d.coeffs[i][idx].High
			threshold := multiplier * d.medians[i][idx].Push(math.Abs(detail))
			if math.Abs(detail) >= threshold {
				detail = 0
			}
			d.details[i][idx] = detail
		}
	}

	// The coarsest approximation carries baseline and cardiac remnants,
	// so reconstruction starts from zero there.
	for i := 0; i < d.channels; i++ {
		dst[i] = d.banks[i].Iswt(0, d.details[i])
	}
	return nil
}

// Reset clears all per-channel state.
func (d *Denoiser) Reset() {
	for i := 0; i < d.channels; i++ {
		d.banks[i].Reset()
		for lvl := 0; lvl < wavelet.Levels; lvl++ {
			d.medians[i][lvl].Reset()
		}
	}
	d.sinceLastPeak = 0
}

// medianWindow keeps a bounded trailing window of values and reports
// the median including the value just pushed.
type medianWindow struct {
	maxLen  int
	values  []float64
	scratch []float64
}

func newMedianWindow(maxLen int) *medianWindow {
	return &medianWindow{
		maxLen:  maxLen,
		values:  make([]float64, 0, maxLen+1),
		scratch: make([]float64, 0, maxLen+1),
	}
}

// Push appends v, returns the median over the window including v, then
// trims the window back to its bound.
func (w *medianWindow) Push(v float64) float64 {
	w.values = append(w.values, v)

	w.scratch = w.scratch[:len(w.values)]
	copy(w.scratch, w.values)
	sort.Float64s(w.scratch)

	n := len(w.scratch)
	med := w.scratch[n/2]
	if n%2 == 0 {
		med = (w.scratch[n/2-1] + w.scratch[n/2]) / 2
	}

	if len(w.values) > w.maxLen {
		copy(w.values, w.values[1:])
		w.values = w.values[:len(w.values)-1]
	}
	return med
}

func (w *medianWindow) Reset() {
	w.values = w.values[:0]
}
