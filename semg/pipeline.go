package semg

import (
	"fmt"

	"github.com/handzsujt/semg-online-ecg-removal/denoise"
	"github.com/handzsujt/semg-online-ecg-removal/detect/channel"
	"github.com/handzsujt/semg-online-ecg-removal/detect/heartrate"
	"github.com/handzsujt/semg-online-ecg-removal/detect/qrs"
	"github.com/handzsujt/semg-online-ecg-removal/dsp/core"
	"github.com/handzsujt/semg-online-ecg-removal/dsp/envelope"
	"github.com/handzsujt/semg-online-ecg-removal/dsp/filter/online"
	"github.com/handzsujt/semg-online-ecg-removal/dsp/wavelet"
)

// State is the processing phase of a Pipeline.
type State int

const (
	// StateInitializing covers the reference-channel election window
	// of multi-channel pipelines. Outputs are zero meanwhile.
	StateInitializing State = iota
	// StateRunning is the steady denoising state.
	StateRunning
)

const (
	defaultSampleRate     = 1024.0
	defaultInitSeconds    = 5.0
	defaultEnvelopeWindow = 256
)

type config struct {
	channels       int
	sampleRate     float64
	delayTicks     int
	initSeconds    float64
	envelopeWindow int
	envelopeMode   envelope.Mode
}

// Option configures a Pipeline.
type Option func(*config)

// WithChannels sets the number of input channels. Default is 1.
func WithChannels(n int) Option {
	return func(c *config) { c.channels = n }
}

// WithSampleRate sets the sampling rate in Hz. Default is 1024. The
// supplied filter coefficients must be designed for the same rate.
func WithSampleRate(fs float64) Option {
	return func(c *config) { c.sampleRate = fs }
}

// WithDetectionDelay sets the R-peak reporting delay in samples.
// Default is qrs.DefaultDelay.
func WithDetectionDelay(delayTicks int) Option {
	return func(c *config) { c.delayTicks = delayTicks }
}

// WithInitDuration sets the reference-channel election window in
// seconds for multi-channel pipelines. Zero skips the election and the
// first channel serves as reference. Default is 5 s.
func WithInitDuration(seconds float64) Option {
	return func(c *config) { c.initSeconds = seconds }
}

// WithEnvelopeWindow sets the envelope window length in samples.
// Default is 256.
func WithEnvelopeWindow(windowLen int) Option {
	return func(c *config) { c.envelopeWindow = windowLen }
}

// WithEnvelopeMode selects causal or centered envelope placement.
// Default is envelope.ModeCausal.
func WithEnvelopeMode(mode envelope.Mode) Option {
	return func(c *config) { c.envelopeMode = mode }
}

// Pipeline is the complete per-sample ECG removal chain. Multi-channel
// pipelines first elect the channel best suited for R-peak detection,
// then drive one shared detector and heart-rate estimator from it while
// every channel is denoised and enveloped.
type Pipeline struct {
	cfg         config
	initSamples int
	count       int
	best        int

	selector  *channel.Selector
	detector  *qrs.Detector
	heartRate *heartrate.Estimator
	denoiser  *denoise.Denoiser
	envelopes []*envelope.Estimator
}

// New creates a Pipeline. baseline is the drift-removal highpass and
// bandpass the QRS isolation filter for peak detection; taps the
// wavelet family used for denoising. All must match the configured
// sampling rate.
func New(baseline, bandpass online.Coefficients, taps wavelet.Taps, opts ...Option) (*Pipeline, error) {
	cfg := config{
		channels:       1,
		sampleRate:     defaultSampleRate,
		delayTicks:     qrs.DefaultDelay,
		initSeconds:    defaultInitSeconds,
		envelopeWindow: defaultEnvelopeWindow,
		envelopeMode:   envelope.ModeCausal,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.channels <= 0 {
		return nil, fmt.Errorf("channel count must be > 0: %d", cfg.channels)
	}
	if cfg.sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0: %f", cfg.sampleRate)
	}
	if cfg.initSeconds < 0 {
		return nil, fmt.Errorf("initialization duration must be >= 0: %f", cfg.initSeconds)
	}

	p := &Pipeline{
		cfg:         cfg,
		initSamples: int(cfg.initSeconds * cfg.sampleRate),
	}

	var err error
	if p.detector, err = qrs.New(cfg.delayTicks, baseline, bandpass, qrs.WithSampleRate(cfg.sampleRate)); err != nil {
		return nil, err
	}
	if p.heartRate, err = heartrate.New(cfg.delayTicks); err != nil {
		return nil, err
	}
	if p.denoiser, err = denoise.New(cfg.channels, taps,
		denoise.WithSampleRate(cfg.sampleRate),
		denoise.WithDetectionDelay(cfg.delayTicks)); err != nil {
		return nil, err
	}
	p.envelopes = make([]*envelope.Estimator, cfg.channels)
	for i := range p.envelopes {
		if p.envelopes[i], err = envelope.New(cfg.envelopeMode, cfg.envelopeWindow); err != nil {
			return nil, err
		}
	}

	if cfg.channels > 1 && p.initSamples > 0 {
		p.selector, err = channel.New(cfg.channels, cfg.initSeconds, baseline, bandpass,
			channel.WithSampleRate(cfg.sampleRate),
			channel.WithDetectionDelay(cfg.delayTicks))
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

// ProcessSample consumes one sample per channel and writes the denoised
// values and their envelopes into dst slices of channel length. During
// the initialization phase both outputs are zero.
func (p *Pipeline) ProcessSample(denoised, envelopes, src []float64) error {
	n := p.cfg.channels
	if len(src) != n {
		return fmt.Errorf("sample count must match channel count %d: %d", n, len(src))
	}
	if len(denoised) != n || len(envelopes) != n {
		return fmt.Errorf("destination lengths must match channel count %d: %d, %d", n, len(denoised), len(envelopes))
	}
	for i, v := range src {
		if !core.IsFinite(v) {
			return fmt.Errorf("sample on channel %d is not finite: %f", i, v)
		}
	}

	if p.selector != nil && p.count < p.initSamples {
		best, err := p.selector.ProcessSample(src)
		if err != nil {
			return err
		}
		if best != channel.NotReady {
			p.best = best
		}
		p.count++
		core.Zero(denoised)
		core.Zero(envelopes)
		return nil
	}

	peak := p.detector.ProcessSample(src[p.best])
	interval := p.heartRate.RecordTick(peak)
	if err := p.denoiser.ProcessSample(denoised, src, peak, interval); err != nil {
		return err
	}
	for i := range envelopes {
		envelopes[i] = p.envelopes[i].Update(denoised[i])
	}
	p.count++
	return nil
}

// State reports whether the pipeline is still electing its reference
// channel or already denoising.
func (p *Pipeline) State() State {
	if p.selector != nil && p.count < p.initSamples {
		return StateInitializing
	}
	return StateRunning
}

// ReferenceChannel returns the channel driving R-peak detection. Before
// a multi-channel election finishes it returns the default channel 0.
func (p *Pipeline) ReferenceChannel() int {
	return p.best
}

// HeartRateInterval returns the current estimated beat-to-beat distance
// in samples.
func (p *Pipeline) HeartRateInterval() int {
	return p.heartRate.Interval()
}

// Delay returns the signal-path latency of the denoised output relative
// to the input, in samples: the wavelet round-trip delay plus the
// envelope window delay in centered mode. Peak decisions arrive later
// than that; see DetectionLatency.
func (p *Pipeline) Delay() int {
	return p.denoiser.Delay() + p.envelopes[0].Delay()
}

// DetectionLatency returns how many samples elapse between a physical
// R-peak on the reference channel and its flag reaching the denoiser:
// the detection filter delays, the smoothing-window half-width and the
// configured detection delay. Fixed at construction (386 for the
// default configuration at 1024 Hz).
func (p *Pipeline) DetectionLatency() int {
	return p.detector.DecisionLatency()
}

// Channels returns the configured channel count.
func (p *Pipeline) Channels() int {
	return p.cfg.channels
}
