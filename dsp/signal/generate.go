// Package signal creates deterministic test signals: sines, noise and
// synthetic ECG-like beat trains for exercising the detection and
// denoising stages.
package signal

import (
	"fmt"
	"math"
	"math/rand"
)

// Generator creates deterministic signals from a shared configuration.
type Generator struct {
	sampleRate float64
	seed       int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSampleRate sets the generator sample rate. Default is 1024 Hz.
func WithSampleRate(sampleRate float64) Option {
	return func(g *Generator) {
		if sampleRate > 0 {
			g.sampleRate = sampleRate
		}
	}
}

// WithSeed sets deterministic random seed for noise generation.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator creates a configured signal generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		sampleRate: 1024,
		seed:       1,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// SampleRate returns the generator sample rate.
func (g *Generator) SampleRate() float64 {
	return g.sampleRate
}

// Sine generates a sine wave.
func (g *Generator) Sine(freqHz, amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("sine samples must be > 0: %d", samples)
	}
	out := make([]float64, samples)
	step := 2 * math.Pi * freqHz / g.sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out, nil
}

// WhiteNoise generates deterministic white noise in [-amplitude, amplitude].
func (g *Generator) WhiteNoise(amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("noise samples must be > 0: %d", samples)
	}
	if amplitude < 0 {
		return nil, fmt.Errorf("noise amplitude must be >= 0: %f", amplitude)
	}
	out := make([]float64, samples)
	rng := rand.New(rand.NewSource(g.seed))
	for i := range out {
		out[i] = amplitude * (2*rng.Float64() - 1)
	}
	return out, nil
}

// BeatTrain generates an ECG-like pulse train: Gaussian R-spikes of the
// given amplitude and width (standard deviation in samples), one every
// period samples, the first centered at firstCenter.
func (g *Generator) BeatTrain(firstCenter, period int, amplitude, sigma float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("beat train samples must be > 0: %d", samples)
	}
	if period <= 0 {
		return nil, fmt.Errorf("beat period must be > 0: %d", period)
	}
	if sigma <= 0 {
		return nil, fmt.Errorf("beat width must be > 0: %f", sigma)
	}
	out := make([]float64, samples)
	for c := firstCenter; c < samples+period; c += period {
		lo := c - int(8*sigma)
		hi := c + int(8*sigma)
		if lo < 0 {
			lo = 0
		}
		if hi > samples-1 {
			hi = samples - 1
		}
		for i := lo; i <= hi; i++ {
			d := float64(i - c)
			out[i] += amplitude * math.Exp(-d*d/(2*sigma*sigma))
		}
	}
	return out, nil
}

// Add sums b into a element-wise. The slices must have equal length.
func Add(a, b []float64) ([]float64, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("length mismatch: %d != %d", len(a), len(b))
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out, nil
}
