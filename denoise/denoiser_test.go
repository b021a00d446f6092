package denoise_test

import (
	"math"
	"testing"

	"github.com/handzsujt/semg-online-ecg-removal/coeffs"
	"github.com/handzsujt/semg-online-ecg-removal/denoise"
	"github.com/handzsujt/semg-online-ecg-removal/detect/qrs"
	"github.com/handzsujt/semg-online-ecg-removal/dsp/signal"
)

func newDenoiser(t *testing.T, channels int, opts ...denoise.Option) *denoise.Denoiser {
	t.Helper()
	d, err := denoise.New(channels, coeffs.Daubechies2(), opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return d
}

func TestNewValidation(t *testing.T) {
	taps := coeffs.Daubechies2()

	if _, err := denoise.New(0, taps); err == nil {
		t.Error("expected error for zero channels")
	}
	if _, err := denoise.New(1, taps, denoise.WithSampleRate(0)); err == nil {
		t.Error("expected error for zero sample rate")
	}
	if _, err := denoise.New(1, taps, denoise.WithDetectionDelay(0)); err == nil {
		t.Error("expected error for zero detection delay")
	}
	if _, err := denoise.New(1, taps, denoise.WithThresholdMultipliers(0, 10)); err == nil {
		t.Error("expected error for zero threshold multiplier")
	}

	d := newDenoiser(t, 1)
	if d.Delay() != 21 {
		t.Errorf("Delay() = %d, expected 21", d.Delay())
	}
}

func TestFrameLengthMismatch(t *testing.T) {
	d := newDenoiser(t, 2)
	dst := make([]float64, 2)
	if err := d.ProcessSample(dst, []float64{1}, false, 768); err == nil {
		t.Error("expected error for short source frame")
	}
	if err := d.ProcessSample(dst[:1], []float64{1, 2}, false, 768); err == nil {
		t.Error("expected error for short destination frame")
	}
}

func TestZeroInputZeroOutput(t *testing.T) {
	d := newDenoiser(t, 1)
	src := []float64{0}
	dst := []float64{0}
	for i := 0; i < 1000; i++ {
		if err := d.ProcessSample(dst, src, false, 768); err != nil {
			t.Fatalf("ProcessSample failed: %v", err)
		}
		if dst[0] != 0 {
			t.Fatalf("nonzero output %f at sample %d for zero input", dst[0], i)
		}
	}
}

func TestHighBandSignalPassesDelayed(t *testing.T) {
	// A Nyquist-rate alternation lives entirely in the finest detail
	// band with constant magnitude, so it stays below threshold and
	// must come through unchanged apart from the round-trip delay.
	const samples = 3000
	d := newDenoiser(t, 1)
	x := make([]float64, samples)
	for n := range x {
		x[n] = 0.5
		if n%2 == 1 {
			x[n] = -0.5
		}
	}

	out := make([]float64, samples)
	dst := []float64{0}
	for n := range x {
		if err := d.ProcessSample(dst, x[n:n+1], false, 768); err != nil {
			t.Fatalf("ProcessSample failed: %v", err)
		}
		out[n] = dst[0]
	}

	for n := 200; n < samples; n++ {
		if math.Abs(out[n]-x[n-d.Delay()]) > 1e-12 {
			t.Fatalf("output %f at sample %d, expected delayed input %f", out[n], n, x[n-d.Delay()])
		}
	}
}

func TestCardiacArtifactsRemoved(t *testing.T) {
	// A pure beat train must be annihilated: every spike lands above
	// the detail thresholds and the approximation band is discarded.
	const samples = 12000
	g := signal.NewGenerator()
	x, err := g.BeatTrain(400, 800, 2, 8, samples)
	if err != nil {
		t.Fatalf("BeatTrain failed: %v", err)
	}

	det, err := qrs.New(qrs.DefaultDelay, coeffs.BaselineHighpass1024(), coeffs.QRSBandpass1024())
	if err != nil {
		t.Fatalf("qrs.New failed: %v", err)
	}
	d := newDenoiser(t, 1)

	dst := []float64{0}
	for n := range x {
		peak := det.ProcessSample(x[n])
		if err := d.ProcessSample(dst, x[n:n+1], peak, 800); err != nil {
			t.Fatalf("ProcessSample failed: %v", err)
		}
		if math.Abs(dst[0]) > 1e-9 {
			t.Fatalf("residual %g at sample %d, expected the beat train removed", dst[0], n)
		}
	}
}

func TestEmgSurvivesCardiacRemoval(t *testing.T) {
	// Beats riding on a high-band EMG stand-in: the output must track
	// the delayed EMG even across the gated peak regions.
	const samples = 12000
	g := signal.NewGenerator()
	beats, err := g.BeatTrain(400, 800, 2, 8, samples)
	if err != nil {
		t.Fatalf("BeatTrain failed: %v", err)
	}
	emg := make([]float64, samples)
	for n := range emg {
		emg[n] = 0.3
		if n%2 == 1 {
			emg[n] = -0.3
		}
	}
	x, err := signal.Add(beats, emg)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	det, err := qrs.New(qrs.DefaultDelay, coeffs.BaselineHighpass1024(), coeffs.QRSBandpass1024())
	if err != nil {
		t.Fatalf("qrs.New failed: %v", err)
	}
	d := newDenoiser(t, 1)

	out := make([]float64, samples)
	dst := []float64{0}
	for n := range x {
		peak := det.ProcessSample(x[n])
		if err := d.ProcessSample(dst, x[n:n+1], peak, 800); err != nil {
			t.Fatalf("ProcessSample failed: %v", err)
		}
		out[n] = dst[0]
	}

	for n := 4000; n < samples; n++ {
		if math.Abs(out[n]-emg[n-d.Delay()]) > 1e-3 {
			t.Fatalf("output %f at sample %d, expected delayed EMG %f", out[n], n, emg[n-d.Delay()])
		}
	}
}

func TestChannelsAreIndependent(t *testing.T) {
	// Identical inputs on both channels must produce identical outputs.
	single := newDenoiser(t, 1)
	double := newDenoiser(t, 2)

	dst1 := []float64{0}
	dst2 := []float64{0, 0}
	for n := 0; n < 2000; n++ {
		v := math.Sin(float64(n) * 0.7)
		if err := single.ProcessSample(dst1, []float64{v}, false, 768); err != nil {
			t.Fatalf("ProcessSample failed: %v", err)
		}
		if err := double.ProcessSample(dst2, []float64{v, v}, false, 768); err != nil {
			t.Fatalf("ProcessSample failed: %v", err)
		}
		if dst2[0] != dst1[0] || dst2[1] != dst1[0] {
			t.Fatalf("channel outputs diverged at sample %d: %f, %f, %f", n, dst1[0], dst2[0], dst2[1])
		}
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	d := newDenoiser(t, 1)
	dst := []float64{0}

	first := make([]float64, 500)
	for n := range first {
		v := math.Sin(float64(n) * 0.3)
		if err := d.ProcessSample(dst, []float64{v}, n == 100, 768); err != nil {
			t.Fatalf("ProcessSample failed: %v", err)
		}
		first[n] = dst[0]
	}

	d.Reset()
	for n := range first {
		v := math.Sin(float64(n) * 0.3)
		if err := d.ProcessSample(dst, []float64{v}, n == 100, 768); err != nil {
			t.Fatalf("ProcessSample failed: %v", err)
		}
		if dst[0] != first[n] {
			t.Fatalf("output differs after Reset at sample %d: %f != %f", n, dst[0], first[n])
		}
	}
}
