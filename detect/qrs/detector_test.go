package qrs_test

import (
	"math"
	"testing"

	"github.com/handzsujt/semg-online-ecg-removal/coeffs"
	"github.com/handzsujt/semg-online-ecg-removal/detect/qrs"
	"github.com/handzsujt/semg-online-ecg-removal/dsp/signal"
)

func newDetector(t *testing.T, delayTicks int, opts ...qrs.Option) *qrs.Detector {
	t.Helper()
	d, err := qrs.New(delayTicks, coeffs.BaselineHighpass1024(), coeffs.QRSBandpass1024(), opts...)
	if err != nil {
		t.Fatalf("New(%d) failed: %v", delayTicks, err)
	}
	return d
}

func beatTrain(t *testing.T, firstCenter, period int, amplitude float64, samples int) []float64 {
	t.Helper()
	g := signal.NewGenerator()
	x, err := g.BeatTrain(firstCenter, period, amplitude, 8, samples)
	if err != nil {
		t.Fatalf("BeatTrain failed: %v", err)
	}
	return x
}

func collectFlags(d *qrs.Detector, x []float64) []int {
	var flags []int
	for i, v := range x {
		if d.ProcessSample(v) {
			flags = append(flags, i)
		}
	}
	return flags
}

func TestNewValidation(t *testing.T) {
	baseline := coeffs.BaselineHighpass1024()
	bandpass := coeffs.QRSBandpass1024()

	if _, err := qrs.New(qrs.MinDelay-1, baseline, bandpass); err == nil {
		t.Error("expected error for delay below minimum")
	}
	if _, err := qrs.New(qrs.MaxDelay+1, baseline, bandpass); err == nil {
		t.Error("expected error for delay above maximum")
	}
	if _, err := qrs.New(qrs.DefaultDelay, baseline, bandpass, qrs.WithSampleRate(-1)); err == nil {
		t.Error("expected error for negative sample rate")
	}
	if _, err := qrs.New(qrs.DefaultDelay, baseline, bandpass, qrs.WithBoxWidth(200, 100)); err == nil {
		t.Error("expected error for inverted box width range")
	}
	if _, err := qrs.New(qrs.DefaultDelay, baseline, bandpass, qrs.WithSampleRate(4096)); err == nil {
		t.Error("expected error for smoothing window exceeding delay")
	}

	d, err := qrs.New(qrs.DefaultDelay, baseline, bandpass)
	if err != nil {
		t.Fatalf("New(%d) failed: %v", qrs.DefaultDelay, err)
	}
	if d.Delay() != qrs.DefaultDelay {
		t.Errorf("Delay() = %d, expected %d", d.Delay(), qrs.DefaultDelay)
	}
	// Filter delays 2+8 plus half the 153-sample smoother plus the
	// reporting delay.
	if want := 2 + 8 + 76 + qrs.DefaultDelay; d.DecisionLatency() != want {
		t.Errorf("DecisionLatency() = %d, expected %d", d.DecisionLatency(), want)
	}
}

func TestNoFlagsOnFlatInput(t *testing.T) {
	d := newDetector(t, qrs.DefaultDelay)
	for i := 0; i < 8000; i++ {
		if d.ProcessSample(0) {
			t.Fatalf("unexpected peak flag at sample %d on flat input", i)
		}
	}
}

func TestOnePeakPerBeat(t *testing.T) {
	const (
		firstCenter = 400
		period      = 800
		samples     = 8000
	)
	d := newDetector(t, qrs.DefaultDelay)
	flags := collectFlags(d, beatTrain(t, firstCenter, period, 2, samples))

	want := 0
	for c := firstCenter; c+qrs.DefaultDelay-2 < samples; c += period {
		want++
	}
	if len(flags) != want {
		t.Fatalf("got %d peak flags, expected %d: %v", len(flags), want, flags)
	}
	for i := 1; i < len(flags); i++ {
		if flags[i]-flags[i-1] != period {
			t.Errorf("flag spacing %d between %d and %d, expected %d",
				flags[i]-flags[i-1], flags[i-1], flags[i], period)
		}
	}
}

func TestFlagOffsetTracksDelay(t *testing.T) {
	// Each peak is reported a fixed number of ticks after its center,
	// and the offset moves one for one with the configured delay.
	for _, delayTicks := range []int{qrs.MinDelay, qrs.DefaultDelay, qrs.MaxDelay} {
		d := newDetector(t, delayTicks)
		flags := collectFlags(d, beatTrain(t, 400, 800, 2, 8000))
		if len(flags) == 0 {
			t.Fatalf("delay %d: no peaks detected", delayTicks)
		}
		for i, f := range flags {
			center := 400 + i*800
			if got := f - center; got != delayTicks-2 {
				t.Errorf("delay %d: flag %d at offset %d from center %d, expected %d",
					delayTicks, i, got, center, delayTicks-2)
			}
		}
	}
}

func TestLastPeakValue(t *testing.T) {
	d := newDetector(t, qrs.DefaultDelay)
	x := beatTrain(t, 400, 800, 2, 8000)
	for _, v := range x {
		if d.ProcessSample(v) {
			// The baseline highpass shaves a little off the 2.0 peak.
			if got := d.LastPeakValue(); got < 1.7 || got > 2.0 {
				t.Errorf("LastPeakValue() = %f, expected near 1.84", got)
			}
		}
	}
}

func TestInvertedLead(t *testing.T) {
	pos := newDetector(t, qrs.DefaultDelay)
	neg := newDetector(t, qrs.DefaultDelay)
	up := beatTrain(t, 400, 800, 2, 8000)
	down := beatTrain(t, 400, 800, -2, 8000)

	posFlags := collectFlags(pos, up)
	negFlags := collectFlags(neg, down)

	if len(posFlags) != len(negFlags) {
		t.Fatalf("flag count differs: %d upright, %d inverted", len(posFlags), len(negFlags))
	}
	for i := range posFlags {
		if posFlags[i] != negFlags[i] {
			t.Errorf("flag %d differs: %d upright, %d inverted", i, posFlags[i], negFlags[i])
		}
	}
	if v := neg.LastPeakValue(); v >= 0 {
		t.Errorf("LastPeakValue() = %f for inverted lead, expected negative", v)
	}
}

func TestArtifactDoesNotFloodDetection(t *testing.T) {
	// Replace one beat with a 40x artifact. The outlier rejection must
	// keep the artifact out of the threshold history so detection
	// recovers within a few beats instead of going silent.
	const samples = 12000
	base := beatTrain(t, 400, 800, 2, samples)
	g := signal.NewGenerator()
	spike, err := g.BeatTrain(2800, samples, 78, 8, samples)
	if err != nil {
		t.Fatalf("BeatTrain failed: %v", err)
	}
	x, err := signal.Add(base, spike)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	d := newDetector(t, qrs.DefaultDelay)
	flags := collectFlags(d, x)

	if len(flags) < 10 {
		t.Fatalf("got %d peak flags, expected detection to recover after the artifact: %v", len(flags), flags)
	}
	for _, f := range flags {
		if f > 2800 && f < 5400 {
			t.Errorf("unexpected flag at %d inside the artifact suppression window", f)
		}
	}
	recovered := false
	for _, f := range flags {
		if f >= 5400 {
			recovered = true
			break
		}
	}
	if !recovered {
		t.Error("detection never recovered after the artifact")
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	d := newDetector(t, qrs.DefaultDelay)
	x := beatTrain(t, 400, 800, 2, 4000)

	first := collectFlags(d, x)
	d.Reset()
	second := collectFlags(d, x)

	if len(first) != len(second) {
		t.Fatalf("flag count differs after Reset: %d != %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("flag %d differs after Reset: %d != %d", i, first[i], second[i])
		}
	}
	if v := d.LastPeakValue(); math.Abs(v-1.84) > 0.15 {
		t.Errorf("LastPeakValue() = %f after identical rerun, expected near 1.84", v)
	}
}
