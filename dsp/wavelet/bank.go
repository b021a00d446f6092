package wavelet

import (
	"fmt"

	"github.com/handzsujt/semg-online-ecg-removal/dsp/delay"
	"github.com/handzsujt/semg-online-ecg-removal/dsp/filter/online"
)

// Levels is the fixed decomposition depth of a Bank.
const Levels = 3

// Taps holds the four level-0 filter tap sets of a wavelet family
// (e.g. Daubechies-2). All four sets must have the same length.
type Taps struct {
	DecompLow  []float64
	DecompHigh []float64
	RecompLow  []float64
	RecompHigh []float64
}

// BandPair is the (lowpass, highpass) coefficient pair one level
// produces per tick.
type BandPair struct {
	Low  float64
	High float64
}

// Bank is a three-level stationary wavelet decomposition/reconstruction
// pair built from cascaded online filters plus per-level alignment
// buffers on the reconstruction side.
type Bank struct {
	decompLow  [Levels]*online.Filter
	decompHigh [Levels]*online.Filter
	recompLow  [Levels]*online.Filter
	recompHigh [Levels]*online.Filter

	// align[i] delays the reconstructed highpass contribution of the
	// i-th recombination step so all levels line up in time.
	align [Levels - 1]*delay.Line

	delaySamples int
}

// New creates a Bank from level-0 wavelet taps.
func New(t Taps) (*Bank, error) {
	n := len(t.DecompLow)
	if n < 2 {
		return nil, fmt.Errorf("wavelet taps must have at least 2 entries: %d", n)
	}
	if len(t.DecompHigh) != n || len(t.RecompLow) != n || len(t.RecompHigh) != n {
		return nil, fmt.Errorf("wavelet tap sets must all have length %d", n)
	}

	b := &Bank{}

	// Per-level filter delay: (n-1) * 2^level. Total bank delay is the
	// sum across levels (3+6+12 = 21 for four taps).
	levelDelay := [Levels]int{}
	for lvl := range Levels {
		levelDelay[lvl] = (n - 1) << lvl
		b.delaySamples += levelDelay[lvl]
	}

	for lvl := range Levels {
		var err error
		if b.decompLow[lvl], err = online.NewFIR(dilate(t.DecompLow, lvl)); err != nil {
			return nil, err
		}
		if b.decompHigh[lvl], err = online.NewFIR(dilate(t.DecompHigh, lvl)); err != nil {
			return nil, err
		}
		if b.recompLow[lvl], err = online.NewFIR(dilate(t.RecompLow, lvl)); err != nil {
			return nil, err
		}
		if b.recompHigh[lvl], err = online.NewFIR(dilate(t.RecompHigh, lvl)); err != nil {
			return nil, err
		}
	}

	// The i-th recombination step must wait for every coarser level to
	// finish, so its buffer spans the cumulative delay of the levels
	// above it plus one slot for the current sample.
	size := 0
	for i := range Levels - 1 {
		size += levelDelay[Levels-1-i]
		line, err := delay.New(size + 1)
		if err != nil {
			return nil, err
		}
		b.align[i] = line
	}

	return b, nil
}

// dilate returns base with 2^level-1 zeros inserted between consecutive
// taps. Level 0 returns a copy of base.
func dilate(base []float64, level int) []float64 {
	if level == 0 {
		return append([]float64(nil), base...)
	}
	step := 1 << level
	out := make([]float64, (len(base)-1)*step+1)
	for i, v := range base {
		out[i*step] = v
	}
	return out
}

// Swt decomposes one input sample into one (lowpass, highpass) pair per
// level, ordered from coarsest to finest. Level 0 filters the raw input;
// each deeper level filters the previous level's lowpass output.
func (b *Bank) Swt(x float64) [Levels]BandPair {
	var out [Levels]BandPair

	low := x
	for lvl := range Levels {
		l := b.decompLow[lvl].ProcessSample(low)
		h := b.decompHigh[lvl].ProcessSample(low)
		out[Levels-1-lvl] = BandPair{Low: l, High: h}
		low = l
	}

	return out
}

// Iswt reconstructs one output sample from the coarsest lowpass value
// and the per-level highpass details, ordered coarsest first (matching
// the Swt output order).
func (b *Bank) Iswt(approx float64, details [Levels]float64) float64 {
	res := b.recompLow[Levels-1].ProcessSample(approx) +
		b.recompHigh[Levels-1].ProcessSample(details[0])

	for i := 1; i < Levels; i++ {
		rl := b.recompLow[Levels-1-i].ProcessSample(res)
		rh := b.recompHigh[Levels-1-i].ProcessSample(details[i])

		line := b.align[i-1]
		line.Write(rh)
		res = line.Read(line.Len()-1) + rl/2
	}

	return res / 2
}

// Delay returns the fixed round-trip delay of Swt followed by Iswt, in
// samples.
func (b *Bank) Delay() int {
	return b.delaySamples
}

// Reset clears all filter and alignment state.
func (b *Bank) Reset() {
	for lvl := range Levels {
		b.decompLow[lvl].Reset()
		b.decompHigh[lvl].Reset()
		b.recompLow[lvl].Reset()
		b.recompHigh[lvl].Reset()
	}
	for _, line := range b.align {
		line.Reset()
	}
}
