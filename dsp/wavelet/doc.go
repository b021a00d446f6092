// Package wavelet implements a causal, three-level stationary
// (undecimated) wavelet filter bank with a matching inverse transform.
//
// Every level runs at the input sample rate; level k uses the level-0
// taps with 2^k-1 zeros inserted between consecutive taps, so each level
// carries a different, fixed filter delay. Feeding [Bank.Iswt] the exact
// outputs of [Bank.Swt] reproduces the input delayed by [Bank.Delay]
// samples (21 for the four-tap Daubechies-2 taps) to numerical tolerance,
// once the analysis filters' periodic-extension warm-up has settled
// (within the first few samples of the stream).
package wavelet
