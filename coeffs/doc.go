// Package coeffs ships the externally designed, precomputed constant
// coefficient vectors the processing core consumes: the Daubechies-2
// wavelet taps and the Butterworth prototype filters for a 1024 Hz
// sampling rate.
//
// The core never derives coefficients itself; filters for other sampling
// rates are designed offline the same way and passed in through the same
// constructor parameters.
package coeffs
