// Package online provides a causal single-input/single-output digital
// filter runtime for per-sample streaming.
//
// A [Filter] applies a pre-computed transfer function to an input stream
// using fixed-size circular history buffers, one sample in and one sample
// out per call:
//
//	y[n] = (sum_i b[i]*x[n-i] - sum_j a[j+1]*y[n-j-1]) / a[0]
//
// FIR mode (no denominator) delays its output by len(b)-1 samples relative
// to the input. This package provides the processing runtime only;
// coefficient design (Butterworth, wavelet taps, etc.) is a separate
// concern and happens outside this module.
package online
