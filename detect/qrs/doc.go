// Package qrs locates QRS complexes (R-peaks) in ECG-contaminated
// surface-EMG streams, one sample per call, using Pan-Tompkins style
// staging: baseline removal, 8-20 Hz bandpass, derivative squaring, a
// centered moving-average smoother, an adaptive threshold over recent
// local maxima with artifact rejection, and hysteresis box detection
// with physiological validity checks.
//
// Detection of a peak at logical position t is reported exactly delay
// ticks later, which gives downstream consumers a fixed lookahead
// window around every reported beat.
//
// J. Pan and W. J. Tompkins (1985), A Real-Time QRS Detection
// Algorithm. IEEE Transactions on Biomedical Engineering, BME-32(3).
package qrs
