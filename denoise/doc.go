// Package denoise removes cardiac artifacts from multi-channel EMG
// streams by stationary wavelet thresholding. Detail coefficients are
// compared against adaptive thresholds derived from trailing medians;
// around detected R-peaks the thresholds tighten so QRS energy is
// suppressed while the EMG passes.
//
// Based on the single-channel algorithm of Petersen et al., "Removing
// Cardiac Artifacts From Single-Channel Respiratory Electromyograms",
// IEEE Access 8, 2020.
package denoise
