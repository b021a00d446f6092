// Package semg assembles the full streaming chain for removing cardiac
// artifacts from respiratory surface EMG recordings: reference channel
// election, R-peak detection, heart-rate estimation, wavelet denoising
// and envelope extraction, all driven one sample per channel per tick.
package semg
