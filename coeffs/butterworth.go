package coeffs

import "github.com/handzsujt/semg-online-ecg-removal/dsp/filter/online"

// Butterworth transfer functions designed offline (bilinear transform)
// for a 1024 Hz sampling rate.
var (
	// 2nd-order highpass, -3 dB at 1 Hz. Removes baseline drift.
	baselineHighpassB = []float64{0.9956706458770602, -1.9913412917541204, 0.9956706458770602}
	baselineHighpassA = []float64{1.0, -1.9913225483591699, 0.9913600351490709}

	// 4th-order bandpass, -3 dB at 8 Hz and 20 Hz. Isolates the
	// QRS-energy band for Pan-Tompkins style detection.
	qrsBandpassB = []float64{
		1.6715446089233585e-06, 0.0, -6.686178435693434e-06, 0.0,
		1.0029267653540151e-05, 0.0, -6.686178435693434e-06, 0.0,
		1.6715446089233585e-06,
	}
	qrsBandpassA = []float64{
		1.0, -7.784098692194579, 26.534070213502723, -51.73333356750838,
		63.09956238810426, -49.302834784187205, 24.099486578083784,
		-6.7377809111403515, 0.8249287765354982,
	}
)

// BaselineHighpass1024 returns the baseline-drift removal filter for a
// 1024 Hz sampling rate.
func BaselineHighpass1024() online.Coefficients {
	return online.Coefficients{
		B: append([]float64(nil), baselineHighpassB...),
		A: append([]float64(nil), baselineHighpassA...),
	}
}

// QRSBandpass1024 returns the 8-20 Hz QRS isolation filter for a 1024 Hz
// sampling rate.
func QRSBandpass1024() online.Coefficients {
	return online.Coefficients{
		B: append([]float64(nil), qrsBandpassB...),
		A: append([]float64(nil), qrsBandpassA...),
	}
}
