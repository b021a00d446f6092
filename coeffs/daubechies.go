package coeffs

import "github.com/handzsujt/semg-online-ecg-removal/dsp/wavelet"

// Daubechies-2 filter bank, the canonical (1±√3)/(4√2) taps. These are
// sampling-rate independent.
var (
	db2DecompLow  = []float64{-0.12940952255126034, 0.2241438680420134, 0.8365163037378077, 0.4829629131445341}
	db2DecompHigh = []float64{-0.4829629131445341, 0.8365163037378077, -0.2241438680420134, -0.12940952255126034}
	db2RecompLow  = []float64{0.4829629131445341, 0.8365163037378077, 0.2241438680420134, -0.12940952255126034}
	db2RecompHigh = []float64{-0.12940952255126034, -0.2241438680420134, 0.8365163037378077, -0.4829629131445341}
)

// Daubechies2 returns the four Daubechies-2 wavelet tap sets used for
// stationary wavelet decomposition and reconstruction.
func Daubechies2() wavelet.Taps {
	return wavelet.Taps{
		DecompLow:  append([]float64(nil), db2DecompLow...),
		DecompHigh: append([]float64(nil), db2DecompHigh...),
		RecompLow:  append([]float64(nil), db2RecompLow...),
		RecompHigh: append([]float64(nil), db2RecompHigh...),
	}
}
