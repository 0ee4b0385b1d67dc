package analysis

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
)

var ErrShortTrace = errors.New("analysis: trace too short")

// PowerSpectrum returns |X_k|^2 / n for k = 0..n/2 of the mean-removed
// samples.
func PowerSpectrum(samples []float64) []float64 {
	n := len(samples)
	if n == 0 {
		return nil
	}

	centred := make([]float64, n)
	copy(centred, samples)
	floats.AddConst(-floats.Sum(samples)/float64(n), centred)

	coeffs := fourier.NewFFT(n).Coefficients(nil, centred)
	ps := make([]float64, len(coeffs))
	for i, c := range coeffs {
		a := cmplx.Abs(c)
		ps[i] = a * a / float64(n)
	}
	return ps
}

// DominantFrequency returns the frequency of the largest non-DC spectrum
// bin for samples taken every sampleDt.
func DominantFrequency(samples []float64, sampleDt float64) (float64, error) {
	if len(samples) < 4 {
		return 0, ErrShortTrace
	}
	if !(sampleDt > 0) {
		return 0, errors.New("analysis: sample interval must be positive")
	}

	ps := PowerSpectrum(samples)
	k := floats.MaxIdx(ps[1:]) + 1
	return fourier.NewFFT(len(samples)).Freq(k) / sampleDt, nil
}
