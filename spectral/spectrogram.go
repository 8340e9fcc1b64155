// Package spectral implements the short-time spectral transform and the
// high-frequency quality heuristic built on top of it.
//
// ComputeSpectrogram slices a signal into Hann-windowed frames advanced by
// a fixed hop, runs a real-input FFT per frame and keeps the magnitude of
// every coefficient. The result is a (frequency bin x time frame) matrix
// plus the center frequency of each row:
//
//	bins     = WindowSize/2 + 1
//	Freqs[i] = i * sampleRate / WindowSize
//
// Signals shorter than one window are zero-padded to a single frame so any
// non-empty input produces a spectrum.
package spectral

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrEmptySignal reports a decoded signal with no samples to transform.
var ErrEmptySignal = errors.New("decoded signal is empty")

// Spectrogram is the magnitude time-frequency representation of a signal.
type Spectrogram struct {
	Magnitude  [][]float64 // indexed [frequency bin][time frame], values >= 0
	Freqs      []float64   // Hz, one per matrix row, ascending
	SampleRate int
	WindowSize int
	HopSize    int
}

// Bins returns the number of frequency bins in the matrix.
func (s *Spectrogram) Bins() int {
	return len(s.Magnitude)
}

// Frames returns the number of time frames in the matrix.
func (s *Spectrogram) Frames() int {
	if len(s.Magnitude) == 0 {
		return 0
	}
	return len(s.Magnitude[0])
}

// ComputeSpectrogram derives the magnitude matrix and frequency axis for
// samples at the given sample rate.
func ComputeSpectrogram(samples []float64, sampleRate int, cfg AnalysisConfig) (*Spectrogram, error) {
	if len(samples) == 0 {
		return nil, ErrEmptySignal
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if cfg.WindowSize <= 1 || cfg.HopSize <= 0 {
		return nil, fmt.Errorf("invalid transform config: window=%d hop=%d", cfg.WindowSize, cfg.HopSize)
	}

	if len(samples) < cfg.WindowSize {
		padded := make([]float64, cfg.WindowSize)
		copy(padded, samples)
		samples = padded
	}

	frames := (len(samples)-cfg.WindowSize)/cfg.HopSize + 1
	bins := cfg.WindowSize/2 + 1

	matrix := make([][]float64, bins)
	for b := range matrix {
		matrix[b] = make([]float64, frames)
	}

	window := hannWindow(cfg.WindowSize)
	fft := fourier.NewFFT(cfg.WindowSize)
	frame := make([]float64, cfg.WindowSize)
	var coeffs []complex128

	for t := 0; t < frames; t++ {
		offset := t * cfg.HopSize
		for i := range frame {
			frame[i] = samples[offset+i] * window[i]
		}

		coeffs = fft.Coefficients(coeffs, frame)
		for b := 0; b < bins; b++ {
			matrix[b][t] = cmplx.Abs(coeffs[b])
		}
	}

	freqs := make([]float64, bins)
	for b := range freqs {
		freqs[b] = float64(b) * float64(sampleRate) / float64(cfg.WindowSize)
	}

	return &Spectrogram{
		Magnitude:  matrix,
		Freqs:      freqs,
		SampleRate: sampleRate,
		WindowSize: cfg.WindowSize,
		HopSize:    cfg.HopSize,
	}, nil
}

func hannWindow(size int) []float64 {
	window := make([]float64, size)
	for i := range window {
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return window
}
