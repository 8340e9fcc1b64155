package spectral

// High-frequency quality heuristic: genuine high-resolution masters keep
// meaningful spectral energy above 16 kHz, while upsampled or re-encoded
// audio shows a hard shelf below it. The analyzer measures the fraction of
// total spectral magnitude located at or above the configured cutoff and
// flags the file when that fraction reaches the configured threshold.

import (
	"path/filepath"

	"audio-inspector/decode"
)

// AnalysisResult packages the quality verdict together with the data a
// renderer or client needs to reproduce it.
type AnalysisResult struct {
	SourceLabel     string      `json:"sourceLabel"`
	SampleRate      int         `json:"sampleRate"`
	HighEnergyRatio float64     `json:"highEnergyRatio"`
	Threshold       float64     `json:"threshold"`
	QualityFlag     bool        `json:"qualityFlag"`
	Matrix          [][]float64 `json:"spectralMatrix"`
	Freqs           []float64   `json:"frequencyAxis"`
}

// HighEnergyRatio returns the fraction of total spectral magnitude located
// on rows at or above cutoffHz.
//
// When no bin reaches the cutoff (Nyquist below it) the ratio is exactly 0
// regardless of signal energy. A silent matrix also yields 0 rather than a
// division by zero. The result always lies in [0, 1].
func HighEnergyRatio(spec *Spectrogram, cutoffHz float64) float64 {
	if spec == nil || len(spec.Magnitude) == 0 || len(spec.Freqs) == 0 {
		return 0
	}
	if spec.Freqs[len(spec.Freqs)-1] < cutoffHz {
		return 0
	}

	var high, total float64
	for b, row := range spec.Magnitude {
		var rowSum float64
		for _, v := range row {
			rowSum += v
		}
		total += rowSum
		if spec.Freqs[b] >= cutoffHz {
			high += rowSum
		}
	}
	if total == 0 {
		return 0
	}

	return clamp01(high / total)
}

// AnalyzeSamples runs the spectral pipeline over already-decoded samples.
// The flag compares the ratio against the threshold inclusively, so a ratio
// exactly at the threshold passes.
func AnalyzeSamples(samples []float64, sampleRate int, label string, cfg AnalysisConfig) (*AnalysisResult, error) {
	spec, err := ComputeSpectrogram(samples, sampleRate, cfg)
	if err != nil {
		return nil, err
	}

	ratio := HighEnergyRatio(spec, cfg.HighFreqCutoff)

	return &AnalysisResult{
		SourceLabel:     label,
		SampleRate:      sampleRate,
		HighEnergyRatio: ratio,
		Threshold:       cfg.QualityThreshold,
		QualityFlag:     ratio >= cfg.QualityThreshold,
		Matrix:          spec.Magnitude,
		Freqs:           spec.Freqs,
	}, nil
}

// Analyze decodes the file at path and runs the spectral pipeline over it.
// Decode failures pass through unchanged so callers can distinguish them
// from analysis failures.
func Analyze(path string, cfg AnalysisConfig) (*AnalysisResult, error) {
	audio, err := decode.Decode(path)
	if err != nil {
		return nil, err
	}

	return AnalyzeSamples(audio.Samples, audio.SampleRate, filepath.Base(path), cfg)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
