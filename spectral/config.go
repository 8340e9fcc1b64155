package spectral

// AnalysisConfig controls the short-time transform and the quality decision.
// The threshold is deliberately part of the config rather than a package
// variable so callers can tighten or relax it per run.
type AnalysisConfig struct {
	WindowSize       int     // samples per transform frame
	HopSize          int     // samples between successive frames
	HighFreqCutoff   float64 // Hz; energy at or above this counts as high-frequency
	QualityThreshold float64 // minimum high-frequency energy ratio for a pass
}

// DefaultAnalysisConfig returns the reference analysis parameters.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		WindowSize:       1024,
		HopSize:          512,
		HighFreqCutoff:   16000,
		QualityThreshold: 0.01,
	}
}
