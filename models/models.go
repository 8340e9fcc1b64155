package models

import (
	"time"

	"audio-inspector/spectral"
)

// ScanRecord represents one analyzed (or failed) file as stored in the
// scan history.
type ScanRecord struct {
	ID              int64     `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	JobID           string    `json:"jobID,omitempty"`
	Path            string    `json:"path"`
	SourceLabel     string    `json:"sourceLabel"`
	SampleRate      int       `json:"sampleRate"`
	HighEnergyRatio float64   `json:"highEnergyRatio"`
	Threshold       float64   `json:"threshold"`
	QualityFlag     bool      `json:"qualityFlag"`
	ArtifactPath    string    `json:"artifactPath,omitempty"`
	Error           string    `json:"error,omitempty"`
}

// FileOutcome summarizes one file inside a batch job report.
type FileOutcome struct {
	Path            string  `json:"path"`
	SourceLabel     string  `json:"sourceLabel"`
	SampleRate      int     `json:"sampleRate,omitempty"`
	HighEnergyRatio float64 `json:"highEnergyRatio"`
	QualityFlag     bool    `json:"qualityFlag"`
	Error           string  `json:"error,omitempty"`
}

// JobReport is the persisted summary of a finished (or cancelled) batch job.
type JobReport struct {
	JobID      string        `json:"jobID"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Inputs     int           `json:"inputs"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Cancelled  bool          `json:"cancelled"`
	Files      []FileOutcome `json:"files"`
}

// AnalyzeRequest asks for a single-file analysis.
type AnalyzeRequest struct {
	Path string `json:"path"`
}

// ScanRequest starts a batch scan over files and directories.
type ScanRequest struct {
	Paths []string `json:"paths"`
}

// CancelRequest identifies a running batch job to cancel.
type CancelRequest struct {
	JobID string `json:"jobID"`
}

// PrecomputedRequest asks for an artifact render of a result the client
// already holds from an earlier analysis.
type PrecomputedRequest struct {
	Path   string                   `json:"path"`
	Result *spectral.AnalysisResult `json:"result"`
}
