package batch

import "audio-inspector/spectral"

// Event is one message on a job's result stream. A job emits exactly one
// event per input file, in input order, followed by a single terminal event:
// JobCompleted after a full run, JobCancelled when the job was stopped early.
type Event interface {
	event()
}

// FileSucceeded carries the analysis result for one input file.
type FileSucceeded struct {
	Path   string                   `json:"path"`
	Result *spectral.AnalysisResult `json:"result"`
}

// FileFailed reports a decode or analysis failure for one input file. The
// failure is local to the file; the job keeps running.
type FileFailed struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// JobCompleted is the terminal event of a job that processed every input.
type JobCompleted struct{}

// JobCancelled is the terminal event of a job stopped before finishing.
type JobCancelled struct{}

func (FileSucceeded) event() {}
func (FileFailed) event()    {}
func (JobCompleted) event()  {}
func (JobCancelled) event()  {}
