// Package batch turns lists of audio files into ordered streams of typed
// analysis events.
//
// Each submitted job runs on its own goroutine and processes files strictly
// sequentially: the decode-and-transform work is CPU bound and in-order
// results are part of the contract with consumers. Failures stay local to
// the file that caused them and never abort the job. Cancellation is
// cooperative: the worker checks the job context between files, so the file
// in flight still finishes and its event is delivered before the stream
// ends with JobCancelled instead of JobCompleted.
package batch

import (
	"context"
	"fmt"

	"audio-inspector/spectral"
	"audio-inspector/utils"
)

// AnalyzeFunc runs the spectral pipeline over one file.
type AnalyzeFunc func(path string) (*spectral.AnalysisResult, error)

// Coordinator fans file paths out to the analyzer and reports typed events.
type Coordinator struct {
	analyze AnalyzeFunc
}

// NewCoordinator returns a Coordinator bound to the spectral analyzer with
// the given configuration.
func NewCoordinator(cfg spectral.AnalysisConfig) *Coordinator {
	return &Coordinator{
		analyze: func(path string) (*spectral.AnalysisResult, error) {
			return spectral.Analyze(path, cfg)
		},
	}
}

// Job is a handle on one submitted batch scan.
type Job struct {
	ID     string
	events chan Event
	cancel context.CancelFunc
}

// Events returns the job's result stream. The channel closes after the
// terminal event.
func (j *Job) Events() <-chan Event {
	return j.events
}

// Cancel requests cooperative cancellation. The file being analyzed still
// finishes and its event is delivered; remaining files are skipped.
func (j *Job) Cancel() {
	j.cancel()
}

// Submit starts a background scan over paths. One event arrives per path, in
// input order, followed by exactly one terminal event; the stream then
// closes. An empty path list yields just JobCompleted. Cancelling ctx has
// the same effect as Job.Cancel.
func (c *Coordinator) Submit(ctx context.Context, paths []string) *Job {
	jobCtx, cancel := context.WithCancel(ctx)
	job := &Job{
		ID:     fmt.Sprintf("job-%d", utils.GenerateUniqueID()),
		events: make(chan Event, len(paths)+1),
		cancel: cancel,
	}

	go func() {
		defer close(job.events)
		defer cancel()

		for _, path := range paths {
			select {
			case <-jobCtx.Done():
				job.events <- JobCancelled{}
				return
			default:
			}
			job.events <- c.AnalyzeOne(path)
		}
		job.events <- JobCompleted{}
	}()

	return job
}

// AnalyzeOne runs the analyzer over a single path and wraps the outcome in
// the event type a batch job would deliver for it.
func (c *Coordinator) AnalyzeOne(path string) Event {
	result, err := c.analyze(path)
	if err != nil {
		return FileFailed{Path: path, Message: err.Error()}
	}
	return FileSucceeded{Path: path, Result: result}
}

// AcceptPrecomputed wraps an already-computed result in the same event type
// AnalyzeOne produces, so both entry points converge on one downstream path.
// No decoding or analysis happens here.
func (c *Coordinator) AcceptPrecomputed(path string, result *spectral.AnalysisResult) Event {
	if result == nil {
		return FileFailed{Path: path, Message: "no precomputed result supplied"}
	}
	return FileSucceeded{Path: path, Result: result}
}
