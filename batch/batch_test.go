package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"audio-inspector/spectral"
)

func newTestCoordinator(analyze AnalyzeFunc) *Coordinator {
	return &Coordinator{analyze: analyze}
}

// drain collects every event until the job's stream closes.
func drain(t *testing.T, job *Job) []Event {
	t.Helper()

	var events []Event
	for ev := range job.Events() {
		events = append(events, ev)
	}
	return events
}

func TestSubmitEmitsOrderedEventsThenCompletion(t *testing.T) {
	t.Parallel()

	coordinator := newTestCoordinator(func(path string) (*spectral.AnalysisResult, error) {
		return &spectral.AnalysisResult{SourceLabel: filepath.Base(path)}, nil
	})

	paths := []string{"a.wav", "b.flac", "c.mp3"}
	job := coordinator.Submit(context.Background(), paths)
	if job.ID == "" {
		t.Error("expected a job ID")
	}

	events := drain(t, job)
	if len(events) != len(paths)+1 {
		t.Fatalf("expected %d events, got %d", len(paths)+1, len(events))
	}
	for i, path := range paths {
		succeeded, ok := events[i].(FileSucceeded)
		if !ok {
			t.Fatalf("event %d: expected FileSucceeded, got %T", i, events[i])
		}
		if succeeded.Path != path {
			t.Fatalf("event %d out of order: expected %s, got %s", i, path, succeeded.Path)
		}
	}
	if _, ok := events[len(events)-1].(JobCompleted); !ok {
		t.Fatalf("expected terminal JobCompleted, got %T", events[len(events)-1])
	}
}

func TestSubmitEmptyYieldsCompletionOnly(t *testing.T) {
	t.Parallel()

	coordinator := newTestCoordinator(func(string) (*spectral.AnalysisResult, error) {
		t.Error("the analyzer must not run for an empty job")
		return nil, nil
	})

	events := drain(t, coordinator.Submit(context.Background(), nil))
	if len(events) != 1 {
		t.Fatalf("expected a single terminal event, got %d", len(events))
	}
	if _, ok := events[0].(JobCompleted); !ok {
		t.Fatalf("expected JobCompleted, got %T", events[0])
	}
}

func TestMidBatchFailureIsIsolated(t *testing.T) {
	t.Parallel()

	coordinator := newTestCoordinator(func(path string) (*spectral.AnalysisResult, error) {
		if path == "broken.wav" {
			return nil, errors.New("unreadable payload")
		}
		return &spectral.AnalysisResult{SourceLabel: filepath.Base(path)}, nil
	})

	events := drain(t, coordinator.Submit(context.Background(), []string{"ok1.wav", "broken.wav", "ok2.wav"}))
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	if _, ok := events[0].(FileSucceeded); !ok {
		t.Fatalf("expected FileSucceeded first, got %T", events[0])
	}
	failed, ok := events[1].(FileFailed)
	if !ok {
		t.Fatalf("expected FileFailed second, got %T", events[1])
	}
	if failed.Path != "broken.wav" || failed.Message != "unreadable payload" {
		t.Fatalf("unexpected failure event: %+v", failed)
	}
	if _, ok := events[2].(FileSucceeded); !ok {
		t.Fatalf("a failure must not abort the rest of the job, got %T", events[2])
	}
	if _, ok := events[3].(JobCompleted); !ok {
		t.Fatalf("expected JobCompleted last, got %T", events[3])
	}
}

func TestCancelStopsBetweenFiles(t *testing.T) {
	t.Parallel()

	started := make(chan string, 3)
	release := make(chan struct{})
	coordinator := newTestCoordinator(func(path string) (*spectral.AnalysisResult, error) {
		started <- path
		<-release
		return &spectral.AnalysisResult{SourceLabel: path}, nil
	})

	job := coordinator.Submit(context.Background(), []string{"a.wav", "b.wav", "c.wav"})

	<-started // a.wav is now in flight
	job.Cancel()
	close(release) // let the in-flight file finish

	events := drain(t, job)
	if len(events) != 2 {
		t.Fatalf("expected the in-flight result plus JobCancelled, got %d events", len(events))
	}
	succeeded, ok := events[0].(FileSucceeded)
	if !ok || succeeded.Path != "a.wav" {
		t.Fatalf("expected the in-flight file's event first, got %#v", events[0])
	}
	if _, ok := events[1].(JobCancelled); !ok {
		t.Fatalf("expected terminal JobCancelled, got %T", events[1])
	}
	if len(started) != 0 {
		t.Fatal("no further file may start after cancellation")
	}
}

func TestParentContextCancelsJob(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	coordinator := newTestCoordinator(func(string) (*spectral.AnalysisResult, error) {
		t.Error("no file may start under a cancelled context")
		return nil, nil
	})

	events := drain(t, coordinator.Submit(ctx, []string{"a.wav"}))
	if len(events) != 1 {
		t.Fatalf("expected a single terminal event, got %d", len(events))
	}
	if _, ok := events[0].(JobCancelled); !ok {
		t.Fatalf("expected JobCancelled, got %T", events[0])
	}
}

func TestAnalyzeOneMapsErrorsToFileFailed(t *testing.T) {
	t.Parallel()

	coordinator := newTestCoordinator(func(path string) (*spectral.AnalysisResult, error) {
		return nil, fmt.Errorf("failed to decode %s: boom", path)
	})

	failed, ok := coordinator.AnalyzeOne("x.wav").(FileFailed)
	if !ok {
		t.Fatal("expected FileFailed for an analyzer error")
	}
	if failed.Path != "x.wav" || failed.Message == "" {
		t.Fatalf("expected the error text to be carried, got %+v", failed)
	}
}

func TestAcceptPrecomputedSkipsAnalysis(t *testing.T) {
	t.Parallel()

	coordinator := newTestCoordinator(func(string) (*spectral.AnalysisResult, error) {
		t.Error("a precomputed result must not trigger analysis")
		return nil, nil
	})

	result := &spectral.AnalysisResult{SourceLabel: "done.wav", QualityFlag: true}
	succeeded, ok := coordinator.AcceptPrecomputed("done.wav", result).(FileSucceeded)
	if !ok {
		t.Fatal("expected FileSucceeded for a precomputed result")
	}
	if succeeded.Result != result {
		t.Fatal("expected the supplied result to pass through unchanged")
	}

	if _, ok := coordinator.AcceptPrecomputed("done.wav", nil).(FileFailed); !ok {
		t.Fatal("expected FileFailed when no result is supplied")
	}
}

func TestCollectAudioFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatalf("failed to create nested dir: %v", err)
	}
	for _, name := range []string{"b.wav", "a.flac", "notes.txt", filepath.Join("nested", "deep.wav")} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	single := filepath.Join(dir, "b.wav")

	files, err := CollectAudioFiles([]string{dir, single})
	if err != nil {
		t.Fatalf("CollectAudioFiles returned error: %v", err)
	}

	want := []string{filepath.Join(dir, "a.flac"), filepath.Join(dir, "b.wav"), single}
	if len(files) != len(want) {
		t.Fatalf("expected %v, got %v", want, files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], files[i])
		}
	}
}

func TestCollectMissingInputFails(t *testing.T) {
	t.Parallel()

	_, err := CollectAudioFiles([]string{filepath.Join(t.TempDir(), "ghost")})
	if err == nil {
		t.Fatal("expected error for a missing input")
	}
}
