package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"audio-inspector/batch"
	"audio-inspector/db"
	"audio-inspector/decode"
	"audio-inspector/models"
	"audio-inspector/render"
	"audio-inspector/reports"
	"audio-inspector/spectral"
	"audio-inspector/utils"

	socketio "github.com/googollee/go-socket.io"
	"github.com/mdobak/go-xerrors"
)

type socketController struct {
	mu          sync.Mutex
	coordinator *batch.Coordinator
	analysisCfg spectral.AnalysisConfig
	renderCfg   render.RenderConfig
	artifactDir string
	jobs        map[string]*batch.Job
}

func newSocketController(coordinator *batch.Coordinator, analysisCfg spectral.AnalysisConfig, renderCfg render.RenderConfig, artifactDir string) *socketController {
	return &socketController{
		coordinator: coordinator,
		analysisCfg: analysisCfg,
		renderCfg:   renderCfg,
		artifactDir: artifactDir,
		jobs:        make(map[string]*batch.Job),
	}
}

func (c *socketController) registerJob(job *batch.Job) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs[job.ID] = job
}

func (c *socketController) dropJob(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.jobs, id)
}

func (c *socketController) lookupJob(id string) *batch.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jobs[id]
}

func (c *socketController) emitInspectorInfo(socket socketio.Conn) {
	socket.Emit("inspectorInfo", map[string]interface{}{
		"supportedExtensions": decode.SupportedExtensions(),
		"threshold":           c.analysisCfg.QualityThreshold,
		"highFreqCutoff":      c.analysisCfg.HighFreqCutoff,
	})
}

// handleAnalyzeFile analyzes a single file and answers with the same typed
// events a batch scan would deliver for it.
func (c *socketController) handleAnalyzeFile(socket socketio.Conn, payload string) {
	logger := utils.GetLogger()
	ctx := context.Background()

	var req models.AnalyzeRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to parse analyze payload", slog.Any("error", err))
		socket.Emit("analysisError", map[string]string{"message": "invalid analyze payload"})
		return
	}
	if req.Path == "" {
		socket.Emit("analysisError", map[string]string{"message": "no path supplied"})
		return
	}

	log.Printf("[handleAnalyzeFile] Analyzing %s for socket %s\n", req.Path, socket.ID())
	started := time.Now()

	event := c.coordinator.AnalyzeOne(req.Path)
	c.emitEvent(socket, "", event)

	logger.InfoContext(ctx, "single file analysis finished",
		slog.String("socketID", socket.ID()),
		slog.String("path", req.Path),
		slog.Float64("latency_ms", time.Since(started).Seconds()*1000),
	)
}

// handleStartScan runs a full batch job for the socket, streaming one event
// per file and a terminal event, then persists the job report.
func (c *socketController) handleStartScan(socket socketio.Conn, payload string) {
	logger := utils.GetLogger()
	ctx := context.Background()

	var req models.ScanRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to parse scan payload", slog.Any("error", err))
		socket.Emit("analysisError", map[string]string{"message": "invalid scan payload"})
		return
	}

	files, err := batch.CollectAudioFiles(req.Paths)
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to collect audio files", slog.Any("error", err))
		socket.Emit("analysisError", map[string]string{"message": "failed to collect audio files: " + err.Error()})
		return
	}

	job := c.coordinator.Submit(ctx, files)
	c.registerJob(job)
	defer c.dropJob(job.ID)

	socket.Emit("jobStarted", map[string]interface{}{
		"jobID":     job.ID,
		"fileCount": len(files),
	})
	log.Printf("[handleStartScan] Job %s started with %d file(s) for socket %s\n", job.ID, len(files), socket.ID())
	logger.InfoContext(ctx, "batch scan started",
		slog.String("socketID", socket.ID()),
		slog.String("jobID", job.ID),
		slog.Int("fileCount", len(files)),
	)

	report := &models.JobReport{JobID: job.ID, StartedAt: time.Now(), Inputs: len(files)}
	for ev := range job.Events() {
		c.emitEvent(socket, job.ID, ev)

		switch event := ev.(type) {
		case batch.FileSucceeded:
			report.Succeeded++
			report.Files = append(report.Files, models.FileOutcome{
				Path:            event.Path,
				SourceLabel:     event.Result.SourceLabel,
				SampleRate:      event.Result.SampleRate,
				HighEnergyRatio: event.Result.HighEnergyRatio,
				QualityFlag:     event.Result.QualityFlag,
			})
		case batch.FileFailed:
			report.Failed++
			report.Files = append(report.Files, models.FileOutcome{
				Path:        event.Path,
				SourceLabel: filepath.Base(event.Path),
				Error:       event.Message,
			})
		case batch.JobCancelled:
			report.Cancelled = true
		}
	}

	report.FinishedAt = time.Now()
	if err := reports.SaveReport(report); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to save job report", slog.Any("error", err))
	}

	logger.InfoContext(ctx, "batch scan finished",
		slog.String("socketID", socket.ID()),
		slog.String("jobID", job.ID),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Bool("cancelled", report.Cancelled),
	)
}

func (c *socketController) handleCancelScan(socket socketio.Conn, payload string) {
	logger := utils.GetLogger()
	ctx := context.Background()

	var req models.CancelRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to parse cancel payload", slog.Any("error", err))
		socket.Emit("analysisError", map[string]string{"message": "invalid cancel payload"})
		return
	}

	job := c.lookupJob(req.JobID)
	if job == nil {
		socket.Emit("analysisError", map[string]string{"message": "unknown job: " + req.JobID})
		return
	}

	job.Cancel()
	log.Printf("[handleCancelScan] Cancellation requested for job %s by socket %s\n", req.JobID, socket.ID())
}

// handleRenderArtifact renders a spectrogram PNG from a result the client
// already holds, without re-running the analysis.
func (c *socketController) handleRenderArtifact(socket socketio.Conn, payload string) {
	logger := utils.GetLogger()
	ctx := context.Background()

	var req models.PrecomputedRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to parse render payload", slog.Any("error", err))
		socket.Emit("analysisError", map[string]string{"message": "invalid render payload"})
		return
	}

	event := c.coordinator.AcceptPrecomputed(req.Path, req.Result)
	failed, ok := event.(batch.FileFailed)
	if ok {
		socket.Emit("fileFailed", failed)
		return
	}
	succeeded := event.(batch.FileSucceeded)

	if err := utils.CreateFolder(c.artifactDir); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to create artifact directory", slog.Any("error", err))
		socket.Emit("analysisError", map[string]string{"message": "failed to create artifact directory"})
		return
	}

	base := filepath.Base(req.Path)
	target := filepath.Join(c.artifactDir, strings.TrimSuffix(base, filepath.Ext(base))+".png")
	if err := render.RenderPNG(succeeded.Result, target, c.renderCfg); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to render artifact",
			slog.String("path", req.Path), slog.Any("error", err))
		socket.Emit("analysisError", map[string]string{"message": "failed to render artifact"})
		return
	}

	log.Printf("[handleRenderArtifact] Rendered %s for socket %s\n", target, socket.ID())
	socket.Emit("artifactReady", map[string]string{
		"path":     req.Path,
		"artifact": target,
	})
}

func (c *socketController) handleRequestHistory(socket socketio.Conn) {
	logger := utils.GetLogger()
	ctx := context.Background()

	client, err := db.NewDBClient()
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to open history store", slog.Any("error", err))
		socket.Emit("analysisError", map[string]string{"message": "history store unavailable"})
		return
	}
	defer client.Close()

	scans, err := client.RecentScans(50)
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to load scan history", slog.Any("error", err))
		socket.Emit("analysisError", map[string]string{"message": "failed to load scan history"})
		return
	}
	if scans == nil {
		scans = []models.ScanRecord{}
	}

	socket.Emit("scanHistory", scans)
}

// emitEvent maps a typed batch event onto its socket message and persists
// per-file outcomes to the history store.
func (c *socketController) emitEvent(socket socketio.Conn, jobID string, ev batch.Event) {
	switch event := ev.(type) {
	case batch.FileSucceeded:
		socket.Emit("fileSucceeded", event)
		c.persistScan(jobID, event.Path, event.Result, "")
	case batch.FileFailed:
		socket.Emit("fileFailed", event)
		c.persistScan(jobID, event.Path, nil, event.Message)
	case batch.JobCancelled:
		socket.Emit("jobCancelled", map[string]string{"jobID": jobID})
	case batch.JobCompleted:
		socket.Emit("jobCompleted", map[string]string{"jobID": jobID})
	}
}

func (c *socketController) persistScan(jobID, path string, result *spectral.AnalysisResult, failure string) {
	logger := utils.GetLogger()
	ctx := context.Background()

	client, err := db.NewDBClient()
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to open history store", slog.Any("error", err))
		return
	}
	defer client.Close()

	record := &models.ScanRecord{
		Timestamp:   time.Now(),
		JobID:       jobID,
		Path:        path,
		SourceLabel: filepath.Base(path),
		Error:       failure,
	}
	if result != nil {
		record.SourceLabel = result.SourceLabel
		record.SampleRate = result.SampleRate
		record.HighEnergyRatio = result.HighEnergyRatio
		record.Threshold = result.Threshold
		record.QualityFlag = result.QualityFlag
	}

	if err := client.StoreScan(record); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to store scan record", slog.Any("error", err))
	}
}
