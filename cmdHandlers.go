package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
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
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/mdobak/go-xerrors"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

type apiError struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Message: message})
}

// analysisConfigFromEnv builds the analyzer configuration, starting from the
// reference defaults and applying environment overrides that parse cleanly.
func analysisConfigFromEnv() spectral.AnalysisConfig {
	cfg := spectral.DefaultAnalysisConfig()

	if raw := utils.GetEnv("INSPECTOR_QUALITY_THRESHOLD", ""); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			cfg.QualityThreshold = v
		}
	}
	if raw := utils.GetEnv("INSPECTOR_HIGH_FREQ_CUTOFF", ""); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			cfg.HighFreqCutoff = v
		}
	}
	if raw := utils.GetEnv("INSPECTOR_WINDOW_SIZE", ""); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 1 {
			cfg.WindowSize = v
		}
	}
	if raw := utils.GetEnv("INSPECTOR_HOP_SIZE", ""); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			cfg.HopSize = v
		}
	}

	return cfg
}

func renderConfigFromEnv(analysisCfg spectral.AnalysisConfig) render.RenderConfig {
	cfg := render.DefaultRenderConfig()
	cfg.HopSize = analysisCfg.HopSize

	if raw := utils.GetEnv("INSPECTOR_RENDER_FLOOR_DB", ""); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v < 0 {
			cfg.FloorDB = v
		}
	}

	return cfg
}

// newAnalyzeHandler accepts POST {"path": "..."} and answers with the full
// analysis result, or 422 when the file could not be analyzed.
func newAnalyzeHandler(coordinator *batch.Coordinator) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req models.AnalyzeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.ErrorContext(ctx, "failed to parse request body", slog.Any("error", err))
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
		if req.Path == "" {
			writeJSONError(w, http.StatusBadRequest, "no path supplied")
			return
		}

		started := time.Now()
		switch event := coordinator.AnalyzeOne(req.Path).(type) {
		case batch.FileSucceeded:
			log.Printf("[HTTP] analyzed %s in %.0fms (ratio=%.4f flag=%v)\n",
				req.Path, time.Since(started).Seconds()*1000,
				event.Result.HighEnergyRatio, event.Result.QualityFlag)
			writeJSON(w, http.StatusOK, event.Result)
		case batch.FileFailed:
			logger.ErrorContext(ctx, "analysis failed",
				slog.String("path", event.Path),
				slog.String("message", event.Message),
			)
			writeJSONError(w, http.StatusUnprocessableEntity, event.Message)
		}
	}
}

// newScansHandler serves the stored scan history, newest first.
func newScansHandler() http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if v, err := strconv.Atoi(raw); err == nil && v > 0 {
				limit = v
			}
		}

		client, err := db.NewDBClient()
		if err != nil {
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "failed to open history store", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "history store unavailable")
			return
		}
		defer client.Close()

		scans, err := client.RecentScans(limit)
		if err != nil {
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "failed to load scan history", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "failed to load scan history")
			return
		}
		if scans == nil {
			scans = []models.ScanRecord{}
		}

		writeJSON(w, http.StatusOK, scans)
	}
}

// newReportsHandler serves the stored batch job reports.
func newReportsHandler() http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		jobReports, err := reports.LoadReports()
		if err != nil {
			logger.ErrorContext(ctx, "failed to load job reports", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "failed to load job reports")
			return
		}

		writeJSON(w, http.StatusOK, jobReports)
	}
}

func serve(protocol, port string) {
	protocol = strings.ToLower(protocol)
	var allowOriginFunc = func(r *http.Request) bool {
		return true
	}

	analysisCfg := analysisConfigFromEnv()
	renderCfg := renderConfigFromEnv(analysisCfg)
	artifactDir := utils.GetEnv("INSPECTOR_ARTIFACT_DIR", "artifacts")

	coordinator := batch.NewCoordinator(analysisCfg)
	controller := newSocketController(coordinator, analysisCfg, renderCfg, artifactDir)

	log.Printf("Analyzer ready [window=%d hop=%d cutoff=%.0f Hz threshold=%.3f]",
		analysisCfg.WindowSize, analysisCfg.HopSize, analysisCfg.HighFreqCutoff, analysisCfg.QualityThreshold)

	server := socketio.NewServer(&engineio.Options{
		PingTimeout:  60 * time.Second,
		PingInterval: 25 * time.Second,
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: allowOriginFunc,
			},
			&polling.Transport{
				CheckOrigin: allowOriginFunc,
			},
		},
	})

	server.OnConnect("/", func(socket socketio.Conn) error {
		socket.SetContext("")
		connURL := socket.URL()
		log.Printf("CONNECTED: %s, transport: %s, remote addr: %s\n", socket.ID(), connURL.String(), socket.RemoteAddr())
		controller.emitInspectorInfo(socket)
		return nil
	})

	server.OnEvent("/", "requestInspectorInfo", func(socket socketio.Conn) {
		controller.emitInspectorInfo(socket)
	})

	server.OnEvent("/", "analyzeFile", func(socket socketio.Conn, msg string) {
		log.Printf("analyzeFile event received from %s\n", socket.ID())
		// Run handler in goroutine to prevent blocking, with panic recovery
		go withRecovery(socket, "analyzeFile", func() {
			controller.handleAnalyzeFile(socket, msg)
		})
	})

	server.OnEvent("/", "startScan", func(socket socketio.Conn, msg string) {
		log.Printf("startScan event received from %s\n", socket.ID())
		go withRecovery(socket, "startScan", func() {
			controller.handleStartScan(socket, msg)
		})
	})

	server.OnEvent("/", "cancelScan", func(socket socketio.Conn, msg string) {
		controller.handleCancelScan(socket, msg)
	})

	server.OnEvent("/", "renderArtifact", func(socket socketio.Conn, msg string) {
		go withRecovery(socket, "renderArtifact", func() {
			controller.handleRenderArtifact(socket, msg)
		})
	})

	server.OnEvent("/", "requestHistory", func(socket socketio.Conn) {
		controller.handleRequestHistory(socket)
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		log.Println("meet error:", e)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Printf("Socket disconnected - ID: %s, Reason: %s\n", s.ID(), reason)
	})

	go func() {
		if err := server.Serve(); err != nil {
			log.Fatalf("socketio listen error: %s\n", err)
		}
	}()
	defer server.Close()

	serveHTTPS := protocol == "https"

	analyzeHandler := newAnalyzeHandler(coordinator)
	scansHandler := newScansHandler()
	reportsHandler := newReportsHandler()
	mux := http.NewServeMux()
	mux.Handle("/socket.io/", server)
	mux.HandleFunc("/api/analyze", analyzeHandler)
	mux.HandleFunc("/api/scans", scansHandler)
	mux.HandleFunc("/api/reports", reportsHandler)
	mux.Handle("/artifacts/", http.StripPrefix("/artifacts/", http.FileServer(http.Dir(artifactDir))))
	mux.Handle("/", http.FileServer(http.Dir("static")))

	serveHTTP(server, serveHTTPS, port, mux)
}

// withRecovery keeps a panicking handler from taking the server down and
// tells the client something went wrong.
func withRecovery(socket socketio.Conn, event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic in %s handler for socket %s: %v\n", event, socket.ID(), r)
			socket.Emit("analysisError", map[string]string{"message": "internal server error during processing"})
		}
	}()
	fn()
}

func serveHTTP(socketServer *socketio.Server, serveHTTPS bool, port string, handler http.Handler) {
	if handler == nil {
		handler = socketServer
	}
	if serveHTTPS {
		httpsAddr := ":" + port
		httpsServer := &http.Server{
			Addr: httpsAddr,
			TLSConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			Handler: handler,
		}

		cert_key := utils.GetEnv("CERT_KEY", "")
		cert_file := utils.GetEnv("CERT_FILE", "")
		if cert_key == "" || cert_file == "" {
			log.Fatal("Missing cert")
		}

		log.Printf("Starting HTTPS server on %s\n", httpsAddr)
		if err := httpsServer.ListenAndServeTLS(cert_file, cert_key); err != nil {
			log.Fatalf("HTTPS server ListenAndServeTLS: %v", err)
		}
	}

	log.Printf("Starting HTTP server on port %v", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("HTTP server ListenAndServe: %v", err)
	}
}

func runScan(inputs []string, artifactsDir string, thresholdOverride float64, storeHistory bool) {
	logger := utils.GetLogger()
	ctx := context.Background()

	cfg := analysisConfigFromEnv()
	if thresholdOverride > 0 {
		cfg.QualityThreshold = thresholdOverride
	}
	renderCfg := renderConfigFromEnv(cfg)

	files, err := batch.CollectAudioFiles(inputs)
	if err != nil {
		log.Fatalf("failed to collect audio files: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("no supported audio files in %v (supported: %v)", inputs, decode.SupportedExtensions())
	}

	if artifactsDir != "" {
		if err := utils.CreateFolder(artifactsDir); err != nil {
			log.Fatalf("failed to create artifacts directory: %v", err)
		}
	}

	var store db.DBClient
	if storeHistory {
		store, err = db.NewDBClient()
		if err != nil {
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "history store unavailable, continuing without it", slog.Any("error", err))
			store = nil
		} else {
			defer store.Close()
		}
	}

	// Ctrl-C cancels the job between files; the file in flight still finishes.
	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	coordinator := batch.NewCoordinator(cfg)
	job := coordinator.Submit(signalCtx, files)

	log.Printf("Scanning %d file(s) [threshold=%.3f cutoff=%.0f Hz]\n", len(files), cfg.QualityThreshold, cfg.HighFreqCutoff)

	progress := mpb.New(mpb.WithWidth(64))
	bar := progress.AddBar(int64(len(files)),
		mpb.PrependDecorators(
			decor.Name("Scanning: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
		),
	)

	report := &models.JobReport{JobID: job.ID, StartedAt: time.Now(), Inputs: len(files)}
	var lines []string
	var flagged, belowThreshold, failed int

	for ev := range job.Events() {
		switch event := ev.(type) {
		case batch.FileSucceeded:
			result := event.Result

			artifactPath := ""
			if artifactsDir != "" {
				artifactPath = artifactTarget(artifactsDir, event.Path)
				if err := render.RenderPNG(result, artifactPath, renderCfg); err != nil {
					err := xerrors.New(err)
					logger.ErrorContext(ctx, "failed to render artifact",
						slog.String("path", event.Path), slog.Any("error", err))
					artifactPath = ""
				}
			}

			if store != nil {
				record := &models.ScanRecord{
					Timestamp:       time.Now(),
					JobID:           job.ID,
					Path:            event.Path,
					SourceLabel:     result.SourceLabel,
					SampleRate:      result.SampleRate,
					HighEnergyRatio: result.HighEnergyRatio,
					Threshold:       result.Threshold,
					QualityFlag:     result.QualityFlag,
					ArtifactPath:    artifactPath,
				}
				if err := store.StoreScan(record); err != nil {
					err := xerrors.New(err)
					logger.ErrorContext(ctx, "failed to store scan record", slog.Any("error", err))
				}
			}

			report.Succeeded++
			report.Files = append(report.Files, models.FileOutcome{
				Path:            event.Path,
				SourceLabel:     result.SourceLabel,
				SampleRate:      result.SampleRate,
				HighEnergyRatio: result.HighEnergyRatio,
				QualityFlag:     result.QualityFlag,
			})

			if result.QualityFlag {
				flagged++
				lines = append(lines, fmt.Sprintf("✓ %-46s ratio=%.4f rate=%d", result.SourceLabel, result.HighEnergyRatio, result.SampleRate))
			} else {
				belowThreshold++
				lines = append(lines, fmt.Sprintf("· %-46s ratio=%.4f rate=%d", result.SourceLabel, result.HighEnergyRatio, result.SampleRate))
			}
			bar.Increment()
		case batch.FileFailed:
			if store != nil {
				record := &models.ScanRecord{
					Timestamp:   time.Now(),
					JobID:       job.ID,
					Path:        event.Path,
					SourceLabel: filepath.Base(event.Path),
					Error:       event.Message,
				}
				if err := store.StoreScan(record); err != nil {
					err := xerrors.New(err)
					logger.ErrorContext(ctx, "failed to store scan record", slog.Any("error", err))
				}
			}

			report.Failed++
			report.Files = append(report.Files, models.FileOutcome{
				Path:        event.Path,
				SourceLabel: filepath.Base(event.Path),
				Error:       event.Message,
			})

			failed++
			lines = append(lines, fmt.Sprintf("✗ %-46s %s", filepath.Base(event.Path), event.Message))
			bar.Increment()
		case batch.JobCancelled:
			report.Cancelled = true
			bar.Abort(true)
		case batch.JobCompleted:
		}
	}
	progress.Wait()

	report.FinishedAt = time.Now()
	if err := reports.SaveReport(report); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to save job report", slog.Any("error", err))
	}

	fmt.Println()
	for _, line := range lines {
		fmt.Println(line)
	}
	fmt.Println()
	if report.Cancelled {
		fmt.Printf("Scan cancelled after %d of %d file(s).\n", report.Succeeded+report.Failed, report.Inputs)
	}
	fmt.Printf("%d high quality, %d below threshold, %d failed (threshold %.3f)\n",
		flagged, belowThreshold, failed, cfg.QualityThreshold)
}

// artifactTarget maps an input file onto its PNG artifact path.
func artifactTarget(dir, inputPath string) string {
	base := filepath.Base(inputPath)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+".png")
}

func runAnalyze(path, out string) {
	cfg := analysisConfigFromEnv()

	result, err := spectral.Analyze(path, cfg)
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}

	verdict := "below threshold"
	if result.QualityFlag {
		verdict = "high quality"
	}
	fmt.Printf("%s\n", result.SourceLabel)
	fmt.Printf("  sample rate:       %d Hz\n", result.SampleRate)
	fmt.Printf("  high-energy ratio: %.4f (threshold %.3f)\n", result.HighEnergyRatio, result.Threshold)
	fmt.Printf("  verdict:           %s\n", verdict)

	if out != "" {
		if err := render.RenderPNG(result, out, renderConfigFromEnv(cfg)); err != nil {
			log.Fatalf("failed to render spectrogram: %v", err)
		}
		fmt.Printf("  spectrogram:       %s\n", out)
	}
}

func runHistory(limit int) {
	client, err := db.NewDBClient()
	if err != nil {
		log.Fatalf("failed to open history store: %v", err)
	}
	defer client.Close()

	scans, err := client.RecentScans(limit)
	if err != nil {
		log.Fatalf("failed to load history: %v", err)
	}
	if len(scans) == 0 {
		fmt.Println("No scan history yet.")
		return
	}

	for _, s := range scans {
		when := s.Timestamp.Format("2006-01-02 15:04")
		if s.Error != "" {
			fmt.Printf("%s  ✗ %-46s %s\n", when, s.SourceLabel, s.Error)
			continue
		}
		verdict := "·"
		if s.QualityFlag {
			verdict = "✓"
		}
		fmt.Printf("%s  %s %-46s ratio=%.4f rate=%d\n", when, verdict, s.SourceLabel, s.HighEnergyRatio, s.SampleRate)
	}
}
