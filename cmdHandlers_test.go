package main

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

func clearInspectorEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"INSPECTOR_QUALITY_THRESHOLD",
		"INSPECTOR_HIGH_FREQ_CUTOFF",
		"INSPECTOR_WINDOW_SIZE",
		"INSPECTOR_HOP_SIZE",
		"INSPECTOR_RENDER_FLOOR_DB",
	} {
		t.Setenv(key, "")
	}
}

func TestAnalysisConfigFromEnvDefaults(t *testing.T) {
	clearInspectorEnv(t)

	cfg := analysisConfigFromEnv()
	if cfg.WindowSize != 1024 || cfg.HopSize != 512 {
		t.Errorf("expected default window/hop 1024/512, got %d/%d", cfg.WindowSize, cfg.HopSize)
	}
	if cfg.HighFreqCutoff != 16000 {
		t.Errorf("expected default cutoff 16000, got %f", cfg.HighFreqCutoff)
	}
	if cfg.QualityThreshold != 0.01 {
		t.Errorf("expected default threshold 0.01, got %f", cfg.QualityThreshold)
	}
}

func TestAnalysisConfigFromEnvOverrides(t *testing.T) {
	clearInspectorEnv(t)
	t.Setenv("INSPECTOR_QUALITY_THRESHOLD", "0.05")
	t.Setenv("INSPECTOR_HIGH_FREQ_CUTOFF", "18000")
	t.Setenv("INSPECTOR_WINDOW_SIZE", "2048")
	t.Setenv("INSPECTOR_HOP_SIZE", "1024")

	cfg := analysisConfigFromEnv()
	if cfg.QualityThreshold != 0.05 {
		t.Errorf("threshold override not applied, got %f", cfg.QualityThreshold)
	}
	if cfg.HighFreqCutoff != 18000 {
		t.Errorf("cutoff override not applied, got %f", cfg.HighFreqCutoff)
	}
	if cfg.WindowSize != 2048 || cfg.HopSize != 1024 {
		t.Errorf("window/hop overrides not applied, got %d/%d", cfg.WindowSize, cfg.HopSize)
	}
}

func TestAnalysisConfigFromEnvIgnoresInvalidValues(t *testing.T) {
	clearInspectorEnv(t)
	t.Setenv("INSPECTOR_QUALITY_THRESHOLD", "lots")
	t.Setenv("INSPECTOR_HIGH_FREQ_CUTOFF", "-3")
	t.Setenv("INSPECTOR_WINDOW_SIZE", "1")

	cfg := analysisConfigFromEnv()
	if cfg.QualityThreshold != 0.01 || cfg.HighFreqCutoff != 16000 || cfg.WindowSize != 1024 {
		t.Errorf("invalid overrides must keep the defaults, got %+v", cfg)
	}
}

func TestRenderConfigFromEnv(t *testing.T) {
	clearInspectorEnv(t)
	t.Setenv("INSPECTOR_RENDER_FLOOR_DB", "-120")

	analysisCfg := analysisConfigFromEnv()
	analysisCfg.HopSize = 256

	cfg := renderConfigFromEnv(analysisCfg)
	if cfg.FloorDB != -120 {
		t.Errorf("floor override not applied, got %f", cfg.FloorDB)
	}
	if cfg.HopSize != 256 {
		t.Errorf("expected the analysis hop to carry into rendering, got %d", cfg.HopSize)
	}
}

func TestArtifactTarget(t *testing.T) {
	t.Parallel()

	got := artifactTarget("artifacts", filepath.Join("music", "deep house", "track.flac"))
	want := filepath.Join("artifacts", "track.png")
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	writeJSONError(rec, 422, "unable to analyze")

	if rec.Code != 422 {
		t.Errorf("expected status 422, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}
	var payload apiError
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if payload.Message != "unable to analyze" {
		t.Errorf("unexpected message %q", payload.Message)
	}
}
