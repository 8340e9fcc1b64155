package reports

import (
	"testing"
	"time"

	"audio-inspector/models"
)

func TestSaveAndLoadReports(t *testing.T) {
	t.Setenv("INSPECTOR_REPORT_DIR", t.TempDir())

	reports, err := LoadReports()
	if err != nil {
		t.Fatalf("LoadReports on an empty store returned error: %v", err)
	}
	if len(reports) != 0 {
		t.Fatalf("expected empty store, got %d reports", len(reports))
	}

	report := &models.JobReport{
		JobID:     "job-42",
		StartedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Inputs:    3,
		Succeeded: 2,
		Failed:    1,
		Files: []models.FileOutcome{
			{Path: "/music/a.wav", SourceLabel: "a.wav", SampleRate: 96000, QualityFlag: true, HighEnergyRatio: 0.2},
			{Path: "/music/b.wav", SourceLabel: "b.wav", SampleRate: 44100, HighEnergyRatio: 0.001},
			{Path: "/music/c.ogg", SourceLabel: "c.ogg", Error: "invalid or corrupt audio file"},
		},
	}
	if err := SaveReport(report); err != nil {
		t.Fatalf("SaveReport returned error: %v", err)
	}
	if report.FinishedAt.IsZero() {
		t.Error("expected SaveReport to stamp FinishedAt")
	}

	second := &models.JobReport{JobID: "job-43", StartedAt: time.Now(), Cancelled: true}
	if err := SaveReport(second); err != nil {
		t.Fatalf("SaveReport returned error: %v", err)
	}

	reports, err = LoadReports()
	if err != nil {
		t.Fatalf("LoadReports returned error: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(reports))
	}
	if reports[0].JobID != "job-42" || len(reports[0].Files) != 3 {
		t.Fatalf("first report did not round-trip: %+v", reports[0])
	}
	if reports[0].Files[2].Error == "" {
		t.Error("expected the per-file failure to round-trip")
	}
	if !reports[1].Cancelled {
		t.Error("expected the cancelled marker to round-trip")
	}
}
