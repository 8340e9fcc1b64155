// Package reports persists batch job summaries. Every finished or cancelled
// job appends one JobReport to a JSON file so past scan sessions can be
// reviewed. Access is serialized by a package-level lock; jobs finish rarely
// enough that contention does not matter.
package reports

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"audio-inspector/models"
	"audio-inspector/utils"
)

const reportsFile = "reports.json"

var mu sync.RWMutex

func reportsPath() string {
	return filepath.Join(utils.GetEnv("INSPECTOR_REPORT_DIR", "storage"), reportsFile)
}

// loadReportsInternal reads the report list without locking.
func loadReportsInternal() ([]models.JobReport, error) {
	path := reportsPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return []models.JobReport{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading reports file: %v", err)
	}
	if len(data) == 0 {
		return []models.JobReport{}, nil
	}

	var reports []models.JobReport
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("error unmarshaling reports: %v", err)
	}
	return reports, nil
}

// LoadReports returns every persisted job report, oldest first.
func LoadReports() ([]models.JobReport, error) {
	mu.RLock()
	defer mu.RUnlock()
	return loadReportsInternal()
}

// SaveReport appends one job report to the store, stamping FinishedAt when
// the caller left it unset.
func SaveReport(report *models.JobReport) error {
	mu.Lock()
	defer mu.Unlock()

	reports, err := loadReportsInternal()
	if err != nil {
		return err
	}

	if report.FinishedAt.IsZero() {
		report.FinishedAt = time.Now()
	}
	reports = append(reports, *report)

	path := reportsPath()
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := utils.CreateFolder(dir); err != nil {
			return fmt.Errorf("error creating reports directory: %v", err)
		}
	}

	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling reports: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing reports file: %v", err)
	}
	return nil
}
