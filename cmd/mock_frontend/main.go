package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"audio-inspector/decode"
	"audio-inspector/models"
	"audio-inspector/spectral"
)

// Drives the HTTP analyze endpoint the way the web frontend would, one file
// at a time, and prints the verdicts.
func main() {
	dir := flag.String("dir", "testdata", "Directory containing audio files to submit (ignored if -file is set)")
	file := flag.String("file", "", "Single audio file to submit (overrides -dir)")
	endpoint := flag.String("url", "http://localhost:5000/api/analyze", "Analyze endpoint")
	delay := flag.Duration("delay", 2*time.Second, "Delay between submissions when using -dir")
	flag.Parse()

	files, err := resolveFiles(*file, *dir)
	if err != nil {
		log.Fatalf("failed to resolve files: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("no supported audio files found (file=%s dir=%s)", *file, *dir)
	}

	fmt.Printf("Submitting %d file(s) to %s\n\n", len(files), *endpoint)
	for idx, path := range files {
		if err := submitFile(path, *endpoint); err != nil {
			log.Printf("submission failed for %s: %v\n", path, err)
		}

		if idx < len(files)-1 && *delay > 0 {
			time.Sleep(*delay)
		}
	}
}

func resolveFiles(single, dir string) ([]string, error) {
	if single != "" {
		return []string{single}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !decode.Supported(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

func submitFile(path, endpoint string) error {
	fmt.Printf("→ %s\n", filepath.Base(path))

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	payload, err := json.Marshal(models.AnalyzeRequest{Path: abs})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("post analyze request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var result spectral.AnalysisResult
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("decode analysis response: %w", err)
	}

	verdict := "· below threshold"
	if result.QualityFlag {
		verdict = "✓ high quality"
	}
	fmt.Printf("   %s  ratio=%.4f rate=%d Hz (threshold %.3f)\n",
		verdict, result.HighEnergyRatio, result.SampleRate, result.Threshold)

	return nil
}
