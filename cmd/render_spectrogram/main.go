package main

import (
	"flag"
	"log"
	"path/filepath"
	"strings"

	"audio-inspector/render"
	"audio-inspector/spectral"
)

// Renders the log-frequency spectrogram of one audio file straight to PNG,
// bypassing the server. Handy for eyeballing what the analyzer sees.
func main() {
	in := flag.String("in", "", "Audio file to analyze")
	out := flag.String("out", "", "Target PNG path (default: input name with .png)")
	floor := flag.Float64("floor", -96, "Dynamic range floor in dB relative to the file maximum")
	cutoff := flag.Float64("cutoff", 16000, "High-frequency cutoff in Hz used for the quality ratio")
	flag.Parse()

	if *in == "" {
		log.Fatal("Usage: go run . -in <audio file> [-out <png>] [-floor <dB>] [-cutoff <Hz>]")
	}

	cfg := spectral.DefaultAnalysisConfig()
	if *cutoff > 0 {
		cfg.HighFreqCutoff = *cutoff
	}

	result, err := spectral.Analyze(*in, cfg)
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}

	target := *out
	if target == "" {
		target = strings.TrimSuffix(*in, filepath.Ext(*in)) + ".png"
	}

	renderCfg := render.DefaultRenderConfig()
	renderCfg.HopSize = cfg.HopSize
	if *floor < 0 {
		renderCfg.FloorDB = *floor
	}

	if err := render.RenderPNG(result, target, renderCfg); err != nil {
		log.Fatalf("failed to render spectrogram: %v", err)
	}

	log.Printf("✓ %s (rate=%d Hz ratio=%.4f flag=%v)", target, result.SampleRate, result.HighEnergyRatio, result.QualityFlag)
}
