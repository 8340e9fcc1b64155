// Package render draws spectrogram artifacts from precomputed magnitude
// matrices.
//
// The drawn dB scale is referenced to the matrix's own maximum: 0 dB is the
// loudest point of the rendered file, not an absolute level. Per-file
// normalization keeps the high-frequency shelf visible regardless of the
// file's overall loudness and must not be replaced by a global reference.
// The frequency axis is logarithmic, so the matrix rows are resampled onto
// an evenly spaced log10(Hz) grid before drawing.
package render

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"audio-inspector/spectral"
)

// ErrEmptyMatrix reports a spectral matrix with no rows or no frames.
var ErrEmptyMatrix = errors.New("empty spectral matrix")

// RenderConfig controls the artifact's dB range and geometry.
type RenderConfig struct {
	FloorDB  float64 // lowest rendered level, relative to the per-file maximum
	MinFreq  float64 // Hz; bottom of the logarithmic frequency axis
	LogBins  int     // rows of the log-resampled grid
	HopSize  int     // analysis hop, used to label the time axis in seconds
	WidthIn  float64 // output width in inches
	HeightIn float64 // output height in inches
}

// DefaultRenderConfig returns the reference rendering parameters.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		FloorDB:  -96,
		MinFreq:  20,
		LogBins:  256,
		HopSize:  512,
		WidthIn:  8,
		HeightIn: 4,
	}
}

// Render builds the spectrogram figure for a magnitude matrix. The matrix is
// indexed [frequency bin][time frame] and freqs carries one ascending Hz
// value per row.
func Render(matrix [][]float64, freqs []float64, sampleRate int, title string, cfg RenderConfig) (*plot.Plot, error) {
	grid, err := buildGrid(matrix, freqs, sampleRate, cfg)
	if err != nil {
		return nil, err
	}

	cmap := moreland.ExtendedBlackBody()
	cmap.SetMin(cfg.FloorDB)
	cmap.SetMax(0)

	heatmap := plotter.NewHeatMap(grid, cmap.Palette(255))
	heatmap.Min = cfg.FloorDB
	heatmap.Max = 0

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = grid.xLabel
	p.Y.Label.Text = "Frequency (Hz)"
	p.Y.Tick.Marker = logFreqTicks{}
	p.Add(heatmap)

	return p, nil
}

// RenderPNG renders an analysis result into a PNG artifact at outPath.
func RenderPNG(result *spectral.AnalysisResult, outPath string, cfg RenderConfig) error {
	p, err := Render(result.Matrix, result.Freqs, result.SampleRate, result.SourceLabel, cfg)
	if err != nil {
		return err
	}

	width := vg.Length(cfg.WidthIn) * vg.Inch
	height := vg.Length(cfg.HeightIn) * vg.Inch
	if err := p.Save(width, height, outPath); err != nil {
		return fmt.Errorf("failed to save spectrogram: %w", err)
	}
	return nil
}

// dbGrid adapts the log-resampled dB matrix to plotter.GridXYZ. Y values are
// log10(frequency) so rows land evenly spaced on the drawn axis.
type dbGrid struct {
	z      [][]float64 // [row][col]
	x      []float64   // per column: seconds, or frame index without a hop
	y      []float64   // per row: log10(frequency)
	xLabel string
}

func (g *dbGrid) Dims() (c, r int)   { return len(g.x), len(g.y) }
func (g *dbGrid) Z(c, r int) float64 { return g.z[r][c] }
func (g *dbGrid) X(c int) float64    { return g.x[c] }
func (g *dbGrid) Y(r int) float64    { return g.y[r] }

func buildGrid(matrix [][]float64, freqs []float64, sampleRate int, cfg RenderConfig) (*dbGrid, error) {
	if len(matrix) == 0 || len(matrix[0]) == 0 {
		return nil, ErrEmptyMatrix
	}
	if len(freqs) != len(matrix) {
		return nil, fmt.Errorf("frequency axis has %d entries for %d matrix rows", len(freqs), len(matrix))
	}

	frames := len(matrix[0])

	// Per-file reference level: the largest magnitude anywhere in the matrix.
	var max float64
	for _, row := range matrix {
		for _, v := range row {
			if v > max {
				max = v
			}
		}
	}

	nyquist := freqs[len(freqs)-1]
	minFreq := cfg.MinFreq
	if minFreq <= 0 || minFreq >= nyquist {
		minFreq = nyquist / 1000
	}
	rows := cfg.LogBins
	if rows <= 1 {
		rows = 256
	}

	logMin := math.Log10(minFreq)
	logMax := math.Log10(nyquist)

	z := make([][]float64, rows)
	y := make([]float64, rows)
	for r := 0; r < rows; r++ {
		logF := logMin + float64(r)/float64(rows-1)*(logMax-logMin)
		y[r] = logF
		bin := nearestBin(freqs, math.Pow(10, logF))
		z[r] = make([]float64, frames)
		for c := 0; c < frames; c++ {
			z[r][c] = toDB(matrix[bin][c], max, cfg.FloorDB)
		}
	}

	x := make([]float64, frames)
	xLabel := "Frame"
	if cfg.HopSize > 0 && sampleRate > 0 {
		secondsPerFrame := float64(cfg.HopSize) / float64(sampleRate)
		for c := range x {
			x[c] = float64(c) * secondsPerFrame
		}
		xLabel = "Time (s)"
	} else {
		for c := range x {
			x[c] = float64(c)
		}
	}

	return &dbGrid{z: z, x: x, y: y, xLabel: xLabel}, nil
}

// toDB maps a magnitude onto the dB scale anchored at the per-file maximum.
// Zero magnitudes and an all-zero matrix land on the floor.
func toDB(v, max, floor float64) float64 {
	if max <= 0 || v <= 0 {
		return floor
	}
	db := 20 * math.Log10(v/max)
	if db < floor {
		return floor
	}
	return db
}

// nearestBin maps a frequency onto the closest row of the linear axis.
func nearestBin(freqs []float64, f float64) int {
	if len(freqs) < 2 {
		return 0
	}
	step := freqs[1] - freqs[0]
	bin := int(math.Round(f / step))
	if bin < 0 {
		bin = 0
	}
	if bin >= len(freqs) {
		bin = len(freqs) - 1
	}
	return bin
}

// logFreqTicks labels the log10-frequency axis at round frequencies.
type logFreqTicks struct{}

func (logFreqTicks) Ticks(min, max float64) []plot.Tick {
	marks := []struct {
		hz    float64
		label string
	}{
		{20, "20"}, {50, "50"}, {100, "100"}, {200, "200"}, {500, "500"},
		{1000, "1k"}, {2000, "2k"}, {5000, "5k"}, {10000, "10k"},
		{16000, "16k"}, {20000, "20k"}, {40000, "40k"},
	}

	var ticks []plot.Tick
	for _, m := range marks {
		v := math.Log10(m.hz)
		if v < min || v > max {
			continue
		}
		ticks = append(ticks, plot.Tick{Value: v, Label: m.label})
	}
	return ticks
}
