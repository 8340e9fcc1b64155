package main

import (
	"flag"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Generates the synthetic WAV fixtures used by the manual smoke checks:
// a pure 1 kHz tone at 44.1 kHz (no content above the cutoff), broadband
// white noise at 48 kHz (plenty of content above the cutoff), and an 800 Hz
// tone at 22.05 kHz whose Nyquist sits below the cutoff entirely.
func main() {
	outDir := flag.String("out", "testdata", "Directory to write fixture WAV files into")
	seconds := flag.Float64("seconds", 3, "Duration of each fixture in seconds")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	fixtures := []struct {
		name string
		rate int
		gen  func(i int, rate int) float64
	}{
		{
			name: "sine_1khz_44100.wav",
			rate: 44100,
			gen: func(i, rate int) float64 {
				return 0.8 * math.Sin(2*math.Pi*1000*float64(i)/float64(rate))
			},
		},
		{
			name: "white_noise_48000.wav",
			rate: 48000,
			gen: func() func(int, int) float64 {
				rng := rand.New(rand.NewSource(42))
				return func(int, int) float64 { return rng.Float64()*1.6 - 0.8 }
			}(),
		},
		{
			name: "tone_22050.wav",
			rate: 22050,
			gen: func(i, rate int) float64 {
				return 0.8 * math.Sin(2*math.Pi*800*float64(i)/float64(rate))
			},
		},
	}

	for _, f := range fixtures {
		target := filepath.Join(*outDir, f.name)
		n := int(float64(f.rate) * *seconds)

		samples := make([]float64, n)
		for i := range samples {
			samples[i] = f.gen(i, f.rate)
		}

		if err := writeWAV(target, samples, f.rate); err != nil {
			log.Fatalf("failed to write %s: %v", target, err)
		}
		log.Printf("✓ %s (%d Hz, %d samples)", target, f.rate, n)
	}
}

func writeWAV(path string, samples []float64, rate int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		SourceBitDepth: 16,
		Data:           make([]int, len(samples)),
	}
	for i, s := range samples {
		buf.Data[i] = int(s * 32767)
	}

	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
