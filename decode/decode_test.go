package decode

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeWAV writes a 16-bit PCM WAV file with the given interleaved samples.
func writeWAV(t *testing.T, path string, samples []int, channels, sampleRate int) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("failed to write wav data: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to finalize wav: %v", err)
	}
}

func TestDecodeWAVMono(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tone.wav")
	samples := make([]int, 4410)
	for i := range samples {
		samples[i] = int(10000 * math.Sin(2*math.Pi*440*float64(i)/44100))
	}
	writeWAV(t, path, samples, 1, 44100)

	decoded, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if decoded.SampleRate != 44100 {
		t.Errorf("expected sample rate 44100, got %d", decoded.SampleRate)
	}
	if len(decoded.Samples) != len(samples) {
		t.Errorf("expected %d samples, got %d", len(samples), len(decoded.Samples))
	}
	if math.Abs(decoded.Duration-0.1) > 1e-6 {
		t.Errorf("expected duration 0.1s, got %f", decoded.Duration)
	}
	for i, v := range decoded.Samples {
		if v < -1.0 || v > 1.0 {
			t.Fatalf("sample %d outside [-1, 1]: %f", i, v)
		}
	}
}

func TestDecodeWAVStereoDownmix(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stereo.wav")
	// Left +8000 against right -8000 on every frame: the average must be ~0.
	frames := 1000
	samples := make([]int, 0, frames*2)
	for i := 0; i < frames; i++ {
		samples = append(samples, 8000, -8000)
	}
	writeWAV(t, path, samples, 2, 48000)

	decoded, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if decoded.SampleRate != 48000 {
		t.Errorf("expected sample rate 48000, got %d", decoded.SampleRate)
	}
	if len(decoded.Samples) != frames {
		t.Fatalf("expected %d mono frames, got %d", frames, len(decoded.Samples))
	}
	for i, v := range decoded.Samples {
		if math.Abs(v) > 1e-9 {
			t.Fatalf("frame %d: expected opposing channels to cancel, got %f", i, v)
		}
	}
}

func TestDecodeUnsupportedExtension(t *testing.T) {
	t.Parallel()

	_, err := Decode("track.m4a")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDecodeMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Decode(filepath.Join(t.TempDir(), "missing.wav"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestDecodeCorruptWAV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("definitely not a RIFF payload"), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	_, err := Decode(path)
	if !errors.Is(err, ErrInvalidFile) {
		t.Fatalf("expected ErrInvalidFile, got %v", err)
	}
}

func TestSupportedExtensions(t *testing.T) {
	t.Parallel()

	want := map[string]bool{
		".wav": true, ".aiff": true, ".aif": true,
		".mp3": true, ".ogg": true, ".flac": true,
	}
	got := SupportedExtensions()
	if len(got) != len(want) {
		t.Fatalf("expected %d extensions, got %v", len(want), got)
	}
	for _, ext := range got {
		if !want[ext] {
			t.Errorf("unexpected extension %s", ext)
		}
	}
	if !Supported("sets/track.FLAC") {
		t.Error("expected case-insensitive extension match")
	}
	if Supported("sets/liner-notes.txt") {
		t.Error("expected .txt to be unsupported")
	}
}

func TestDownmixDropsPartialFrame(t *testing.T) {
	t.Parallel()

	mono := downmix([]float64{1, 1, 0.5, 0.5, 0.25}, 2)
	if len(mono) != 2 {
		t.Fatalf("expected trailing partial frame to be dropped, got %d frames", len(mono))
	}
	if mono[0] != 1 || mono[1] != 0.5 {
		t.Fatalf("unexpected downmix values: %v", mono)
	}
}
