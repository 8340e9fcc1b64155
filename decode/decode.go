// Package decode turns audio files into mono float64 samples at their
// native sample rate.
//
// Each supported container format registers a DecodeFunc for its file
// extension; Decode looks the extension up, runs the format decoder and
// collapses multi-channel content into a single channel by averaging.
// Samples are normalized to [-1, 1] but downstream analysis does not
// depend on that scale.
//
// Supported formats: WAV, AIFF/AIF, MP3, OGG (Vorbis) and FLAC.
package decode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrUnsupportedFormat marks a file extension no registered decoder handles.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrInvalidFile marks a file whose payload could not be decoded.
	ErrInvalidFile = errors.New("invalid or corrupt audio file")
)

// Audio bundles decoded PCM samples with their context.
type Audio struct {
	Samples    []float64
	SampleRate int
	Duration   float64
}

// DecodeFunc decodes one container format into mono samples.
type DecodeFunc func(f *os.File) (*Audio, error)

var registry = map[string]DecodeFunc{}

// Register binds a file extension (leading dot, lower case) to a decoder.
// Formats register themselves at package init.
func Register(ext string, fn DecodeFunc) {
	registry[ext] = fn
}

// SupportedExtensions returns the registered extensions in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(registry))
	for ext := range registry {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supported reports whether the path's extension has a registered decoder.
// The match is case-insensitive.
func Supported(path string) bool {
	_, ok := registry[normalizeExt(path)]
	return ok
}

func normalizeExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// Decode reads the file at path into mono samples at the file's native
// sample rate. Unknown extensions fail with ErrUnsupportedFormat; payloads
// the format decoder rejects fail with ErrInvalidFile.
func Decode(path string) (*Audio, error) {
	fn, ok := registry[normalizeExt(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	audio, err := fn(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if audio.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: missing sample rate", ErrInvalidFile)
	}

	audio.Duration = float64(len(audio.Samples)) / float64(audio.SampleRate)
	return audio, nil
}

// downmix collapses interleaved multi-channel samples into one channel by
// averaging. Mono input is returned unchanged; a trailing partial frame is
// dropped.
func downmix(samples []float64, channels int) []float64 {
	if channels <= 1 {
		return samples
	}

	frames := len(samples) / channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		base := i * channels
		for c := 0; c < channels; c++ {
			sum += samples[base+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}
