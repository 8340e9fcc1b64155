package decode

import (
	"fmt"
	"os"

	"github.com/go-audio/aiff"
)

func init() {
	Register(".aiff", decodeAIFF)
	Register(".aif", decodeAIFF)
}

func decodeAIFF(f *os.File) (*Audio, error) {
	decoder := aiff.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: not a valid AIFF file", ErrInvalidFile)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("%w: missing common chunk", ErrInvalidFile)
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth <= 0 {
		bitDepth = 16
	}

	scale := float64(int64(1) << uint(bitDepth-1))
	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float64(v) / scale
	}

	return &Audio{
		Samples:    downmix(samples, buf.Format.NumChannels),
		SampleRate: buf.Format.SampleRate,
	}, nil
}
