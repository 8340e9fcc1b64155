package decode

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	mp3 "github.com/hajimehoshi/go-mp3"
)

func init() {
	Register(".mp3", decodeMP3)
}

// go-mp3 always emits 16-bit little-endian stereo frames regardless of the
// source channel layout, so every frame is 4 bytes wide.
func decodeMP3(f *os.File) (*Audio, error) {
	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	const frameBytes = 4
	frames := len(data) / frameBytes
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		left := int16(binary.LittleEndian.Uint16(data[i*frameBytes:]))
		right := int16(binary.LittleEndian.Uint16(data[i*frameBytes+2:]))
		samples[i] = (float64(left) + float64(right)) / 2 / 32768
	}

	return &Audio{
		Samples:    samples,
		SampleRate: decoder.SampleRate(),
	}, nil
}
