package decode

import (
	"fmt"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

func init() {
	Register(".ogg", decodeVorbis)
}

func decodeVorbis(f *os.File) (*Audio, error) {
	data, format, err := oggvorbis.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if format.Channels <= 0 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidFile)
	}

	samples := make([]float64, len(data))
	for i, v := range data {
		samples[i] = float64(v)
	}

	return &Audio{
		Samples:    downmix(samples, format.Channels),
		SampleRate: format.SampleRate,
	}, nil
}
