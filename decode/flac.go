package decode

import (
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

func init() {
	Register(".flac", decodeFLAC)
}

func decodeFLAC(f *os.File) (*Audio, error) {
	stream, err := flac.New(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	info := stream.Info
	if info.NChannels == 0 {
		return nil, fmt.Errorf("%w: no channels", ErrInvalidFile)
	}
	scale := float64(int64(1) << uint(info.BitsPerSample-1))

	var mono []float64
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
		if len(frame.Subframes) == 0 {
			continue
		}

		blockSize := len(frame.Subframes[0].Samples)
		channels := float64(len(frame.Subframes))
		for i := 0; i < blockSize; i++ {
			var sum float64
			for _, sub := range frame.Subframes {
				sum += float64(sub.Samples[i])
			}
			mono = append(mono, sum/channels/scale)
		}
	}

	return &Audio{
		Samples:    mono,
		SampleRate: int(info.SampleRate),
	}, nil
}
