package batch

import (
	"fmt"
	"os"
	"path/filepath"

	"audio-inspector/decode"
)

// CollectAudioFiles expands inputs into analyzable file paths. A directory
// contributes its directly contained audio files in name order; nested
// directories are not descended into. A plain file path is kept when its
// extension has a registered decoder and silently skipped otherwise. Input
// order is preserved.
func CollectAudioFiles(inputs []string) ([]string, error) {
	var files []string
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", input, err)
		}

		if !info.IsDir() {
			if decode.Supported(input) {
				files = append(files, input)
			}
			continue
		}

		entries, err := os.ReadDir(input)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", input, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(input, entry.Name())
			if decode.Supported(path) {
				files = append(files, path)
			}
		}
	}
	return files, nil
}
