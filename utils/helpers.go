package utils

import (
	"fmt"
	"math/rand"
	"os"
)

// CreateFolder creates the folder at the given path along with any missing
// parents. An existing folder is not an error.
func CreateFolder(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", path, err)
	}
	return nil
}

// GenerateUniqueID returns a random 32-bit identifier for scan jobs.
func GenerateUniqueID() uint32 {
	return rand.Uint32()
}
