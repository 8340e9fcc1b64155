package utils

import "os"

// GetEnv retrieves the value of the environment variable named by key,
// falling back to fallback when the variable is unset or empty.
func GetEnv(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
