package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads environment variables from a .env file. A missing file is
// not an error; the process environment still applies.
func LoadEnvFile(envFilePath ...string) error {
	envFile := ".env"
	if len(envFilePath) > 0 && envFilePath[0] != "" {
		envFile = envFilePath[0]
	}

	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		return nil
	}

	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("error loading %s file: %w", envFile, err)
	}

	return nil
}

// LoadEnvFromMultiplePaths attempts to load .env from multiple possible
// locations, stopping at the first that loads.
func LoadEnvFromMultiplePaths() error {
	possiblePaths := []string{
		".env",
		"configs/.env",
		"../.env",
	}

	for _, path := range possiblePaths {
		if err := LoadEnvFile(path); err != nil {
			continue
		}
		return nil
	}

	return nil
}
