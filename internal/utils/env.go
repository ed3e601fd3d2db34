package utils

import (
	"os"
	"strconv"
	"time"
)

// GetEnvString gets a string from environment variable with a default fallback
func GetEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets an integer from environment variable with a default fallback
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvBool gets a boolean from environment variable with a default fallback
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetEnvDuration gets a duration from environment variable with a default fallback.
// The value is interpreted as a number of seconds.
func GetEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

// GetEnvPort gets a port number from environment variable with validation
func GetEnvPort(key string, defaultValue int) int {
	port := GetEnvInt(key, defaultValue)
	if port < 1 || port > 65535 {
		return defaultValue
	}
	return port
}

// IsProduction checks if the application is running in production mode
func IsProduction() bool {
	env := GetEnvString("ENVIRONMENT", "development")
	return env == "production" || env == "prod"
}
