package util

import (
	"os"
	"strconv"

	"github.com/lumen-edu/lumen/pkg/logger"

	"github.com/joho/godotenv"
)

// LoadEnv pulls a .env file into the process environment when one exists.
// A missing file is fine; deployed environments set variables directly.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using system environment variables")
	}
}

// GetEnv returns the variable's value, or "" when it is unset.
func GetEnv(key string) string {
	return os.Getenv(key)
}

// GetEnvString returns the variable's value, or defaultValue when it is
// unset. A set-but-empty variable wins over the default.
func GetEnvString(key string, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}

// GetEnvNumeric parses the variable as a number, falling back to
// defaultValue when it is unset or unparsable.
func GetEnvNumeric(key string, defaultValue int) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return float64(defaultValue)
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return float64(defaultValue)
	}
	return value
}

// GetEnvBool parses the variable as a boolean ("true", "false", "1", "0"),
// falling back to defaultValue when it is unset or unparsable.
func GetEnvBool(key string, defaultValue bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
