// Package env loads project configuration from the environment.
package env

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// LoadEnvironmentVariables loads the .env file or crashes the program with an error
func LoadEnvironmentVariables() {
	if err := godotenv.Load(".env"); err != nil {
		fmt.Fprintf(os.Stderr, ".env error: %s\n", err)
		os.Exit(1)
	}
}

// String reads an environment variable, falling back to a default.
func String(name string, fallback string) string {
	value := os.Getenv(name)

	if len(value) == 0 {
		return fallback
	}

	return value
}

// Bool reads a boolean environment variable. Only "true" and "1" count.
func Bool(name string, fallback bool) bool {
	value := os.Getenv(name)

	if len(value) == 0 {
		return fallback
	}

	return value == "true" || value == "1"
}

// Duration reads a duration environment variable, like "5m" or "30s".
// Unparseable values fall back to the default.
func Duration(name string, fallback time.Duration) time.Duration {
	value := os.Getenv(name)

	if len(value) == 0 {
		return fallback
	}

	duration, err := time.ParseDuration(value)

	if err != nil {
		return fallback
	}

	return duration
}

// Decimal reads a decimal environment variable. The fallback must be a valid
// decimal literal. Unparseable values fall back to the default.
func Decimal(name string, fallback string) decimal.Decimal {
	value := os.Getenv(name)

	if len(value) > 0 {
		parsed, err := decimal.NewFromString(value)

		if err == nil {
			return parsed
		}
	}

	return decimal.RequireFromString(fallback)
}
