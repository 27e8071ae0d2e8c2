package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// lookupEnv treats a variable set to an empty string as unset.
func lookupEnv(key string) (string, bool) {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

// GetEnvAsInt retrieves an environment variable and converts it to an integer
func GetEnvAsInt(key string, defaultVal int) int {
	if value, exists := lookupEnv(key); exists {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultVal
}

// GetEnvAsUint64 retrieves an environment variable and converts it to uint64
func GetEnvAsUint64(key string, defaultVal uint64) uint64 {
	if value, exists := lookupEnv(key); exists {
		if result, err := strconv.ParseUint(value, 10, 64); err == nil {
			return result
		}
	}
	return defaultVal
}

// GetEnvAsDuration accepts Go duration syntax ("300ms") or a bare number of seconds.
func GetEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	value, exists := lookupEnv(key)
	if !exists {
		return defaultVal
	}
	if result, err := time.ParseDuration(value); err == nil {
		return result
	}
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultVal
}

func GetEnvAsBool(key string, defaultVal bool) bool {
	if value, exists := lookupEnv(key); exists {
		if result, err := strconv.ParseBool(value); err == nil {
			return result
		}
	}
	return defaultVal
}

func GetEnvAsString(key string, defaultVal string) string {
	if value, exists := lookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// GetEnvAsSlice splits a comma separated variable, dropping empty items.
func GetEnvAsSlice(key string, defaultVal []string) []string {
	value, exists := lookupEnv(key)
	if !exists {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
