package utils

import (
	"os"
	"strconv"
	"time"
)

// EnvInt reads an integer env var, falling back to def when unset or unparsable.
func EnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	iv, err := strconv.Atoi(v)
	if err != nil || iv < 0 {
		return def
	}
	return iv
}

// EnvSeconds reads an env var holding a number of seconds as a duration.
func EnvSeconds(key string, defSeconds int) time.Duration {
	return time.Duration(EnvInt(key, defSeconds)) * time.Second
}
