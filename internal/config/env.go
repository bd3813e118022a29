// Package config provides centralized configuration management.
// All environment lookups for capgen go through here.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// CapgenEnv holds all capgen environment variables.
type CapgenEnv struct {
	// APIURL is the caption service base URL (CAPGEN_API_URL)
	APIURL string

	// Home overrides the capgen home directory (CAPGEN_HOME)
	Home string

	// HTTPTimeout is the outbound request timeout (CAPGEN_TIMEOUT, seconds, 0 = none)
	HTTPTimeout time.Duration

	// Debug enables verbose structured logging (CAPGEN_DEBUG)
	Debug bool
}

var (
	env     *CapgenEnv
	envOnce sync.Once
)

// Env returns the singleton environment configuration.
// Thread-safe, loads once on first call. A ~/.capgen/.env file, if
// present, is merged in first without overriding the real environment.
func Env() *CapgenEnv {
	envOnce.Do(func() {
		// Ignore a missing .env file; only explicit settings matter.
		_ = godotenv.Load(GetPaths().EnvFile)

		env = &CapgenEnv{
			APIURL:      getEnvDefault("CAPGEN_API_URL", "http://localhost:8000"),
			Home:        os.Getenv("CAPGEN_HOME"),
			HTTPTimeout: getEnvSeconds("CAPGEN_TIMEOUT", 0),
			Debug:       os.Getenv("CAPGEN_DEBUG") == "1",
		}
	})
	return env
}

// ResetEnv resets the cached environment and paths (for testing).
func ResetEnv() {
	envOnce = sync.Once{}
	env = nil
	pathsOnce = sync.Once{}
	paths = nil
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

// Paths holds standard capgen file locations.
type Paths struct {
	// Home is the capgen home directory (~/.capgen)
	Home string

	// SessionFile is the persisted session (~/.capgen/session.json)
	SessionFile string

	// EnvFile is the .env file path (~/.capgen/.env)
	EnvFile string

	// Data is the local cache directory (~/.capgen/data)
	Data string
}

var (
	paths     *Paths
	pathsOnce sync.Once
)

// GetPaths returns the singleton paths configuration.
// CAPGEN_HOME overrides the default ~/.capgen root.
func GetPaths() *Paths {
	pathsOnce.Do(func() {
		root := os.Getenv("CAPGEN_HOME")
		if root == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				home = "."
			}
			root = filepath.Join(home, ".capgen")
		}

		paths = &Paths{
			Home:        root,
			SessionFile: filepath.Join(root, "session.json"),
			EnvFile:     filepath.Join(root, ".env"),
			Data:        filepath.Join(root, "data"),
		}
	})
	return paths
}

// Path returns a path under the capgen home directory.
func Path(parts ...string) string {
	p := GetPaths()
	allParts := append([]string{p.Home}, parts...)
	return filepath.Join(allParts...)
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
