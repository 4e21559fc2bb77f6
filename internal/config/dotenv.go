package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"

	"github.com/teemow/tweetbridge/internal/logging"
)

// DefaultEnvFiles are looked up relative to the working directory.
var DefaultEnvFiles = []string{".env", "../.env"}

// EnvFiles applies .env files to the process environment.
//
// Variables already present in the environment when a file is applied win
// over the file. Among files, the first one that defines a key wins. Keys
// set by EnvFiles are tracked so Reload can update or remove them.
type EnvFiles struct {
	paths  []string
	logger logging.Logger

	mu      sync.Mutex
	applied map[string]string
}

// NewEnvFiles returns a loader for the given files. A nil logger discards output.
func NewEnvFiles(paths []string, logger logging.Logger) *EnvFiles {
	if logger == nil {
		logger = logging.Discard()
	}
	cleaned := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			cleaned = append(cleaned, filepath.Clean(p))
		}
	}
	return &EnvFiles{
		paths:   cleaned,
		logger:  logger,
		applied: make(map[string]string),
	}
}

// Paths returns the configured file paths.
func (e *EnvFiles) Paths() []string {
	return append([]string(nil), e.paths...)
}

// Load applies every existing file and returns the ones that were read.
// Missing files are skipped; unreadable or malformed files are an error.
func (e *EnvFiles) Load() ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	values, loaded, err := e.read()
	if err != nil {
		return nil, err
	}
	e.apply(values)
	return loaded, nil
}

// Reload re-reads all files. Changed keys are updated, keys that disappeared
// from every file are unset. Variables that did not come from a file are
// left untouched.
func (e *EnvFiles) Reload() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	values, loaded, err := e.read()
	if err != nil {
		return err
	}

	for key := range e.applied {
		if _, still := values[key]; !still {
			if err := os.Unsetenv(key); err != nil {
				return fmt.Errorf("failed to unset %s: %w", key, err)
			}
			delete(e.applied, key)
			e.logger.Debug("environment variable removed", "key", key)
		}
	}
	changed := e.apply(values)

	e.logger.Info("environment files reloaded", "files", loaded, "changed", changed)
	return nil
}

// read merges all existing files, first definition wins.
func (e *EnvFiles) read() (map[string]string, []string, error) {
	merged := make(map[string]string)
	var loaded []string

	for _, path := range e.paths {
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, nil, fmt.Errorf("failed to read env file %s: %w", path, err)
		}
		loaded = append(loaded, path)
		for k, v := range values {
			if _, seen := merged[k]; !seen {
				merged[k] = v
			}
		}
	}
	return merged, loaded, nil
}

// apply sets values not owned by the outer environment and returns how many changed.
func (e *EnvFiles) apply(values map[string]string) int {
	changed := 0
	for key, value := range values {
		previous, ours := e.applied[key]
		if !ours {
			if _, external := os.LookupEnv(key); external {
				continue
			}
		} else if previous == value {
			continue
		}

		if err := os.Setenv(key, value); err != nil {
			e.logger.Warn("failed to set environment variable", "key", key, logging.Err(err))
			continue
		}
		e.applied[key] = value
		changed++
	}
	return changed
}
