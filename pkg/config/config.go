// Package config provides YAML-based configuration loading with environment variable expansion.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Load overlays the YAML file onto target, expanding ${VAR} references
// first, then validates target if it implements Validator. Fields absent
// from the file keep the values target already holds.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	return Parse(filename, data, target)
}

// LoadOptional behaves like Load but treats a missing file as empty, so
// target keeps its defaults. Validation still runs.
func LoadOptional[T any](filename string, target *T) (bool, error) {
	data, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return false, validate(target)
	}
	if err != nil {
		return false, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	return true, Parse(filename, data, target)
}

// Parse decodes already-read YAML. name is used in error messages only.
func Parse[T any](name string, data []byte, target *T) error {
	expandedData := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", name, err)
	}
	return validate(target)
}

func validate[T any](target *T) error {
	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}
