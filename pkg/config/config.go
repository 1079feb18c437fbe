// Package config provides YAML-based configuration loading with environment
// variable expansion and layered overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by configuration types that check themselves
// after loading.
type Validator interface {
	Validate() error
}

// Load reads filename, expands environment variables and decodes it into
// target. If target implements Validator it is validated.
func Load[T any](filename string, target *T) error {
	data, err := readExpanded(filename)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	return validate(target)
}

// LoadMerged deep-merges the given files in order, later files winning, and
// decodes the result into target. Missing files are skipped; at least one
// file must exist.
func LoadMerged[T any](target *T, filenames ...string) error {
	merged := map[string]any{}
	found := 0
	for _, name := range filenames {
		data, err := readExpanded(name)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		found++
		var layer map[string]any
		if err := yaml.Unmarshal(data, &layer); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", name, err)
		}
		merged = DeepMerge(merged, layer)
	}
	if found == 0 {
		return fmt.Errorf("no config file found in %v: %w", filenames, os.ErrNotExist)
	}

	data, err := yaml.Marshal(merged)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode merged config: %w", err)
	}
	return validate(target)
}

// DeepMerge returns base with override applied. Nested maps are merged,
// every other value in override replaces the one in base.
func DeepMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		bm, bok := out[k].(map[string]any)
		om, ook := v.(map[string]any)
		if bok && ook {
			out[k] = DeepMerge(bm, om)
			continue
		}
		out[k] = v
	}
	return out
}

func readExpanded(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	return []byte(os.ExpandEnv(string(data))), nil
}

func validate[T any](target *T) error {
	if v, ok := any(target).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}
