package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Built-in defaults for the interactive prompts.
const (
	DefaultMinDelay = 1 * time.Second
	DefaultMaxDelay = 2 * time.Second
)

// File holds optional per-user defaults loaded from a YAML file.
// Everything in it can still be overridden by flags or prompts.
type File struct {
	Count     int      `yaml:"count"`
	MinDelay  Duration `yaml:"min_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
	UserAgent string   `yaml:"user_agent"`
}

// Defaults returns the built-in defaults.
func Defaults() File {
	return File{
		MinDelay: Duration(DefaultMinDelay),
		MaxDelay: Duration(DefaultMaxDelay),
	}
}

// Normalize applies defaults to empty fields.
func (f File) Normalize() File {
	if f.MinDelay <= 0 {
		f.MinDelay = Duration(DefaultMinDelay)
	}
	if f.MaxDelay <= 0 {
		f.MaxDelay = Duration(DefaultMaxDelay)
	}
	return f
}

// Validate ensures the defaults are usable.
func (f File) Validate() error {
	if f.Count < 0 {
		return fmt.Errorf("count must not be negative")
	}
	if f.MaxDelay < f.MinDelay {
		return fmt.Errorf("max_delay %s is below min_delay %s", f.MaxDelay.Std(), f.MinDelay.Std())
	}
	return nil
}

// Load reads defaults from path. An empty path yields the built-in
// defaults.
func Load(path string) (File, error) {
	if path == "" {
		return Defaults(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read config: %w", err)
	}

	f := Defaults()
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return File{}, fmt.Errorf("parse config: %w", err)
	}
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return File{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return f, nil
}
