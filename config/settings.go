package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SettingsFile is read from the root of each workspace folder.
const SettingsFile = ".cucumber-explorer.yaml"

// Settings is the host configuration surface of one workspace folder.
type Settings struct {
	// Working directory, relative to the workspace folder.
	Cwd string `yaml:"cwd"`

	// Profile picked from the profiles file (default "default").
	Profile string `yaml:"profile"`

	// Environment overrides; a null value removes the variable.
	Env map[string]any `yaml:"env"`

	// Worker executable; "default" autodetects, empty uses the running binary.
	ExecPath string `yaml:"execPath"`

	// Extra arguments placed before the worker subcommand.
	ExecArgv []string `yaml:"execArgv"`

	// Enables the diagnostic log.
	LogPanel bool `yaml:"logpanel"`

	// Level of the diagnostic log (default "info").
	LogLevel string `yaml:"logLevel"`
}

// SettingsSource provides the settings of a workspace folder.
type SettingsSource interface {
	Settings(workspace string) (Settings, error)
}

// FileSettings reads SettingsFile from the workspace folder. A missing file
// yields zero settings.
type FileSettings struct{}

func (FileSettings) Settings(workspace string) (Settings, error) {
	return ReadSettings(filepath.Join(workspace, SettingsFile))
}

// StaticSettings returns the same settings for every workspace.
type StaticSettings Settings

func (s StaticSettings) Settings(string) (Settings, error) {
	return Settings(s), nil
}

func ReadSettings(path string) (Settings, error) {
	var s Settings

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}
