package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/Code-Grump/vscode-cucumber-test-adapter/logging"
)

// DefaultProfile is used when the settings name none.
const DefaultProfile = "default"

// Loader resolves the configuration of one workspace folder.
type Loader struct {
	workspace string
	settings  SettingsSource
	log       *logging.Log

	// environ supplies the inherited environment
	environ func() []string
}

func NewLoader(workspace string, settings SettingsSource, log *logging.Log) *Loader {
	if settings == nil {
		settings = FileSettings{}
	}
	return &Loader{
		workspace: workspace,
		settings:  settings,
		log:       log,
		environ:   os.Environ,
	}
}

// Load reads the current settings and profiles. A missing or unreadable
// profiles file is the same as having none; errors from the cucumber
// arguments of the chosen profile are returned.
func (l *Loader) Load(ctx context.Context) (*Configuration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	settings, err := l.settings.Settings(l.workspace)
	if err != nil {
		return nil, err
	}

	cwd := filepath.Clean(filepath.Join(l.workspace, settings.Cwd))
	if filepath.IsAbs(settings.Cwd) {
		cwd = filepath.Clean(settings.Cwd)
	}

	profileName := settings.Profile
	if profileName == "" {
		profileName = DefaultProfile
	}

	var args []string
	profiles, profilesPath, err := LoadProfiles(cwd)
	if err == nil {
		if l.log.Enabled() {
			l.log.Debug("Using profiles file: %s", profilesPath)
		}
		if profileArgs, ok := profiles[profileName]; ok {
			if l.log.Enabled() {
				l.log.Debug("Using profile: %s", profileName)
			}
			args = profileArgs
		}
	}

	config, err := Build(args, cwd)
	if err != nil {
		return nil, err
	}

	if l.log.Enabled() {
		overrides, _ := json.Marshal(settings.Env)
		l.log.Debug("Using environment variable config: %s", overrides)
	}
	env := ResolveEnv(l.environ(), settings.Env)

	execPath, err := ResolveExecPath(settings.ExecPath)
	if err != nil {
		return nil, err
	}
	if l.log.Enabled() {
		l.log.Debug("Using execPath: %s", execPath)
	}

	execArgv := settings.ExecArgv
	if execArgv == nil {
		execArgv = []string{}
	}
	if l.log.Enabled() {
		argv, _ := json.Marshal(execArgv)
		l.log.Debug("Using executable arguments: %s", argv)
	}

	config.ProfileName = profileName
	config.Env = env
	config.ExecPath = execPath
	config.ExecArgv = execArgv

	return config, nil
}
