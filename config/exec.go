package config

import (
	"fmt"
	"os"
	"os/exec"
)

// DetectExecPath is the execPath setting that asks for autodetection.
const DetectExecPath = "default"

// ExecutableName is looked up on PATH during autodetection.
const ExecutableName = "cucumber-explorer"

// ResolveExecPath returns the worker executable for an execPath setting. An
// empty setting means the running executable; DetectExecPath prefers an
// explorer binary on PATH.
func ResolveExecPath(value string) (string, error) {
	switch value {
	case "":
		return currentExecutable()
	case DetectExecPath:
		if p, err := exec.LookPath(ExecutableName); err == nil {
			return p, nil
		}
		return currentExecutable()
	default:
		return value, nil
	}
}

func currentExecutable() (string, error) {
	p, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate explorer executable: %w", err)
	}
	return p, nil
}
