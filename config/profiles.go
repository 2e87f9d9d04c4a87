package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProfileFiles are tried in order inside the working directory.
var ProfileFiles = []string{"cucumber.yaml", "cucumber.yml", "cucumber.json"}

// Profiles maps a profile name to its command line arguments.
type Profiles map[string][]string

// LoadProfiles reads the first profiles file present in cwd. Each profile is
// either one argument string, split on whitespace, or a list of arguments.
func LoadProfiles(cwd string) (Profiles, string, error) {
	for _, name := range ProfileFiles {
		path := filepath.Join(cwd, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, path, fmt.Errorf("parse profiles %s: %w", path, err)
		}

		profiles := make(Profiles, len(raw))
		for profile, v := range raw {
			switch args := v.(type) {
			case string:
				profiles[profile] = strings.Fields(args)
			case []any:
				for _, a := range args {
					profiles[profile] = append(profiles[profile], fmt.Sprint(a))
				}
			case nil:
				profiles[profile] = nil
			default:
				return nil, path, fmt.Errorf("profile %q in %s: expected a string or a list", profile, path)
			}
		}
		return profiles, path, nil
	}
	return nil, "", os.ErrNotExist
}
