package config

import (
	"fmt"
	"strings"
)

// ResolveEnv overlays overrides on a KEY=value environment. A nil override
// removes the variable; any other value is stored in its string form.
func ResolveEnv(base []string, overrides map[string]any) map[string]string {
	env := make(map[string]string, len(base)+len(overrides))
	for _, kv := range base {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}

	for k, v := range overrides {
		if v == nil {
			delete(env, k)
			continue
		}
		env[k] = fmt.Sprint(v)
	}
	return env
}
