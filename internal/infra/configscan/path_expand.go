package configscan

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var windowsEnvPattern = regexp.MustCompile(`%([A-Za-z_][A-Za-z0-9_()]*)%`)

// expandPath resolves a leading "~" and environment references in pattern.
// Unset variables are left in place so the resulting path simply does not
// exist; their names are returned for logging.
func expandPath(pattern string) (string, []string) {
	missing := make(map[string]struct{})

	expanded := expandHome(strings.TrimSpace(pattern))
	expanded = expandEnvWithTracking(expanded, missing)
	expanded = windowsEnvPattern.ReplaceAllStringFunc(expanded, func(ref string) string {
		key := strings.Trim(ref, "%")
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		missing[key] = struct{}{}
		return ref
	})

	if expanded == "" {
		return "", missingList(missing)
	}
	return filepath.Clean(expanded), missingList(missing)
}

func expandHome(value string) string {
	if value != "~" && !strings.HasPrefix(value, "~/") && !strings.HasPrefix(value, `~\`) {
		return value
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return value
	}
	if value == "~" {
		return home
	}
	return filepath.Join(home, value[2:])
}

func expandEnvWithTracking(value string, missing map[string]struct{}) string {
	if !strings.Contains(value, "$") {
		return value
	}
	return os.Expand(value, func(key string) string {
		if val, ok := os.LookupEnv(key); ok {
			return val
		}
		missing[key] = struct{}{}
		return "$" + key
	})
}

func missingList(missing map[string]struct{}) []string {
	if len(missing) == 0 {
		return nil
	}
	names := make([]string, 0, len(missing))
	for name := range missing {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
