package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var envRef = regexp.MustCompile(`\$\$|\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} references using lookup. Every referenced
// variable must be set; "$$" is a literal "$". A bare $VAR is left alone
// so URLs and patterns pass through untouched.
func expandEnv(s string, lookup func(string) (string, bool)) (string, error) {
	var missing []string
	out := envRef.ReplaceAllStringFunc(s, func(m string) string {
		if m == "$$" {
			return "$"
		}
		name := m[2 : len(m)-1]
		v, ok := lookup(name)
		if !ok {
			missing = append(missing, name)
			return m
		}
		return v
	})

	if len(missing) > 0 {
		slices.Sort(missing)
		missing = slices.Compact(missing)
		return "", fmt.Errorf("%w: missing environment variables: %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}
	return out, nil
}
