package config

import (
	"strings"
)

// CategoryConfig lets users merge category spellings. Keys are matched
// case-insensitively after trimming.
type CategoryConfig struct {
	Aliases map[string]string `toml:"aliases,omitempty"`
}

// Resolver returns a function mapping a category to its configured name,
// or to itself when no alias matches.
func (c CategoryConfig) Resolver() func(string) string {
	if len(c.Aliases) == 0 {
		return func(s string) string { return s }
	}
	m := make(map[string]string, len(c.Aliases))
	for from, to := range c.Aliases {
		m[normalizeCategoryKey(from)] = to
	}
	return func(s string) string {
		if to, ok := m[normalizeCategoryKey(s)]; ok {
			return to
		}
		return s
	}
}

func normalizeCategoryKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
