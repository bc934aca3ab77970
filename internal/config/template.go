package config

import (
	"sort"
	"strings"
)

// Template resolves $VARIABLE references over a small fixed variable set
// ($NAME, $VERSION, $PLATFORM). Replacement order is longest key first, so a
// variable can never shadow a longer one that shares its prefix.
type Template struct {
	vars map[string]string
}

// NewTemplate returns an empty template processor.
func NewTemplate() *Template {
	return &Template{vars: make(map[string]string)}
}

// Register adds a variable with its value.
func (t *Template) Register(key, value string) {
	t.vars[key] = value
}

// Expand resolves all registered $VARIABLE references in the input.
func (t *Template) Expand(input string) string {
	keys := make([]string, 0, len(t.vars))
	for key := range t.vars {
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}

		return keys[i] < keys[j]
	})

	result := input
	for _, key := range keys {
		result = strings.ReplaceAll(result, "$"+key, t.vars[key])
	}

	return result
}

// ExpandAll resolves references in every element of the input.
func (t *Template) ExpandAll(input []string) []string {
	out := make([]string, 0, len(input))
	for _, s := range input {
		out = append(out, t.Expand(s))
	}

	return out
}
