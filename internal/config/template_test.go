package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestTemplateExpansion verifies variable substitution across the fixed set.
func TestTemplateExpansion(t *testing.T) {
	t.Parallel()

	tpl := NewTemplate()
	tpl.Register("VERSION", "1.0.0")
	tpl.Register("PLATFORM", "macos")

	require.Equal(t, "app-1.0.0-macos.dmg", tpl.Expand("app-$VERSION-$PLATFORM.dmg"))
}

// TestTemplateMultipleOccurrences checks repeated references of one variable.
func TestTemplateMultipleOccurrences(t *testing.T) {
	t.Parallel()

	tpl := NewTemplate()
	tpl.Register("NAME", "test")

	require.Equal(t, "test-test", tpl.Expand("$NAME-$NAME"))
}

// TestTemplateLongestKeyWins guards the replacement order for variables
// sharing a prefix.
func TestTemplateLongestKeyWins(t *testing.T) {
	t.Parallel()

	tpl := NewTemplate()
	tpl.Register("NAME", "short")
	tpl.Register("NAMEFULL", "long")

	require.Equal(t, "long-short", tpl.Expand("$NAMEFULL-$NAME"))
}

// TestTemplateExpandAll covers list expansion used for build commands.
func TestTemplateExpandAll(t *testing.T) {
	t.Parallel()

	tpl := NewTemplate()
	tpl.Register("NAME", "myapp")

	got := tpl.ExpandAll([]string{"go build -o $NAME", "strip $NAME"})
	require.Equal(t, []string{"go build -o myapp", "strip myapp"}, got)
}
