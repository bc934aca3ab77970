// Package version exposes build metadata injected via ldflags and a helper
// that attaches a `version` subcommand to the CLI.
package version
