// Package command runs the external tools the pipeline depends on: manifest
// build commands, hdiutil and osascript. Every invocation is synchronous and
// captures stdout/stderr; failures surface as *pack.ToolError so callers can
// attach the tool output to their own stage errors.
package command
