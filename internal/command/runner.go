package command

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/oshokin/app-packager/internal/domain/pack"
	"github.com/oshokin/app-packager/internal/logger"
)

// errEmptyCommand is returned when a build command line contains no words.
var errEmptyCommand = errors.New("command line is empty")

// Run executes a program synchronously in the given working directory.
// Output is captured; on failure the returned error is a *pack.ToolError
// carrying the trimmed stderr for diagnosis. Stdout is streamed to the
// debug log so --verbose shows tool output live enough for a local tool.
func Run(ctx context.Context, dir, program string, args ...string) error {
	_, err := run(ctx, dir, program, args...)

	return err
}

// Output executes a program and returns its captured stdout.
func Output(ctx context.Context, dir, program string, args ...string) (string, error) {
	return run(ctx, dir, program, args...)
}

// RunLine splits a manifest build command line on whitespace and executes it.
// Quoting is intentionally not interpreted: build commands that need shell
// features should invoke the shell themselves.
func RunLine(ctx context.Context, dir, line string) error {
	words := strings.Fields(line)
	if len(words) == 0 {
		return errEmptyCommand
	}

	return Run(ctx, dir, words[0], words[1:]...)
}

func run(ctx context.Context, dir, program string, args ...string) (string, error) {
	logger.DebugKV(ctx, "Executing command", "program", program, "args", strings.Join(args, " "))

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, program, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if out := strings.TrimSpace(stdout.String()); out != "" {
		logger.Debugf(ctx, "%s output:\n%s", program, out)
	}

	if err != nil {
		return "", &pack.ToolError{
			Tool:   program,
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}

	return stdout.String(), nil
}
