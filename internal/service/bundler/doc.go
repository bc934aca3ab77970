// Package bundler is the packaging workflow entry point: it guards against
// concurrent runs, loads and expands the manifest, executes build commands,
// stages the application tree and hands it to the packager selected for the
// target platform.
package bundler
