// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a sane console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// The packaging pipeline accepts a context everywhere and extracts the logger
// from it, so each stage logs under its own component name. The --verbose CLI
// flag lowers the global level to debug, which is where external command
// output is streamed.
package logger
