// Package logging provides a minimal logging interface and adapters.
//
// The Logger interface defines the leveled, key/value structured methods
// (Debug, Info, Warn, Error) the tree, interpreter and engine use. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping log/slog
//   - ZapAdapter wrapping a go.uber.org/zap sugared logger
//   - NoOpLogger for silent operation (the default everywhere)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", os.Stderr)
//	eng, err := engine.New(tree, reasoner, func(o *engine.Options) { o.Logger = logger })
package logging
