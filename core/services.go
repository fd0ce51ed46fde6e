package core

import "context"

// Reasoner is the external reasoning/completion service. It receives the
// rendered context and the numbered pending prompts and returns the raw
// response text. Failures are never retried by the orchestrator; they are
// fed back into the calling agent's next context.
type Reasoner interface {
	Call(ctx context.Context, contextText, prompts string) (string, error)
}

// ReasonerFunc adapts an ordinary function to the Reasoner interface.
type ReasonerFunc func(ctx context.Context, contextText, prompts string) (string, error)

// Call implements Reasoner.
func (f ReasonerFunc) Call(ctx context.Context, contextText, prompts string) (string, error) {
	return f(ctx, contextText, prompts)
}

// CommandResult captures the outcome of an executed command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Executor runs allow-listed commands relative to the project root.
type Executor interface {
	Run(ctx context.Context, command string) (CommandResult, error)
}

// Entry describes one workspace node.
type Entry struct {
	Name string
	Dir  bool
}

// Workspace exposes the raw filesystem primitives agents act upon. All
// paths are canonical project-relative paths (see CleanPath).
type Workspace interface {
	// ReadFile returns the content of a regular file.
	ReadFile(path string) ([]byte, error)
	// WriteFile creates or replaces a regular file; parent directories must exist.
	WriteFile(path string, data []byte) error
	// CreateFile creates a new regular file and fails if path exists.
	CreateFile(path string, data []byte) error
	// Mkdir creates a directory and any missing parents.
	Mkdir(path string) error
	// Remove deletes a file or a directory tree.
	Remove(path string) error
	// Stat describes path.
	Stat(path string) (Entry, error)
	// ReadDir lists the direct children of a directory sorted by name.
	ReadDir(path string) ([]Entry, error)
}
