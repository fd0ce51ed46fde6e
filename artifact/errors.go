package artifact

import "errors"

var (
	// ErrNotFound is returned when a path does not exist in the store.
	ErrNotFound = errors.New("artifact not found")
	// ErrExists is returned when creating a node that already exists.
	ErrExists = errors.New("artifact already exists")
	// ErrIsDir is returned when a file operation targets a directory.
	ErrIsDir = errors.New("artifact is a directory")
	// ErrNotDir is returned when a directory operation targets a file, or a
	// parent component of a path is a file.
	ErrNotDir = errors.New("artifact is not a directory")
	// ErrOutsideRoot is returned for paths escaping the project root.
	ErrOutsideRoot = errors.New("path escapes project root")
)
