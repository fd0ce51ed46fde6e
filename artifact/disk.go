package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/hupe1980/agenttree/core"
)

var _ core.Workspace = (*DiskStore)(nil)

// DiskStore is a Workspace rooted at a project directory on the local
// filesystem. Errors from the os package are translated to this package's
// sentinels where a match exists so callers can test with errors.Is.
type DiskStore struct {
	root     string
	filePerm fs.FileMode
	dirPerm  fs.FileMode
}

// DiskOptions configures a DiskStore.
type DiskOptions struct {
	FilePerm fs.FileMode
	DirPerm  fs.FileMode
}

// NewDiskStore returns a store rooted at dir. The directory must exist.
func NewDiskStore(dir string, optFns ...func(o *DiskOptions)) (*DiskStore, error) {
	opts := DiskOptions{FilePerm: 0o644, DirPerm: 0o755}
	for _, fn := range optFns {
		fn(&opts)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve project root: %w", err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open project root: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("open project root %s: %w", abs, ErrNotDir)
	}
	return &DiskStore{root: abs, filePerm: opts.FilePerm, dirPerm: opts.DirPerm}, nil
}

// Root returns the absolute project directory.
func (s *DiskStore) Root() string { return s.root }

func (s *DiskStore) abs(p string) (string, error) {
	if !core.Within(p) {
		return "", ErrOutsideRoot
	}
	return filepath.Join(s.root, filepath.FromSlash(core.CleanPath(p))), nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%w: %v", ErrExists, err)
	default:
		return err
	}
}

// ReadFile returns the file content.
func (s *DiskStore) ReadFile(p string) ([]byte, error) {
	full, err := s.abs(p)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(full)
	if err != nil {
		return nil, translate(err)
	}
	if fi.IsDir() {
		return nil, ErrIsDir
	}
	data, err := os.ReadFile(full)
	return data, translate(err)
}

// WriteFile creates or truncates the file. The parent must exist.
func (s *DiskStore) WriteFile(p string, data []byte) error {
	full, err := s.abs(p)
	if err != nil {
		return err
	}
	if fi, err := os.Stat(full); err == nil && fi.IsDir() {
		return ErrIsDir
	}
	return translate(os.WriteFile(full, data, s.filePerm))
}

// CreateFile creates a new file and fails with ErrExists when p exists.
func (s *DiskStore) CreateFile(p string, data []byte) error {
	full, err := s.abs(p)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, s.filePerm)
	if err != nil {
		return translate(err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Mkdir creates p and any missing parents.
func (s *DiskStore) Mkdir(p string) error {
	full, err := s.abs(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(full, s.dirPerm); err != nil {
		if errors.Is(err, syscall.ENOTDIR) {
			return ErrNotDir
		}
		return translate(err)
	}
	return nil
}

// Remove deletes a file or a directory tree. The root cannot be removed.
func (s *DiskStore) Remove(p string) error {
	full, err := s.abs(p)
	if err != nil {
		return err
	}
	if full == s.root {
		return ErrOutsideRoot
	}
	if _, err := os.Lstat(full); err != nil {
		return translate(err)
	}
	return translate(os.RemoveAll(full))
}

// Stat describes p.
func (s *DiskStore) Stat(p string) (core.Entry, error) {
	full, err := s.abs(p)
	if err != nil {
		return core.Entry{}, err
	}
	fi, err := os.Stat(full)
	if err != nil {
		return core.Entry{}, translate(err)
	}
	return core.Entry{Name: core.BasePath(p), Dir: fi.IsDir()}, nil
}

// ReadDir lists the direct children of directory p sorted by name.
func (s *DiskStore) ReadDir(p string) ([]core.Entry, error) {
	full, err := s.abs(p)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(full)
	if err != nil {
		return nil, translate(err)
	}
	if !fi.IsDir() {
		return nil, ErrNotDir
	}
	des, err := os.ReadDir(full)
	if err != nil {
		return nil, translate(err)
	}
	entries := make([]core.Entry, 0, len(des))
	for _, de := range des {
		entries = append(entries, core.Entry{Name: de.Name(), Dir: de.IsDir()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
