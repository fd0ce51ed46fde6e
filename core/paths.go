package core

import (
	"path"
	"strings"
)

// RootPath is the canonical identity of the root coordinator.
const RootPath = ""

// CleanPath canonicalizes a project-relative path: slash separated, no
// leading "./" or "/", no trailing slash. The project root is "".
func CleanPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// JoinPath joins path elements and canonicalizes the result.
func JoinPath(elem ...string) string {
	return CleanPath(path.Join(elem...))
}

// ParentPath returns the canonical parent of p. The parent of a top-level
// entry is the project root "".
func ParentPath(p string) string {
	p = CleanPath(p)
	if p == "" {
		return ""
	}
	dir := path.Dir(p)
	if dir == "." {
		return ""
	}
	return dir
}

// BasePath returns the last element of p.
func BasePath(p string) string {
	p = CleanPath(p)
	if p == "" {
		return ""
	}
	return path.Base(p)
}

// IsDirectChild reports whether child sits exactly one level below parent.
func IsDirectChild(parent, child string) bool {
	child = CleanPath(child)
	if child == "" {
		return false
	}
	return ParentPath(child) == CleanPath(parent)
}

// Within reports whether p, resolved against the project root, stays inside
// it. Paths that climb above the root with ".." are rejected.
func Within(p string) bool {
	p = strings.ReplaceAll(p, "\\", "/")
	if strings.HasPrefix(p, "/") {
		return false
	}
	c := path.Clean(p)
	return c != ".." && !strings.HasPrefix(c, "../")
}

// DisplayPath renders a canonical path for humans; the root becomes "/".
func DisplayPath(p string) string {
	if p == RootPath {
		return "/"
	}
	return p
}
