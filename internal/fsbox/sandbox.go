package fsbox

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathViolation is returned for any request that would reach outside the
// sandbox root: traversal, null bytes, symlinks pointing out, or a path that
// cannot be resolved at all. Callers map it to a generic access-denied
// response; the resolved absolute path never leaves this package.
var ErrPathViolation = errors.New("path violation")

// Sandbox confines relative paths to a single root directory. The root is
// canonicalized once at construction; every Resolve re-checks containment.
type Sandbox struct {
	root string
}

// NewSandbox creates the root directory if needed and canonicalizes it.
func NewSandbox(root string) (*Sandbox, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	canon, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(canon)
	if err != nil {
		return nil, err
	}
	return &Sandbox{root: abs}, nil
}

// Root returns the canonical sandbox root.
func (s *Sandbox) Root() string { return s.root }

// Name returns the display name of the sandbox top, used as the synthetic
// root breadcrumb.
func (s *Sandbox) Name() string { return filepath.Base(s.root) }

// Resolve joins rel onto the root, canonicalizes the result, and verifies the
// outcome is still inside the root. Containment is segment-aware: /data/filesA
// is not inside root /data/files.
func (s *Sandbox) Resolve(rel string) (string, error) {
	if strings.ContainsRune(rel, 0) {
		return "", ErrPathViolation
	}
	joined := filepath.Join(s.root, filepath.FromSlash(rel))
	canon, err := canonicalize(joined)
	if err != nil {
		return "", ErrPathViolation
	}
	if !contains(s.root, canon) {
		return "", ErrPathViolation
	}
	return canon, nil
}

// Rel converts a resolved absolute path back to the sandbox-relative form
// used in responses, always with forward slashes.
func (s *Sandbox) Rel(abs string) string {
	r, err := filepath.Rel(s.root, abs)
	if err != nil || r == "." {
		return ""
	}
	return filepath.ToSlash(r)
}

// contains reports whether path equals root or is a descendant of it,
// comparing on segment boundaries.
func contains(root, path string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

// canonicalize resolves symlinks in the deepest existing ancestor of path and
// rejoins the non-existent remainder. Plain EvalSymlinks fails on paths that
// do not exist yet (mkdir targets, upload destinations).
func canonicalize(path string) (string, error) {
	suffix := ""
	for cur := path; ; {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(resolved, suffix), nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", os.ErrNotExist
		}
		suffix = filepath.Join(filepath.Base(cur), suffix)
		cur = parent
	}
}
