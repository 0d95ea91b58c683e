package safety

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath    = errors.New("invalid path")
	ErrProtectedPath  = errors.New("protected path")
	ErrOutsideAllowed = errors.New("outside allowed root")
	ErrTraversal      = errors.New("path traversal detected")
	ErrSymlinkEscape  = errors.New("symlink escapes allowed root")
)

// Validator enforces the safety contract for all delete operations.
// Only strict descendants of AllowedRoot may be deleted, and never a path
// whose removal would take a protected path with it.
type Validator struct {
	AllowedRoot    string
	ProtectedPaths []string
}

// NewValidator creates a validator for allowedRoot with optional additional protected paths
func NewValidator(allowedRoot string, extraProtected []string) *Validator {
	root, err := NormalizePath(allowedRoot)
	if err != nil {
		root = ""
	}
	return &Validator{
		AllowedRoot:    root,
		ProtectedPaths: defaultProtected(normalizePaths(extraProtected)),
	}
}

// ValidateDeleteTarget is the single source of truth for delete authorization
func (v *Validator) ValidateDeleteTarget(path string) error {
	p, err := NormalizePath(path)
	if err != nil {
		return err
	}

	if IsProtectedPath(p, v.ProtectedPaths) {
		return ErrProtectedPath
	}

	if v.AllowedRoot == "" || p == v.AllowedRoot || !hasPathPrefix(p, v.AllowedRoot) {
		return ErrOutsideAllowed
	}

	if DetectTraversal(path) {
		return ErrTraversal
	}

	escaped, err := DetectSymlinkEscape(p, v.AllowedRoot)
	if err != nil {
		// Missing paths fail at delete time anyway
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if escaped {
		return ErrSymlinkEscape
	}

	return nil
}

// NormalizePath converts path to absolute, cleaned form
func NormalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrInvalidPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrInvalidPath
	}
	return filepath.Clean(abs), nil
}

// DetectTraversal blocks any ".." segment in raw input
func DetectTraversal(raw string) bool {
	parts := strings.Split(filepath.ToSlash(raw), "/")
	for _, p := range parts {
		if p == ".." {
			return true
		}
	}
	return false
}

// DetectSymlinkEscape resolves the directory holding cleanAbs and reports
// whether it lies outside the resolved root. The final element is left alone:
// a symlink entry is removed as a link, never through its target.
func DetectSymlinkEscape(cleanAbs, root string) (bool, error) {
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return false, err
	}
	resolvedDir, err := filepath.EvalSymlinks(filepath.Dir(cleanAbs))
	if err != nil {
		return false, err
	}
	return !hasPathPrefix(resolvedDir, resolvedRoot), nil
}

// IsProtectedPath reports whether removing path would remove a protected path,
// i.e. path is a protected path or one of its ancestors.
func IsProtectedPath(path string, protected []string) bool {
	p := filepath.Clean(path)

	// Hard block: "/" exact
	if p == string(os.PathSeparator) {
		return true
	}

	for _, prot := range protected {
		if hasPathPrefix(filepath.Clean(prot), p) {
			return true
		}
	}
	return false
}

// hasPathPrefix checks if path equals prefix or lies below it
func hasPathPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)

	if path == prefix {
		return true
	}
	if prefix == string(os.PathSeparator) {
		return strings.HasPrefix(path, prefix)
	}
	return strings.HasPrefix(path, prefix+string(os.PathSeparator))
}

func normalizePaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		np, err := NormalizePath(p)
		if err != nil {
			continue
		}
		out = append(out, np)
	}
	return out
}

// defaultProtected returns the base set of protected paths plus any extras
func defaultProtected(extra []string) []string {
	base := []string{
		"/",
		"/etc",
		"/bin",
		"/usr",
		"/boot",
		"/lib",
		"/lib64",
		"/sbin",
		"/home",
		"/root",
	}
	return append(base, extra...)
}
