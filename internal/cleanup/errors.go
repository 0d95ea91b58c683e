package cleanup

import (
	"errors"
	"fmt"

	"postpack/internal/safety"
)

var (
	ErrNotFound        = errors.New("entry no longer exists")
	ErrUnsupportedType = errors.New("entry is neither a regular file nor a directory")
	ErrSymlinkDir      = errors.New("refusing to remove a symlinked directory")
)

// DeletionError reports an entry that could not be removed.
// It is a countable outcome only and never aborts a run.
type DeletionError struct {
	Op   string // "validate", "stat", "remove" or "remove_all"
	Path string
	Err  error
}

func (e *DeletionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DeletionError) Unwrap() error {
	return e.Err
}

// Reason maps the error to the metric label recorded for the failure.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, ErrSymlinkDir):
		return "symlink_dir"
	case errors.Is(err, safety.ErrProtectedPath),
		errors.Is(err, safety.ErrOutsideAllowed),
		errors.Is(err, safety.ErrTraversal),
		errors.Is(err, safety.ErrSymlinkEscape),
		errors.Is(err, safety.ErrInvalidPath):
		return "unsafe_path"
	default:
		return "remove_failed"
	}
}
