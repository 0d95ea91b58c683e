package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"postpack/internal/disk"
)

// Kind classifies an entry the way the cleaner decides how to remove it.
type Kind int

const (
	KindOther Kind = iota
	KindFile
	KindDir
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "directory"
	default:
		return "other"
	}
}

// Entry is one immediate child of the scanned root.
type Entry struct {
	Name  string // Base name relative to the root
	Path  string // Root joined with Name
	Kind  Kind
	Size  int64 // Bytes used by regular files under the entry
	Files int64 // Regular file count under the entry
}

// List returns the immediate entries of root in directory order.
// A missing root yields no entries and no error.
func List(root string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", root, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		p := filepath.Join(root, de.Name())
		e := Entry{
			Name: de.Name(),
			Path: p,
			Kind: Classify(p),
		}
		if stats, err := disk.Usage(p); err == nil {
			e.Size = stats.UsedBytes
			e.Files = stats.FileCount
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Classify reports the kind of path, following symlinks.
// Missing paths and dangling links are KindOther.
func Classify(path string) Kind {
	info, err := os.Stat(path)
	if err != nil {
		return KindOther
	}
	switch {
	case info.Mode().IsRegular():
		return KindFile
	case info.IsDir():
		return KindDir
	default:
		return KindOther
	}
}
