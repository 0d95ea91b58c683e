package disk

import (
	"io/fs"
	"os"
	"path/filepath"
)

// PathStats contains usage statistics about a filesystem path
type PathStats struct {
	UsedBytes int64 // Total bytes used by regular files under the path
	FileCount int64 // Total number of regular files
}

// Usage walks path and sums the sizes of the regular files below it.
// A regular file reports its own size; unreadable subtrees are skipped.
// Symlinks are not followed.
func Usage(path string) (*PathStats, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}

	stats := &PathStats{}
	if info.Mode().IsRegular() {
		stats.UsedBytes = info.Size()
		stats.FileCount = 1
		return stats, nil
	}
	if !info.IsDir() {
		return stats, nil
	}

	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors
		}

		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return nil
			}
			stats.UsedBytes += info.Size()
			stats.FileCount++
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}
