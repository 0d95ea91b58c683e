package fsops

import "os"

var (
	_ Deleter = OSDeleter{}
	_ Deleter = (*FakeDeleter)(nil)
)

// OSDeleter implements Deleter with the os package.
// Neither method follows a symlink: the link itself is what gets removed.
type OSDeleter struct{}

// Remove deletes a single file or link
func (OSDeleter) Remove(path string) error {
	return os.Remove(path)
}

// RemoveAll deletes path and everything below it
func (OSDeleter) RemoveAll(path string) error {
	return os.RemoveAll(path)
}
