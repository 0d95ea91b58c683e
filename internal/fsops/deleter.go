package fsops

// Deleter abstracts filesystem delete operations
// so tests can inject failures without touching permissions
type Deleter interface {
	Remove(path string) error
	RemoveAll(path string) error
}
