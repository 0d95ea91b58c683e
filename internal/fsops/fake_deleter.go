package fsops

// FakeDeleter implements Deleter for testing.
// Records every call; paths present in Errors fail with the mapped error,
// everything else is delegated to Next when set.
type FakeDeleter struct {
	Calls  []string
	Errors map[string]error
	Next   Deleter
}

func (f *FakeDeleter) Remove(path string) error {
	f.Calls = append(f.Calls, "rm:"+path)
	if err, ok := f.Errors[path]; ok {
		return err
	}
	if f.Next != nil {
		return f.Next.Remove(path)
	}
	return nil
}

func (f *FakeDeleter) RemoveAll(path string) error {
	f.Calls = append(f.Calls, "rmall:"+path)
	if err, ok := f.Errors[path]; ok {
		return err
	}
	if f.Next != nil {
		return f.Next.RemoveAll(path)
	}
	return nil
}
