//go:build cgo

package graph

// OpenIndex opens (or creates) the persistent graph index at dbPath.
func OpenIndex(dbPath string) (Store, error) {
	return NewKuzuFileStore(dbPath)
}
