//go:build !cgo

package graph

import "errors"

// OpenIndex is unavailable without cgo: KuzuDB is a C library.
func OpenIndex(string) (Store, error) {
	return nil, errors.New("persistent graph index requires a cgo build")
}
