// Package subcoll implements the operations applied to an ordered
// sub-collection embedded in a parent document. All functions are pure:
// input slices are never modified and results never alias them.
package subcoll

import "fmt"

var (
	ErrNotFound        = fmt.Errorf("record not found")
	ErrDuplicateKey    = fmt.Errorf("duplicate record key")
	ErrIndexOutOfRange = fmt.Errorf("index out of range")
)

// Keyed is a sub-record with an identity key: the record identifier for
// comments, experience and education, the actor reference for likes.
type Keyed[K comparable] interface {
	Key() K
}

// Prepend returns a new sequence with rec at position 0 followed by seq.
func Prepend[T any](seq []T, rec T) []T {
	out := make([]T, 0, len(seq)+1)
	out = append(out, rec)
	return append(out, seq...)
}

// FindIndex returns the index of the first record (front to back) whose key
// equals key. Since records are prepended, the first match is the most
// recently added one.
func FindIndex[T Keyed[K], K comparable](seq []T, key K) (int, error) {
	for i, rec := range seq {
		if rec.Key() == key {
			return i, nil
		}
	}
	return -1, ErrNotFound
}

// FindUnique is FindIndex that fails with ErrDuplicateKey when more than one
// record carries key.
func FindUnique[T Keyed[K], K comparable](seq []T, key K) (int, error) {
	idx, err := FindIndex[T, K](seq, key)
	if err != nil {
		return -1, err
	}
	for _, rec := range seq[idx+1:] {
		if rec.Key() == key {
			return -1, fmt.Errorf("%w: %v", ErrDuplicateKey, key)
		}
	}
	return idx, nil
}

// Contains reports whether any record carries key.
func Contains[T Keyed[K], K comparable](seq []T, key K) bool {
	_, err := FindIndex[T, K](seq, key)
	return err == nil
}

// RemoveAt returns a new sequence without the element at index i, keeping the
// relative order of the rest.
func RemoveAt[T any](seq []T, i int) ([]T, error) {
	if i < 0 || i >= len(seq) {
		return nil, fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(seq))
	}
	out := make([]T, 0, len(seq)-1)
	out = append(out, seq[:i]...)
	return append(out, seq[i+1:]...), nil
}
