package store

import "fmt"

// PersistenceError reports a failed read or write of a stored blob.
// Corrupt marks a blob that could not be decoded; the store discards it
// so the collection loads empty on the next read instead of crashing.
type PersistenceError struct {
	Op      string
	Key     string
	Corrupt bool
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Corrupt {
		return fmt.Sprintf("%s %q: corrupt blob discarded: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
