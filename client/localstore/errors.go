package localstore

import "fmt"

// ErrStoreUnavailable represents a condition wherein the underlying device
// storage could not be opened or has not been initialized yet. Nothing can
// proceed until initialization succeeds.
type ErrStoreUnavailable struct {
	// Reason is a natural language explanation of the failure.
	Reason string
}

func (e *ErrStoreUnavailable) Error() string {
	return fmt.Sprintf("The local store is unavailable: %s", e.Reason)
}

// ErrStoreWrite represents a failed durable write. The previously stored
// value, if any, remains intact.
type ErrStoreWrite struct {
	// Collection identifies the collection the failed write was directed at.
	Collection Collection
	// Key identifies the record the failed write was directed at.
	Key string
	// Reason is a natural language explanation of the failure.
	Reason string
}

func (e *ErrStoreWrite) Error() string {
	return fmt.Sprintf(
		"Could not write record %q to collection %q: %s",
		e.Key,
		e.Collection,
		e.Reason,
	)
}
