package keyvaluestore

import "context"

// ScanFunc is called for every key visited by ListKeys. getValue decodes the
// value stored under the key into v. Returning stop=true ends the scan early.
type ScanFunc func(key string, getValue func(v interface{}) error) (stop bool, err error)

// UpdateFunc receives the current state of a key and returns the value to store.
// Returning an error aborts the update and leaves the key untouched; the error
// is returned from Update as is.
type UpdateFunc func(found bool, getValue func(v interface{}) error) (newValue interface{}, err error)

type Store interface {
	// Get retrieves the value for the given key.
	Get(ctx context.Context, key string, v any) (found bool, err error)

	// Set sets the key to the given value.
	Set(ctx context.Context, key string, v any) error

	// Delete deletes the key from the store. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// ListKeys iterates over all keys matching the glob pattern and calls the given function for each key.
	// An empty pattern matches every key. The order of keys is not defined.
	// Each key is visited at most once per call.
	ListKeys(ctx context.Context, match string, si ScanFunc) error
}

// AtomicStore is a Store able to run a read-modify-write of a single key
// without another writer slipping in between the read and the write.
type AtomicStore interface {
	Store

	Update(ctx context.Context, key string, fn UpdateFunc) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// UpdateSupporter is implemented by stores whose Update depends on the
// underlying client, e.g. a redis store built over a pipeline.
type UpdateSupporter interface {
	SupportsUpdate() bool
}

// AsAtomic returns the store as an AtomicStore when it is able to run Update.
func AsAtomic(s Store) (AtomicStore, bool) {
	atomicStore, ok := s.(AtomicStore)
	if !ok {
		return nil, false
	}

	if supporter, ok := s.(UpdateSupporter); ok && !supporter.SupportsUpdate() {
		return nil, false
	}

	return atomicStore, true
}
