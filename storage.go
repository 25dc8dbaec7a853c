package redispb

// storage is a flat key-value backend holding the record keyspace
// (Bolt on disk, or transient in-memory for tests).
type storage interface {
	// BeginTx starts a new transaction.
	BeginTx(writable bool) (storageTx, error)
	// Close closes the storage.
	Close() error
}

// storageTx represents a storage transaction over the keyspace.
type storageTx interface {
	// Writable returns true if this is a writable transaction.
	Writable() bool

	// Get retrieves a value by key. Returns nil if not found. The returned
	// slice is only valid for the life of the transaction; copy it before
	// letting it escape.
	Get(key []byte) []byte

	// Put stores a key-value pair.
	Put(key, value []byte) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(key []byte) error

	// Cursor returns a cursor for iteration in key order.
	Cursor() storageCursor

	// KeyCount returns the number of keys (best effort).
	KeyCount() int

	// Commit commits the transaction.
	Commit() error

	// Rollback aborts the transaction. It is safe to call multiple times.
	Rollback() error
}

// storageCursor iterates over the keyspace in ascending key order.
type storageCursor interface {
	// First moves to the first key-value pair.
	First() (key, value []byte)

	// Seek moves to the first key >= seek.
	Seek(seek []byte) (key, value []byte)

	// Next moves to the next key-value pair.
	Next() (key, value []byte)
}
