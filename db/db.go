// Package db defines the generic interfaces of the bucketed
// key-value store used for persisting wallet states.
package db

// Getter wraps the read methods of the underlying database.
type Getter interface {
	// Get retrieves the value of the key, a nil value with a
	// nil error means the key does not exist.
	Get(bucket string, key []byte) ([]byte, error)
	// GetAll retrieves the values of all the keys with the prefix.
	GetAll(bucket string, keyPrefix []byte) ([][]byte, error)
}

// Putter wraps the write methods of the underlying database.
type Putter interface {
	Put(bucket string, key, value []byte) error
	Delete(bucket string, key []byte) error
}

// Tx is a writable transaction over the database. Mutations staged
// in the transaction become visible to other readers only after
// Commit and are discarded by Rollback.
type Tx interface {
	Getter
	Putter
	Commit() error
	Rollback() error
}

// Database is the generic operation interface of the store.
type Database interface {
	Getter
	Putter
	NewBucket(name string) error
	Begin() (Tx, error)
	Close() error
}
