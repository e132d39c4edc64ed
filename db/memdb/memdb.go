package memdb

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ChainTrek/smart-wallet-contract/db"
)

type memdb struct {
	db map[string][]byte
	sync.RWMutex
}

// New creates a memory-based key-value store
// which is mainly used for testing.
func New() db.Database {
	return &memdb{db: make(map[string][]byte)}
}

// Internal keys are namespaced by bucket so that identical keys
// in different buckets do not collide.
func dbKey(bucket string, key []byte) string {
	return bucket + "/" + string(key)
}

func (m *memdb) NewBucket(name string) error {
	return nil
}

// Put writes the key/value pair to database.
func (m *memdb) Put(bucket string, key, value []byte) error {
	m.Lock()
	defer m.Unlock()

	if m.db == nil {
		return fmt.Errorf("memdb is closed")
	}

	val := make([]byte, len(value))
	copy(val, value)
	m.db[dbKey(bucket, key)] = val
	return nil
}

// Delete deletes the key from the database.
func (m *memdb) Delete(bucket string, key []byte) error {
	m.Lock()
	defer m.Unlock()

	if m.db == nil {
		return fmt.Errorf("memdb is closed")
	}

	delete(m.db, dbKey(bucket, key))
	return nil
}

// Get retrieves the value of the key from database, a nil value
// with a nil error means the key does not exist.
func (m *memdb) Get(bucket string, key []byte) ([]byte, error) {
	m.RLock()
	defer m.RUnlock()

	if m.db == nil {
		return nil, fmt.Errorf("memdb is closed")
	}

	if val, ok := m.db[dbKey(bucket, key)]; ok {
		v := make([]byte, len(val))
		copy(v, val)
		return v, nil
	}
	return nil, nil
}

// GetAll retrieves the values of the keys with prefix from database.
func (m *memdb) GetAll(bucket string, keyPrefix []byte) ([][]byte, error) {
	m.RLock()
	defer m.RUnlock()

	if m.db == nil {
		return nil, fmt.Errorf("memdb is closed")
	}

	prefix := dbKey(bucket, keyPrefix)

	var vals [][]byte
	for k, v := range m.db {
		if strings.HasPrefix(k, prefix) {
			val := make([]byte, len(v))
			copy(val, v)
			vals = append(vals, val)
		}
	}
	return vals, nil
}

// Begin starts a transaction which stages all the writes in
// memory until commit.
func (m *memdb) Begin() (db.Tx, error) {
	m.RLock()
	defer m.RUnlock()

	if m.db == nil {
		return nil, fmt.Errorf("memdb is closed")
	}

	return &memdbTx{
		parent:  m,
		staged:  make(map[string][]byte),
		deleted: make(map[string]bool),
	}, nil
}

// Close closes the underlying database.
func (m *memdb) Close() error {
	m.Lock()
	defer m.Unlock()

	m.db = nil
	return nil
}

// memdbTx buffers writes and applies them on commit.
type memdbTx struct {
	parent  *memdb
	staged  map[string][]byte
	deleted map[string]bool
	done    bool
}

func (t *memdbTx) Get(bucket string, key []byte) ([]byte, error) {
	k := dbKey(bucket, key)
	if t.deleted[k] {
		return nil, nil
	}
	if val, ok := t.staged[k]; ok {
		v := make([]byte, len(val))
		copy(v, val)
		return v, nil
	}
	return t.parent.Get(bucket, key)
}

func (t *memdbTx) GetAll(bucket string, keyPrefix []byte) ([][]byte, error) {
	prefix := dbKey(bucket, keyPrefix)

	merged := make(map[string][]byte)

	t.parent.RLock()
	if t.parent.db == nil {
		t.parent.RUnlock()
		return nil, fmt.Errorf("memdb is closed")
	}
	for k, v := range t.parent.db {
		if strings.HasPrefix(k, prefix) {
			merged[k] = v
		}
	}
	t.parent.RUnlock()

	for k, v := range t.staged {
		if strings.HasPrefix(k, prefix) {
			merged[k] = v
		}
	}
	for k := range t.deleted {
		delete(merged, k)
	}

	var vals [][]byte
	for _, v := range merged {
		val := make([]byte, len(v))
		copy(val, v)
		vals = append(vals, val)
	}
	return vals, nil
}

func (t *memdbTx) Put(bucket string, key, value []byte) error {
	if t.done {
		return fmt.Errorf("transaction is closed")
	}
	k := dbKey(bucket, key)
	val := make([]byte, len(value))
	copy(val, value)
	t.staged[k] = val
	delete(t.deleted, k)
	return nil
}

func (t *memdbTx) Delete(bucket string, key []byte) error {
	if t.done {
		return fmt.Errorf("transaction is closed")
	}
	k := dbKey(bucket, key)
	delete(t.staged, k)
	t.deleted[k] = true
	return nil
}

func (t *memdbTx) Commit() error {
	if t.done {
		return fmt.Errorf("transaction is closed")
	}
	t.done = true

	t.parent.Lock()
	defer t.parent.Unlock()

	if t.parent.db == nil {
		return fmt.Errorf("memdb is closed")
	}

	for k, v := range t.staged {
		t.parent.db[k] = v
	}
	for k := range t.deleted {
		delete(t.parent.db, k)
	}
	return nil
}

func (t *memdbTx) Rollback() error {
	if t.done {
		return fmt.Errorf("transaction is closed")
	}
	t.done = true
	t.staged = nil
	t.deleted = nil
	return nil
}
