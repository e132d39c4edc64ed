package boltdb

import (
	"bytes"
	"errors"
	"time"

	"github.com/boltdb/bolt"

	"github.com/ChainTrek/smart-wallet-contract/db"
	"github.com/ChainTrek/smart-wallet-contract/log"
)

type boltdb struct {
	db *bolt.DB
}

// New creates a new boltdb instance which can be used by multiple
// goroutines of the same process, BoltDB obtains a file lock on the data
// file so multiple processes cannot open the same database at the same time.
// It will panic if the database cannot be created or opened.
func New(path string) db.Database {
	// open a database in specified path
	bt, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		log.Fatal(err)
	}
	return &boltdb{db: bt}
}

func (bt *boltdb) NewBucket(name string) error {
	if bt.db == nil {
		return errors.New("database is not initialized")
	}
	if name == "" {
		return errors.New("database bucket name is empty")
	}

	if err := bt.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		if err != nil {
			return err
		}
		return nil
	}); err != nil {
		return err
	}
	return nil
}

// Put writes the key/value pair to database.
func (bt *boltdb) Put(bucket string, key, value []byte) error {
	if bt.db == nil {
		return errors.New("database is not initialized")
	}

	if err := bt.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return errors.New("bucket not exist")
		}
		err := b.Put(key, value)
		return err
	}); err != nil {
		return err
	}
	return nil
}

// Delete deletes the key from the database.
func (bt *boltdb) Delete(bucket string, key []byte) error {
	if bt.db == nil {
		return errors.New("database is not initialized")
	}

	if err := bt.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return errors.New("bucket not exist")
		}
		err := b.Delete(key)
		return err
	}); err != nil {
		return err
	}
	return nil
}

// Get retrieves the value of the key from database.
func (bt *boltdb) Get(bucket string, key []byte) ([]byte, error) {
	if bt.db == nil {
		return nil, errors.New("database is not initialized")
	}

	var val []byte
	if err := bt.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return errors.New("bucket not exist")
		}
		v := b.Get(key)
		if v != nil {
			// the slice is only valid inside the view
			val = append(val, v...)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return val, nil
}

// GetAll retrieves the values of all the keys with the prefix from database.
func (bt *boltdb) GetAll(bucket string, keyPrefix []byte) ([][]byte, error) {
	if bt.db == nil {
		return nil, errors.New("database is not initialized")
	}

	var vals [][]byte
	if err := bt.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return errors.New("bucket not exist")
		}
		c := b.Cursor()
		for k, v := c.Seek(keyPrefix); k != nil && bytes.HasPrefix(k, keyPrefix); k, v = c.Next() {
			var val []byte
			val = append(val, v...)
			vals = append(vals, val)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return vals, nil
}

// Begin starts a writable transaction on the database.
func (bt *boltdb) Begin() (db.Tx, error) {
	if bt.db == nil {
		return nil, errors.New("database is not initialized")
	}

	tx, err := bt.db.Begin(true)
	if err != nil {
		return nil, err
	}
	return &boltdbTx{tx: tx}, nil
}

// Close closes the underlying database.
func (bt *boltdb) Close() error {
	if bt.db != nil {
		return bt.db.Close()
	}
	return nil
}

// boltdbTx wraps a writable bolt transaction.
type boltdbTx struct {
	tx *bolt.Tx
}

func (bt *boltdbTx) Get(bucket string, key []byte) ([]byte, error) {
	b := bt.tx.Bucket([]byte(bucket))
	if b == nil {
		return nil, errors.New("bucket not exist")
	}
	var val []byte
	v := b.Get(key)
	if v != nil {
		val = append(val, v...)
	}
	return val, nil
}

func (bt *boltdbTx) GetAll(bucket string, keyPrefix []byte) ([][]byte, error) {
	b := bt.tx.Bucket([]byte(bucket))
	if b == nil {
		return nil, errors.New("bucket not exist")
	}
	var vals [][]byte
	c := b.Cursor()
	for k, v := c.Seek(keyPrefix); k != nil && bytes.HasPrefix(k, keyPrefix); k, v = c.Next() {
		var val []byte
		val = append(val, v...)
		vals = append(vals, val)
	}
	return vals, nil
}

func (bt *boltdbTx) Put(bucket string, key, value []byte) error {
	b := bt.tx.Bucket([]byte(bucket))
	if b == nil {
		return errors.New("bucket not exist")
	}
	return b.Put(key, value)
}

func (bt *boltdbTx) Delete(bucket string, key []byte) error {
	b := bt.tx.Bucket([]byte(bucket))
	if b == nil {
		return errors.New("bucket not exist")
	}
	return b.Delete(key)
}

func (bt *boltdbTx) Commit() error {
	return bt.tx.Commit()
}

func (bt *boltdbTx) Rollback() error {
	return bt.tx.Rollback()
}
