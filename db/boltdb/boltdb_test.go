package boltdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test basic database ops.
func TestDBOps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	database := New(path)
	defer database.Close()

	// create bucket
	err := database.NewBucket("TEST")
	assert.Equal(t, nil, err)

	// test get nonexistance key
	val, err := database.Get("TEST", []byte("none"))
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte(nil), val)

	// test set key/value pair
	err = database.Put("TEST", []byte("testKey"), []byte("testValue"))
	assert.Equal(t, nil, err)

	// test get value of key
	val, err = database.Get("TEST", []byte("testKey"))
	assert.Equal(t, err, nil)
	assert.Equal(t, []byte("testValue"), val)

	// test delete the key
	err = database.Delete("TEST", []byte("testKey"))
	assert.Equal(t, nil, err)
	val, err = database.Get("TEST", []byte("testKey"))
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte(nil), val)

	// remove the test db
	os.Remove(path)
}

// Test prefix scans.
func TestDBGetAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	database := New(path)
	defer database.Close()

	err := database.NewBucket("TEST")
	assert.Equal(t, nil, err)

	err = database.Put("TEST", []byte("prefix_one"), []byte("1"))
	assert.Equal(t, nil, err)
	err = database.Put("TEST", []byte("prefix_two"), []byte("2"))
	assert.Equal(t, nil, err)
	err = database.Put("TEST", []byte("other"), []byte("3"))
	assert.Equal(t, nil, err)

	vals, err := database.GetAll("TEST", []byte("prefix_"))
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, len(vals))
}

// Test transaction commit and rollback.
func TestDBTx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	database := New(path)
	defer database.Close()

	err := database.NewBucket("TEST")
	assert.Equal(t, nil, err)

	// staged writes should be discarded by rollback
	tx, err := database.Begin()
	assert.Equal(t, nil, err)
	err = tx.Put("TEST", []byte("testKey"), []byte("testValue"))
	assert.Equal(t, nil, err)
	err = tx.Rollback()
	assert.Equal(t, nil, err)

	val, err := database.Get("TEST", []byte("testKey"))
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte(nil), val)

	// staged writes should be visible after commit
	tx, err = database.Begin()
	assert.Equal(t, nil, err)
	err = tx.Put("TEST", []byte("testKey"), []byte("testValue"))
	assert.Equal(t, nil, err)
	err = tx.Commit()
	assert.Equal(t, nil, err)

	val, err = database.Get("TEST", []byte("testKey"))
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte("testValue"), val)
}
