package memdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test Memdb.
func TestMemDB(t *testing.T) {
	// open the database
	database := New()

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

	// same key in another bucket should be independent
	val, err = database.Get("OTHER", []byte("testKey"))
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte(nil), val)
}

// Test Memdb transactions.
func TestMemDBTx(t *testing.T) {
	database := New()

	err := database.Put("TEST", []byte("testKey"), []byte("old"))
	assert.Equal(t, nil, err)

	// rollback should discard staged writes
	tx, err := database.Begin()
	assert.Equal(t, nil, err)
	err = tx.Put("TEST", []byte("testKey"), []byte("new"))
	assert.Equal(t, nil, err)

	// staged write is visible inside the transaction
	val, err := tx.Get("TEST", []byte("testKey"))
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte("new"), val)

	err = tx.Rollback()
	assert.Equal(t, nil, err)

	val, err = database.Get("TEST", []byte("testKey"))
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte("old"), val)

	// commit should apply staged writes
	tx, err = database.Begin()
	assert.Equal(t, nil, err)
	err = tx.Put("TEST", []byte("testKey"), []byte("new"))
	assert.Equal(t, nil, err)
	err = tx.Commit()
	assert.Equal(t, nil, err)

	val, err = database.Get("TEST", []byte("testKey"))
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte("new"), val)
}
