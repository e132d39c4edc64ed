package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// test random identity keypair generation
func TestIdentityKeypair(t *testing.T) {
	identity, seed, err := GetIdentityKeypair()
	assert.Equal(t, nil, err)
	assert.NotEqual(t, "", identity)
	assert.NotEqual(t, "", seed)

	id, err := DecodeKey(identity)
	assert.Equal(t, nil, err)
	assert.Equal(t, KeyTypeIdentity, id.Code)

	sd, err := DecodeKey(seed)
	assert.Equal(t, nil, err)
	assert.Equal(t, KeyTypeSeed, sd.Code)
}

// test deterministic identity keypair derivation
func TestIdentityKeypairFromSeed(t *testing.T) {
	id1, seed1, err := GetIdentityKeypairFromSeed([]byte("test network"))
	assert.Equal(t, nil, err)

	id2, seed2, err := GetIdentityKeypairFromSeed([]byte("test network"))
	assert.Equal(t, nil, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, seed1, seed2)

	id3, _, err := GetIdentityKeypairFromSeed([]byte("other network"))
	assert.Equal(t, nil, err)
	assert.NotEqual(t, id1, id3)
}
