package crypto

import (
	"bytes"
	"encoding/binary"
	"testing"

	b58 "github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
)

// test validity of supplied key
func TestKeyValidity(t *testing.T) {
	identity, seed, err := GetIdentityKeypair()
	assert.Equal(t, nil, err)

	assert.Equal(t, true, IsValidKey(identity))
	assert.Equal(t, true, IsValidKey(seed))

	// test empty key string
	assert.Equal(t, false, IsValidKey(""))

	// test garbage key string
	assert.Equal(t, false, IsValidKey("not-a-key"))

	// construct an invalid key type
	tk := Key{Code: KeyType(128)}

	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, tk)

	b58code := b58.Encode(buf.Bytes())
	assert.Equal(t, false, IsValidKey(b58code))
}

// test key encode decode roundtrip
func TestKeyCodec(t *testing.T) {
	identity, _, err := GetIdentityKeypair()
	assert.Equal(t, nil, err)

	k, err := DecodeKey(identity)
	assert.Equal(t, nil, err)
	assert.Equal(t, KeyTypeIdentity, k.Code)

	assert.Equal(t, identity, EncodeKey(k))
}
