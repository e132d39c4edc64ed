// Copyright 2024 The smart-wallet-contract Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"io"
)

// Generate an identity keypair with the ed25519 crypto algorithm,
// since we can always reconstruct the true private key using the
// same seed, we use the randomly generated seed as an equivalent
// private key.
func identityKeypair() (string, string, error) {
	var seed [32]byte
	_, err := io.ReadFull(rand.Reader, seed[:])
	if err != nil {
		return "", "", err
	}
	privateKey := ed25519.NewKeyFromSeed(seed[:])
	publicKey := privateKey.Public().(ed25519.PublicKey)

	var pk [32]byte
	copy(pk[:], publicKey)
	id := &Key{Code: KeyTypeIdentity, Hash: pk}
	sd := &Key{Code: KeyTypeSeed, Hash: seed}

	pubKeyStr := EncodeKey(id)
	seedStr := EncodeKey(sd)

	return pubKeyStr, seedStr, nil
}

// GetIdentityKeypair generates a random identity keypair, the first
// returned string is the public identity and the second one is the
// corresponding seed.
func GetIdentityKeypair() (string, string, error) {
	return identityKeypair()
}

// GetIdentityKeypairFromSeed derives a deterministic identity keypair
// from the supplied seed bytes.
func GetIdentityKeypairFromSeed(seed []byte) (string, string, error) {
	h := SHA256HashBytes(seed)

	privateKey := ed25519.NewKeyFromSeed(h[:])
	publicKey := privateKey.Public().(ed25519.PublicKey)

	var pk [32]byte
	copy(pk[:], publicKey)
	id := &Key{Code: KeyTypeIdentity, Hash: pk}
	sd := &Key{Code: KeyTypeSeed, Hash: h}

	return EncodeKey(id), EncodeKey(sd), nil
}
