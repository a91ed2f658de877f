// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package modelstore

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/gantry-foundation/gantry/lib/secret"
)

// KeySize is the size in bytes of all symmetric keys in model pack
// encryption: the store key and every derived per-model key.
const KeySize = 32

// EncryptedBlobVersion is the version byte prepended to every
// encrypted blob. It is included in the AEAD's additional
// authenticated data, so tampering with it fails authentication.
const EncryptedBlobVersion byte = 0x01

// EncryptedBlobOverhead is the per-blob byte overhead:
// 1 (version) + 24 (XChaCha20-Poly1305 nonce) + 16 (Poly1305 tag).
const EncryptedBlobOverhead = 1 + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead

// HKDF info string for per-model key derivation. Domain-separates
// model keys from any other use of the store key; changing it
// invalidates every encrypted pack.
var hkdfInfoPerModel = []byte("gantry.model.key.v1")

// DerivePerModelKey derives the encryption key for one model's pack
// chunks from the store key and the pack hash. The same pack always
// derives the same key, so re-encryption is deterministic.
//
// The storeKey is borrowed (read via Bytes) and NOT closed. The
// returned Buffer must be closed by the caller.
func DerivePerModelKey(storeKey *secret.Buffer, packHash Hash) (*secret.Buffer, error) {
	info := make([]byte, len(hkdfInfoPerModel)+len(packHash))
	copy(info, hkdfInfoPerModel)
	copy(info[len(hkdfInfoPerModel):], packHash[:])

	reader := hkdf.New(sha256.New, storeKey.Bytes(), nil, info)
	derived := make([]byte, KeySize)
	if _, err := io.ReadFull(reader, derived); err != nil {
		secret.Zero(derived)
		return nil, fmt.Errorf("HKDF key derivation failed: %w", err)
	}
	// NewFromBytes copies into mmap and zeros the heap slice.
	return secret.NewFromBytes(derived)
}

// EncryptBlob encrypts plaintext with XChaCha20-Poly1305 in the
// standard blob format:
//
//	[Version: 1 byte] [Nonce: 24 bytes (random)] [Ciphertext+Tag]
//
// The version byte and identityHash go into the AAD. The identity
// hash binds the ciphertext to its pack, so encrypted chunks cannot
// be swapped between packs.
//
// The encryptionKey is borrowed and NOT closed. It must be exactly 32
// bytes.
func EncryptBlob(plaintext []byte, encryptionKey *secret.Buffer, identityHash Hash) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(encryptionKey.Bytes())
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("generating random nonce: %w", err)
	}

	aad := buildAAD(EncryptedBlobVersion, identityHash)

	output := make([]byte, 1+chacha20poly1305.NonceSizeX, 1+chacha20poly1305.NonceSizeX+len(plaintext)+aead.Overhead())
	output[0] = EncryptedBlobVersion
	copy(output[1:], nonce[:])
	return aead.Seal(output, nonce[:], plaintext, aad), nil
}

// DecryptBlob reverses EncryptBlob, verifying the version byte and
// authenticating against the AAD. Fails on a wrong key, tampered
// ciphertext, or mismatched identity hash.
//
// The encryptionKey is borrowed and NOT closed.
func DecryptBlob(encryptedBlob []byte, encryptionKey *secret.Buffer, identityHash Hash) ([]byte, error) {
	if len(encryptedBlob) < EncryptedBlobOverhead {
		return nil, fmt.Errorf("encrypted blob is %d bytes, minimum is %d (version + nonce + tag)",
			len(encryptedBlob), EncryptedBlobOverhead)
	}

	version := encryptedBlob[0]
	if version != EncryptedBlobVersion {
		return nil, fmt.Errorf("encrypted blob version %d is not supported (expected %d)",
			version, EncryptedBlobVersion)
	}

	nonce := encryptedBlob[1 : 1+chacha20poly1305.NonceSizeX]
	ciphertext := encryptedBlob[1+chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(encryptionKey.Bytes())
	if err != nil {
		return nil, fmt.Errorf("creating XChaCha20-Poly1305 cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, buildAAD(version, identityHash))
	if err != nil {
		return nil, fmt.Errorf("AEAD decryption failed (wrong key, tampered data, or mismatched pack): %w", err)
	}
	return plaintext, nil
}

// KeySet holds the store key in guarded memory and derives per-model
// keys on demand. The store key lives in a secret.Buffer (mmap'd,
// mlock'd, excluded from core dumps, zeroed on close). Derived keys
// are not cached; HKDF-SHA256 costs roughly a microsecond, nothing
// next to the AEAD work that follows.
type KeySet struct {
	storeKey *secret.Buffer
}

// NewKeySet creates a key set owning storeKey; Close releases it. The
// caller must not use storeKey afterwards. The key must be exactly
// KeySize bytes.
func NewKeySet(storeKey *secret.Buffer) (*KeySet, error) {
	if storeKey.Len() != KeySize {
		return nil, fmt.Errorf("model store key must be %d bytes, got %d", KeySize, storeKey.Len())
	}
	return &KeySet{storeKey: storeKey}, nil
}

// Close zeroes and releases the store key. Idempotent; derivation
// after Close panics via secret.Buffer's closed check.
func (ks *KeySet) Close() error {
	return ks.storeKey.Close()
}

// EncryptPack encrypts pack bytes for at-rest storage of
// license-protected weights. Derives the per-model key from the pack
// hash and seals with the pack hash as AAD.
func (ks *KeySet) EncryptPack(packBytes []byte, packHash Hash) ([]byte, error) {
	key, err := DerivePerModelKey(ks.storeKey, packHash)
	if err != nil {
		return nil, fmt.Errorf("deriving per-model key: %w", err)
	}
	defer key.Close()
	return EncryptBlob(packBytes, key, packHash)
}

// DecryptPack decrypts a pack sealed by EncryptPack.
func (ks *KeySet) DecryptPack(encryptedBlob []byte, packHash Hash) ([]byte, error) {
	key, err := DerivePerModelKey(ks.storeKey, packHash)
	if err != nil {
		return nil, fmt.Errorf("deriving per-model key: %w", err)
	}
	defer key.Close()
	return DecryptBlob(encryptedBlob, key, packHash)
}

// buildAAD constructs the AEAD additional authenticated data: the
// version byte followed by the identity hash.
func buildAAD(version byte, identityHash Hash) []byte {
	aad := make([]byte, 1+len(identityHash))
	aad[0] = version
	copy(aad[1:], identityHash[:])
	return aad
}
