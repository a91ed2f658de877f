// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package modelstore

import (
	"bytes"
	"testing"

	"github.com/gantry-foundation/gantry/lib/secret"
)

func testKeySet(t *testing.T) *KeySet {
	t.Helper()
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	buffer, err := secret.NewFromBytes(key)
	if err != nil {
		t.Fatalf("secret.NewFromBytes: %v", err)
	}
	keySet, err := NewKeySet(buffer)
	if err != nil {
		t.Fatalf("NewKeySet: %v", err)
	}
	t.Cleanup(func() { keySet.Close() })
	return keySet
}

func TestEncryptPackRoundTrip(t *testing.T) {
	keySet := testKeySet(t)
	packHash := HashPack(HashChunk([]byte("weights")))
	plaintext := []byte("pack bytes with license-protected weights")

	encrypted, err := keySet.EncryptPack(plaintext, packHash)
	if err != nil {
		t.Fatalf("EncryptPack: %v", err)
	}
	if len(encrypted) != len(plaintext)+EncryptedBlobOverhead {
		t.Errorf("encrypted length = %d, want %d", len(encrypted), len(plaintext)+EncryptedBlobOverhead)
	}
	if encrypted[0] != EncryptedBlobVersion {
		t.Errorf("version byte = %d, want %d", encrypted[0], EncryptedBlobVersion)
	}

	decrypted, err := keySet.DecryptPack(encrypted, packHash)
	if err != nil {
		t.Fatalf("DecryptPack: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Error("round trip did not reproduce plaintext")
	}
}

func TestDecryptPackRejectsWrongPackHash(t *testing.T) {
	keySet := testKeySet(t)
	packHash := HashPack(HashChunk([]byte("weights")))
	otherHash := HashPack(HashChunk([]byte("other")))

	encrypted, err := keySet.EncryptPack([]byte("payload"), packHash)
	if err != nil {
		t.Fatalf("EncryptPack: %v", err)
	}
	if _, err := keySet.DecryptPack(encrypted, otherHash); err == nil {
		t.Error("DecryptPack with wrong pack hash should fail authentication")
	}
}

func TestDecryptPackRejectsTamperedCiphertext(t *testing.T) {
	keySet := testKeySet(t)
	packHash := HashPack(HashChunk([]byte("weights")))

	encrypted, err := keySet.EncryptPack([]byte("payload"), packHash)
	if err != nil {
		t.Fatalf("EncryptPack: %v", err)
	}
	encrypted[len(encrypted)-1] ^= 0x01
	if _, err := keySet.DecryptPack(encrypted, packHash); err == nil {
		t.Error("DecryptPack of tampered ciphertext should fail")
	}
}

func TestDecryptPackRejectsWrongVersion(t *testing.T) {
	keySet := testKeySet(t)
	packHash := HashPack(HashChunk([]byte("weights")))

	encrypted, err := keySet.EncryptPack([]byte("payload"), packHash)
	if err != nil {
		t.Fatalf("EncryptPack: %v", err)
	}
	encrypted[0] = 0x02
	if _, err := keySet.DecryptPack(encrypted, packHash); err == nil {
		t.Error("DecryptPack should reject an unknown version byte")
	}
}

func TestDecryptPackRejectsShortBlob(t *testing.T) {
	keySet := testKeySet(t)
	packHash := HashPack(HashChunk([]byte("weights")))

	if _, err := keySet.DecryptPack([]byte{0x01, 0x02}, packHash); err == nil {
		t.Error("DecryptPack should reject blobs shorter than the overhead")
	}
}

func TestNewKeySetRejectsWrongKeySize(t *testing.T) {
	buffer, err := secret.NewFromBytes([]byte("short"))
	if err != nil {
		t.Fatalf("secret.NewFromBytes: %v", err)
	}
	defer buffer.Close()

	if _, err := NewKeySet(buffer); err == nil {
		t.Error("NewKeySet should reject keys that are not 32 bytes")
	}
}

func TestDerivedKeysDifferPerPack(t *testing.T) {
	key := make([]byte, KeySize)
	buffer, err := secret.NewFromBytes(key)
	if err != nil {
		t.Fatalf("secret.NewFromBytes: %v", err)
	}
	defer buffer.Close()

	first, err := DerivePerModelKey(buffer, HashPack(HashChunk([]byte("a"))))
	if err != nil {
		t.Fatalf("DerivePerModelKey: %v", err)
	}
	defer first.Close()

	second, err := DerivePerModelKey(buffer, HashPack(HashChunk([]byte("b"))))
	if err != nil {
		t.Fatalf("DerivePerModelKey: %v", err)
	}
	defer second.Close()

	if bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("different pack hashes must derive different keys")
	}
}
