// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package modelstore

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest. Chunk and pack hashes are keyed
// with domain separation; file digests (ModelArtifact.Digest) use
// plain unkeyed BLAKE3 so they match `b3sum` output.
type Hash [32]byte

// domainKey is a 32-byte key for BLAKE3 keyed hashing. The byte
// values are the ASCII domain name zero-padded to 32 bytes, so the
// keys are readable in hex dumps while remaining opaque 32-byte
// values to BLAKE3 keyed mode.
type domainKey [32]byte

// Domain separation keys. Fixed protocol constants — changing them
// invalidates every existing pack.
var (
	chunkDomainKey = domainKey{
		'g', 'a', 'n', 't', 'r', 'y', '.', 'm', 'o', 'd', 'e', 'l', '.',
		'c', 'h', 'u', 'n', 'k', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	packDomainKey = domainKey{
		'g', 'a', 'n', 't', 'r', 'y', '.', 'm', 'o', 'd', 'e', 'l', '.',
		'p', 'a', 'c', 'k', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// HashChunk computes the chunk-domain keyed hash of uncompressed
// chunk data. Chunk hashes are always taken over uncompressed bytes
// so they stay stable across compression algorithm changes.
func HashChunk(data []byte) Hash {
	return keyedHash(chunkDomainKey, data)
}

// HashPack computes the pack-domain hash from the Merkle root over a
// pack's chunk hashes. This is the pack's identity for transfer and
// dedup.
func HashPack(merkleRoot Hash) Hash {
	return keyedHash(packDomainKey, merkleRoot[:])
}

// MerkleRoot computes a binary Merkle tree over the given hashes and
// returns the root. Adjacent pairs are concatenated and keyed-hashed;
// an odd trailing node is promoted to the next level unhashed
// (duplicating it would let a prefix input collide with its
// extension).
//
// Panics if hashes is empty.
func MerkleRoot(hashes []Hash) Hash {
	if len(hashes) == 0 {
		panic("modelstore.MerkleRoot: empty hash list")
	}
	if len(hashes) == 1 {
		return hashes[0]
	}

	hasher, err := blake3.NewKeyed(chunkDomainKey[:])
	if err != nil {
		panic("modelstore: BLAKE3 keyed hash initialization failed: " + err.Error())
	}

	var combined [64]byte
	hashPair := func(left, right Hash) Hash {
		copy(combined[:32], left[:])
		copy(combined[32:], right[:])
		hasher.Reset()
		hasher.Write(combined[:])
		var result Hash
		copy(result[:], hasher.Sum(nil))
		return result
	}

	level := make([]Hash, len(hashes))
	copy(level, hashes)

	for len(level) > 1 {
		nextLength := (len(level) + 1) / 2
		next := make([]Hash, nextLength)
		for i := 0; i < len(level)-1; i += 2 {
			next[i/2] = hashPair(level[i], level[i+1])
		}
		if len(level)%2 == 1 {
			next[nextLength-1] = level[len(level)-1]
		}
		level = next
	}
	return level[0]
}

// DigestFile computes the plain BLAKE3 digest of a file's contents,
// streaming so multi-gigabyte weights files never load into memory.
// Returns the lowercase hex string stored in ModelArtifact.Digest.
func DigestFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening weights file for digest: %w", err)
	}
	defer file.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("digesting %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// FormatHash returns the hex-encoded string form of a hash.
func FormatHash(hash Hash) string {
	return hex.EncodeToString(hash[:])
}

// ParseHash parses a 64-character hex string into a Hash.
func ParseHash(hexString string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return hash, fmt.Errorf("parsing model hash: %w", err)
	}
	if len(decoded) != 32 {
		return hash, fmt.Errorf("model hash is %d bytes, want 32", len(decoded))
	}
	copy(hash[:], decoded)
	return hash, nil
}

// keyedHash computes a BLAKE3 keyed hash with the given domain key.
func keyedHash(key domainKey, data []byte) Hash {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("modelstore: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}
