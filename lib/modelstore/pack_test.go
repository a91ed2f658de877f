// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package modelstore

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/gantry-foundation/gantry/lib/schema"
)

func TestPackRoundTrip(t *testing.T) {
	chunks := [][]byte{
		[]byte("first chunk of tensor data"),
		[]byte("second chunk"),
		makeTensorData(1024),
	}

	builder := NewPackBuilder()
	for _, chunk := range chunks {
		compressed, tag, err := CompressChunkAuto(chunk, schema.FormatGGUF)
		if err != nil {
			t.Fatalf("CompressChunkAuto: %v", err)
		}
		builder.AddChunk(HashChunk(chunk), compressed, tag, uint32(len(chunk)))
	}

	var packBytes bytes.Buffer
	packHash, err := builder.Flush(&packBytes)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reader, err := ReadPackIndex(bytes.NewReader(packBytes.Bytes()))
	if err != nil {
		t.Fatalf("ReadPackIndex: %v", err)
	}
	if reader.Hash != packHash {
		t.Errorf("reader hash %s != builder hash %s", FormatHash(reader.Hash), FormatHash(packHash))
	}
	if len(reader.Index) != len(chunks) {
		t.Fatalf("index has %d chunks, want %d", len(reader.Index), len(chunks))
	}

	readSeeker := bytes.NewReader(packBytes.Bytes())
	for i, original := range chunks {
		data, err := reader.ReadChunk(readSeeker, i)
		if err != nil {
			t.Fatalf("ReadChunk(%d): %v", i, err)
		}
		if !bytes.Equal(data, original) {
			t.Errorf("chunk %d does not match original", i)
		}
	}
}

func TestPackFlushEmptyFails(t *testing.T) {
	var output bytes.Buffer
	if _, err := NewPackBuilder().Flush(&output); err == nil {
		t.Error("Flush on empty builder should fail")
	}
}

func TestReadPackIndexRejectsBadMagic(t *testing.T) {
	_, err := ReadPackIndex(bytes.NewReader([]byte("NOTAPACKxxxxxxxx")))
	if err == nil {
		t.Error("ReadPackIndex should reject invalid magic")
	}
}

func TestReadPackIndexRejectsFutureVersion(t *testing.T) {
	data := []byte{'G', 'A', 'N', 'T', 'R', 'Y', 99, 0, 1, 0, 0, 0}
	_, err := ReadPackIndex(bytes.NewReader(data))
	if err == nil {
		t.Error("ReadPackIndex should reject unknown versions")
	}
}

func TestReadChunkDetectsCorruption(t *testing.T) {
	chunk := []byte("some weights data that compresses: aaaaaaaaaaaaaaaaaaaaaaaa")
	builder := NewPackBuilder()
	compressed, tag, err := CompressChunkAuto(chunk, schema.FormatGGUF)
	if err != nil {
		t.Fatalf("CompressChunkAuto: %v", err)
	}
	builder.AddChunk(HashChunk(chunk), compressed, tag, uint32(len(chunk)))

	var packBytes bytes.Buffer
	if _, err := builder.Flush(&packBytes); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	// Flip a byte in the chunk data region.
	corrupted := packBytes.Bytes()
	corrupted[len(corrupted)-1] ^= 0xFF

	reader, err := ReadPackIndex(bytes.NewReader(corrupted))
	if err != nil {
		t.Fatalf("ReadPackIndex: %v", err)
	}
	if _, err := reader.ReadChunk(bytes.NewReader(corrupted), 0); err == nil {
		t.Error("ReadChunk should detect corrupted chunk data")
	}
}

func TestPackFileRoundTrip(t *testing.T) {
	directory := t.TempDir()
	weightsPath := filepath.Join(directory, "model.gguf")

	weights := append(makeTensorData(8192), []byte("metadata tail")...)
	if err := os.WriteFile(weightsPath, weights, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var packBytes bytes.Buffer
	packHash, chunkCount, err := PackFile(weightsPath, schema.FormatGGUF, &packBytes)
	if err != nil {
		t.Fatalf("PackFile: %v", err)
	}
	if chunkCount != 1 {
		t.Errorf("chunkCount = %d, want 1 for content under the chunk size", chunkCount)
	}

	var restored bytes.Buffer
	readHash, err := UnpackFile(bytes.NewReader(packBytes.Bytes()), &restored)
	if err != nil {
		t.Fatalf("UnpackFile: %v", err)
	}
	if readHash != packHash {
		t.Errorf("unpack hash %s != pack hash %s", FormatHash(readHash), FormatHash(packHash))
	}
	if !bytes.Equal(restored.Bytes(), weights) {
		t.Error("unpacked weights do not match original")
	}
}

func TestPackFileEmptyFails(t *testing.T) {
	directory := t.TempDir()
	weightsPath := filepath.Join(directory, "empty.gguf")
	if err := os.WriteFile(weightsPath, nil, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var output bytes.Buffer
	if _, _, err := PackFile(weightsPath, schema.FormatGGUF, &output); err == nil {
		t.Error("PackFile on an empty file should fail")
	}
}

func TestMerkleRootProperties(t *testing.T) {
	a := HashChunk([]byte("a"))
	b := HashChunk([]byte("b"))
	c := HashChunk([]byte("c"))

	if MerkleRoot([]Hash{a}) != a {
		t.Error("single-hash Merkle root should be the hash itself")
	}
	if MerkleRoot([]Hash{a, b}) == MerkleRoot([]Hash{b, a}) {
		t.Error("Merkle root must be order-sensitive")
	}
	// Odd node promotion: {a, b, c} pairs (a,b) and promotes c.
	root := MerkleRoot([]Hash{a, b, c})
	if root == MerkleRoot([]Hash{a, b}) {
		t.Error("adding a chunk must change the root")
	}
}
