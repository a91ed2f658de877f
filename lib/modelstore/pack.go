// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package modelstore

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Pack format constants.
const (
	// packVersion is the current container format version.
	packVersion = 1

	// packHeaderSize is the fixed header: 8-byte magic + 4-byte
	// chunk count.
	packHeaderSize = 12

	// chunkIndexEntrySize is one chunk index entry: 32-byte hash +
	// 1-byte compression tag + 3 reserved bytes + 4-byte compressed
	// size + 4-byte uncompressed size + 4 reserved bytes. The
	// reserved bytes keep the uint32 fields 4-byte aligned and give
	// the entry an 8-byte stride.
	chunkIndexEntrySize = 48

	// DefaultChunkSize is the chunk boundary for packing weights
	// files. 4 MiB keeps per-chunk compression effective while
	// bounding the decompress buffer.
	DefaultChunkSize = 4 << 20
)

// packMagic is the 8-byte pack file signature: "GANTRY" + version
// byte + reserved byte.
var packMagic = [8]byte{'G', 'A', 'N', 'T', 'R', 'Y', packVersion, 0}

// ChunkIndexEntry describes a single chunk within a pack.
type ChunkIndexEntry struct {
	// Hash is the chunk-domain BLAKE3 keyed hash of the uncompressed
	// chunk data.
	Hash Hash

	// Compression is the algorithm used for this chunk.
	Compression CompressionTag

	// CompressedSize is the stored byte length.
	CompressedSize uint32

	// UncompressedSize is the original byte length.
	UncompressedSize uint32
}

// PackBuilder accumulates compressed chunks and writes them as a
// pack. The index precedes the data in the format, so chunk data is
// buffered in memory until Flush.
type PackBuilder struct {
	index []ChunkIndexEntry
	data  [][]byte
}

// NewPackBuilder creates an empty builder.
func NewPackBuilder() *PackBuilder {
	return &PackBuilder{}
}

// AddChunk appends a compressed chunk. The chunkHash must be computed
// over the UNCOMPRESSED data.
func (b *PackBuilder) AddChunk(chunkHash Hash, compressedData []byte, tag CompressionTag, uncompressedSize uint32) {
	b.index = append(b.index, ChunkIndexEntry{
		Hash:             chunkHash,
		Compression:      tag,
		CompressedSize:   uint32(len(compressedData)),
		UncompressedSize: uncompressedSize,
	})
	b.data = append(b.data, compressedData)
}

// ChunkCount returns the number of chunks added so far.
func (b *PackBuilder) ChunkCount() int {
	return len(b.index)
}

// Flush writes the complete pack to w and returns the pack hash (the
// pack-domain hash of the Merkle root over chunk hashes). The builder
// is reset for reuse. Flushing an empty builder is an error.
func (b *PackBuilder) Flush(w io.Writer) (Hash, error) {
	if len(b.index) == 0 {
		return Hash{}, fmt.Errorf("cannot flush empty pack")
	}

	if _, err := w.Write(packMagic[:]); err != nil {
		return Hash{}, fmt.Errorf("writing pack magic: %w", err)
	}

	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], uint32(len(b.index)))
	if _, err := w.Write(scratch[:]); err != nil {
		return Hash{}, fmt.Errorf("writing chunk count: %w", err)
	}

	chunkHashes := make([]Hash, len(b.index))
	for i, entry := range b.index {
		chunkHashes[i] = entry.Hash

		var record [chunkIndexEntrySize]byte
		copy(record[:32], entry.Hash[:])
		record[32] = byte(entry.Compression)
		binary.LittleEndian.PutUint32(record[36:40], entry.CompressedSize)
		binary.LittleEndian.PutUint32(record[40:44], entry.UncompressedSize)
		if _, err := w.Write(record[:]); err != nil {
			return Hash{}, fmt.Errorf("writing chunk %d index entry: %w", i, err)
		}
	}

	for i, d := range b.data {
		if _, err := w.Write(d); err != nil {
			return Hash{}, fmt.Errorf("writing chunk %d data: %w", i, err)
		}
	}

	packHash := HashPack(MerkleRoot(chunkHashes))

	b.index = b.index[:0]
	b.data = b.data[:0]
	return packHash, nil
}

// PackReader reads chunks from a pack. Create one with ReadPackIndex,
// then extract chunks with ReadChunk.
type PackReader struct {
	// Index is the parsed chunk index.
	Index []ChunkIndexEntry

	// Hash is the pack-domain hash recomputed from the index.
	Hash Hash

	// chunkOffsets[i] is chunk i's offset relative to the start of
	// chunk data.
	chunkOffsets []int64
	dataOffset   int64
}

// ReadPackIndex reads and validates the pack header and chunk index.
// The reader must be positioned at the start of the pack; afterwards
// it is positioned at the start of chunk data.
func ReadPackIndex(r io.Reader) (*PackReader, error) {
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("reading pack magic: %w", err)
	}
	if magic != packMagic {
		if magic[0] == 'G' && magic[1] == 'A' && magic[2] == 'N' &&
			magic[3] == 'T' && magic[4] == 'R' && magic[5] == 'Y' {
			return nil, fmt.Errorf("pack version %d is not supported (this code supports version %d)",
				magic[6], packVersion)
		}
		return nil, fmt.Errorf("not a gantry model pack (invalid magic bytes)")
	}

	var scratch [4]byte
	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return nil, fmt.Errorf("reading chunk count: %w", err)
	}
	chunkCount := binary.LittleEndian.Uint32(scratch[:])
	if chunkCount == 0 {
		return nil, fmt.Errorf("pack has zero chunks")
	}

	index := make([]ChunkIndexEntry, chunkCount)
	chunkHashes := make([]Hash, chunkCount)
	for i := uint32(0); i < chunkCount; i++ {
		var record [chunkIndexEntrySize]byte
		if _, err := io.ReadFull(r, record[:]); err != nil {
			return nil, fmt.Errorf("reading chunk %d index entry: %w", i, err)
		}

		copy(index[i].Hash[:], record[:32])
		chunkHashes[i] = index[i].Hash

		tag := CompressionTag(record[32])
		if tag > CompressionBG4LZ4 {
			return nil, fmt.Errorf("chunk %d has unsupported compression tag %d", i, tag)
		}
		index[i].Compression = tag

		if record[33] != 0 || record[34] != 0 || record[35] != 0 {
			return nil, fmt.Errorf("chunk %d has non-zero reserved bytes after compression tag", i)
		}
		index[i].CompressedSize = binary.LittleEndian.Uint32(record[36:40])
		index[i].UncompressedSize = binary.LittleEndian.Uint32(record[40:44])
		if record[44] != 0 || record[45] != 0 || record[46] != 0 || record[47] != 0 {
			return nil, fmt.Errorf("chunk %d has non-zero trailing reserved bytes", i)
		}
	}

	dataOffset := int64(packHeaderSize) + int64(chunkCount)*int64(chunkIndexEntrySize)
	chunkOffsets := make([]int64, chunkCount)
	var offset int64
	for i := range index {
		chunkOffsets[i] = offset
		offset += int64(index[i].CompressedSize)
	}

	return &PackReader{
		Index:        index,
		Hash:         HashPack(MerkleRoot(chunkHashes)),
		chunkOffsets: chunkOffsets,
		dataOffset:   dataOffset,
	}, nil
}

// ReadChunk reads and decompresses chunk chunkIndex from a seekable
// reader, verifying the chunk hash against the index.
func (pr *PackReader) ReadChunk(rs io.ReadSeeker, chunkIndex int) ([]byte, error) {
	if chunkIndex < 0 || chunkIndex >= len(pr.Index) {
		return nil, fmt.Errorf("chunk index %d out of range [0, %d)", chunkIndex, len(pr.Index))
	}
	entry := pr.Index[chunkIndex]

	offset := pr.dataOffset + pr.chunkOffsets[chunkIndex]
	if _, err := rs.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to chunk %d at offset %d: %w", chunkIndex, offset, err)
	}

	compressed := make([]byte, entry.CompressedSize)
	if _, err := io.ReadFull(rs, compressed); err != nil {
		return nil, fmt.Errorf("reading chunk %d data: %w", chunkIndex, err)
	}

	data, err := DecompressChunk(compressed, entry.Compression, int(entry.UncompressedSize))
	if err != nil {
		return nil, fmt.Errorf("decompressing chunk %d: %w", chunkIndex, err)
	}
	if HashChunk(data) != entry.Hash {
		return nil, fmt.Errorf("chunk %d hash mismatch (corrupted pack)", chunkIndex)
	}
	return data, nil
}
