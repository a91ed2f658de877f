// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package modelstore

import (
	"fmt"
	"io"
	"os"

	"github.com/gantry-foundation/gantry/lib/schema"
)

// PackFile chunks a weights file at DefaultChunkSize boundaries,
// compresses each chunk with the format's preferred algorithm, and
// writes the pack to w. Returns the pack hash and chunk count.
func PackFile(path string, format schema.ModelFormat, w io.Writer) (Hash, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return Hash{}, 0, fmt.Errorf("opening weights file: %w", err)
	}
	defer file.Close()

	builder := NewPackBuilder()
	buffer := make([]byte, DefaultChunkSize)
	for {
		n, readErr := io.ReadFull(file, buffer)
		if n > 0 {
			chunk := buffer[:n]
			compressed, tag, err := CompressChunkAuto(chunk, format)
			if err != nil {
				return Hash{}, 0, fmt.Errorf("compressing chunk %d: %w", builder.ChunkCount(), err)
			}
			// AddChunk retains the compressed slice; copy when the
			// incompressible path handed back the read buffer.
			if tag == CompressionNone {
				compressed = append([]byte(nil), compressed...)
			}
			builder.AddChunk(HashChunk(chunk), compressed, tag, uint32(n))
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return Hash{}, 0, fmt.Errorf("reading weights file: %w", readErr)
		}
	}
	if builder.ChunkCount() == 0 {
		return Hash{}, 0, fmt.Errorf("weights file %s is empty", path)
	}

	count := builder.ChunkCount()
	packHash, err := builder.Flush(w)
	if err != nil {
		return Hash{}, 0, err
	}
	return packHash, count, nil
}

// UnpackFile reads every chunk of a pack in order, verifies each
// against the index, and writes the reassembled weights to w. Returns
// the pack hash from the index.
func UnpackFile(rs io.ReadSeeker, w io.Writer) (Hash, error) {
	reader, err := ReadPackIndex(rs)
	if err != nil {
		return Hash{}, err
	}
	for i := range reader.Index {
		data, err := reader.ReadChunk(rs, i)
		if err != nil {
			return Hash{}, err
		}
		if _, err := w.Write(data); err != nil {
			return Hash{}, fmt.Errorf("writing chunk %d: %w", i, err)
		}
	}
	return reader.Hash, nil
}
