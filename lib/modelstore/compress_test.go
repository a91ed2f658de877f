// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package modelstore

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/gantry-foundation/gantry/lib/schema"
)

// makeTensorData produces float32 bytes resembling neural network
// weights: small values clustered around zero, so adjacent floats
// share exponent bytes and BG4 grouping pays off.
func makeTensorData(count int) []byte {
	generator := rand.New(rand.NewSource(42))
	values := make([]float32, count)
	for i := range values {
		values[i] = float32(generator.NormFloat64() * 0.02)
	}
	return Float32SliceToBytes(values)
}

func TestCompressRoundTripAllTags(t *testing.T) {
	text := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog\n", 200))
	tensor := makeTensorData(4096)

	tests := []struct {
		name string
		tag  CompressionTag
		data []byte
	}{
		{"none", CompressionNone, tensor},
		{"lz4 text", CompressionLZ4, text},
		{"zstd text", CompressionZstd, text},
		{"bg4_lz4 tensor", CompressionBG4LZ4, tensor},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			compressed, err := CompressChunk(test.data, test.tag)
			if err != nil {
				t.Fatalf("CompressChunk: %v", err)
			}
			decompressed, err := DecompressChunk(compressed, test.tag, len(test.data))
			if err != nil {
				t.Fatalf("DecompressChunk: %v", err)
			}
			if !bytes.Equal(decompressed, test.data) {
				t.Error("round trip did not reproduce original data")
			}
		})
	}
}

func TestCompressIncompressibleData(t *testing.T) {
	// High-entropy random bytes cannot shrink.
	generator := rand.New(rand.NewSource(7))
	data := make([]byte, 4096)
	generator.Read(data)

	_, err := CompressChunk(data, CompressionLZ4)
	if !IsIncompressible(err) {
		t.Errorf("LZ4 on random data: err = %v, want incompressible", err)
	}
	_, err = CompressChunk(data, CompressionZstd)
	if !IsIncompressible(err) {
		t.Errorf("zstd on random data: err = %v, want incompressible", err)
	}
}

func TestBG4TransposeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"aligned", []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		{"remainder", []byte{1, 2, 3, 4, 5, 6}},
		{"short", []byte{1, 2, 3}},
		{"empty", nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			transposed := bg4Transpose(test.data)
			restored := bg4Untranspose(transposed)
			if !bytes.Equal(restored, test.data) {
				t.Errorf("round trip: got %v, want %v", restored, test.data)
			}
		})
	}
}

func TestBG4TransposeGroupsBytePositions(t *testing.T) {
	data := []byte{0xA0, 0xB0, 0xC0, 0xD0, 0xA1, 0xB1, 0xC1, 0xD1}
	expected := []byte{0xA0, 0xA1, 0xB0, 0xB1, 0xC0, 0xC1, 0xD0, 0xD1}

	transposed := bg4Transpose(data)
	if !bytes.Equal(transposed, expected) {
		t.Errorf("bg4Transpose = %v, want %v", transposed, expected)
	}
}

func TestBG4BeatsPlainLZ4OnTensorData(t *testing.T) {
	tensor := makeTensorData(16384)

	bg4, err := CompressChunk(tensor, CompressionBG4LZ4)
	if err != nil {
		t.Fatalf("BG4+LZ4 compress: %v", err)
	}

	plain, err := CompressChunk(tensor, CompressionLZ4)
	if IsIncompressible(err) {
		// Plain LZ4 often cannot compress float data at all, which
		// is exactly the point of the transpose.
		return
	}
	if err != nil {
		t.Fatalf("LZ4 compress: %v", err)
	}
	if len(bg4) >= len(plain) {
		t.Errorf("BG4+LZ4 produced %d bytes, plain LZ4 %d; transpose should win on tensor data",
			len(bg4), len(plain))
	}
}

func TestSelectCompression(t *testing.T) {
	text := []byte(strings.Repeat("tokenizer vocabulary entry\n", 500))
	random := make([]byte, 4096)
	rand.New(rand.NewSource(3)).Read(random)

	if got := SelectCompression(text, schema.FormatGGUF); got != CompressionZstd {
		t.Errorf("SelectCompression(text) = %v, want zstd", got)
	}
	if got := SelectCompression(random, schema.FormatGGUF); got != CompressionNone {
		t.Errorf("SelectCompression(random) = %v, want none", got)
	}
	if got := SelectCompression(random, schema.FormatSafetensors); got != CompressionBG4LZ4 {
		t.Errorf("SelectCompression(safetensors) = %v, want bg4_lz4", got)
	}
	if got := SelectCompression(nil, schema.FormatGGUF); got != CompressionNone {
		t.Errorf("SelectCompression(empty) = %v, want none", got)
	}
}

func TestCompressChunkAutoFallsBackToNone(t *testing.T) {
	random := make([]byte, 4096)
	rand.New(rand.NewSource(9)).Read(random)

	stored, tag, err := CompressChunkAuto(random, schema.FormatGGUF)
	if err != nil {
		t.Fatalf("CompressChunkAuto: %v", err)
	}
	if tag != CompressionNone {
		t.Errorf("tag = %v, want none for incompressible data", tag)
	}
	if !bytes.Equal(stored, random) {
		t.Error("CompressionNone fallback must return the input unchanged")
	}
}

func TestCompressionTagStrings(t *testing.T) {
	for _, tag := range []CompressionTag{CompressionNone, CompressionLZ4, CompressionZstd, CompressionBG4LZ4} {
		parsed, err := ParseCompressionTag(tag.String())
		if err != nil {
			t.Errorf("ParseCompressionTag(%q): %v", tag.String(), err)
		}
		if parsed != tag {
			t.Errorf("ParseCompressionTag(%q) = %v, want %v", tag.String(), parsed, tag)
		}
	}
	if _, err := ParseCompressionTag("gzip"); err == nil {
		t.Error("ParseCompressionTag should reject unknown names")
	}
}
