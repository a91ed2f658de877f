// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import (
	"fmt"
	"time"
)

// ModelFormat is the on-disk serialization format of an installed
// model's weights.
type ModelFormat string

const (
	FormatSafetensors ModelFormat = "safetensors"
	FormatGGUF        ModelFormat = "gguf"
	FormatPyTorch     ModelFormat = "pytorch"
	FormatONNX        ModelFormat = "onnx"
	FormatUnknown     ModelFormat = "unknown"
)

// FormatForExtension maps a weights-file extension (without the dot)
// to its format. Unrecognized extensions map to FormatUnknown.
func FormatForExtension(ext string) ModelFormat {
	switch ext {
	case "safetensors":
		return FormatSafetensors
	case "gguf":
		return FormatGGUF
	case "pt", "pth", "bin":
		return FormatPyTorch
	case "onnx":
		return FormatONNX
	}
	return FormatUnknown
}

// ModelArtifact is one installed model in the workstation's model
// directory, as registered by lib/modelstore.
type ModelArtifact struct {
	// ID is the registry key, derived from the model's directory
	// name ("llama-3.3-70b-q4").
	ID string `json:"id"`

	// Name is the display name from the manifest, falling back to ID.
	Name string `json:"name"`

	// Format is the weights serialization format.
	Format ModelFormat `json:"format"`

	// ParameterCount is the parameter total ("70B" stored as the raw
	// count), zero when the manifest omits it.
	ParameterCount uint64 `json:"parameter_count,omitempty"`

	// QuantizationBits is the weight precision (4, 8, 16), zero for
	// unquantized or unknown.
	QuantizationBits int `json:"quantization_bits,omitempty"`

	// SizeBytes is the total size of the weights files on disk.
	SizeBytes uint64 `json:"size_bytes"`

	// Digest is the lowercase hex BLAKE3 digest of the primary
	// weights file; empty until verification has run.
	Digest string `json:"digest,omitempty"`

	// InstallPath is the absolute path of the model directory.
	InstallPath string `json:"install_path"`

	// InstalledAt is when the model appeared in the directory.
	InstalledAt time.Time `json:"installed_at,omitempty"`

	// LastUsedAt is the last time a workload referenced the model;
	// zero when never used.
	LastUsedAt time.Time `json:"last_used_at,omitempty"`
}

// Validate checks the fields a registry entry must carry.
func (m *ModelArtifact) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("model artifact missing id")
	}
	if m.InstallPath == "" {
		return fmt.Errorf("model artifact %q missing install path", m.ID)
	}
	return nil
}
