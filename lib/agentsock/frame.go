// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package agentsock

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gantry-foundation/gantry/lib/codec"
)

// MaxFrameSize bounds a single frame's CBOR payload. A full history
// response with thousands of samples stays well under this; anything
// larger indicates a broken or malicious peer.
const MaxFrameSize = 8 << 20

// WriteFrame encodes value as CBOR and writes it as one frame: a
// 4-byte big-endian payload length followed by the payload.
func WriteFrame(w io.Writer, value any) error {
	payload, err := codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("frame payload is %d bytes, maximum is %d", len(payload), MaxFrameSize)
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("writing frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("writing frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one frame and returns the raw CBOR payload.
func ReadFrame(r io.Reader) (codec.RawMessage, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		// EOF on the header boundary is a clean close; pass it
		// through unwrapped so callers can test for it.
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading frame header: %w", err)
	}

	length := binary.BigEndian.Uint32(header[:])
	if length > MaxFrameSize {
		return nil, fmt.Errorf("frame payload is %d bytes, maximum is %d", length, MaxFrameSize)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("reading frame payload: %w", err)
	}
	return payload, nil
}

// ReadFrameInto reads one frame and decodes it into value.
func ReadFrameInto(r io.Reader, value any) error {
	payload, err := ReadFrame(r)
	if err != nil {
		return err
	}
	if err := codec.Unmarshal(payload, value); err != nil {
		return fmt.Errorf("decoding frame: %w", err)
	}
	return nil
}
