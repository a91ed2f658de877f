// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"fmt"
	"io"

	"filippo.io/age"

	"github.com/gantry-foundation/gantry/lib/secret"
)

// Keypair is an age x25519 keypair in the naming age itself uses: the
// identity decrypts, the recipient encrypts. The identity lives in a
// secret.Buffer (mmap-backed, locked against swap, excluded from core
// dumps); the recipient is a plain string, safe to publish in a
// support runbook.
//
// The caller must Close the keypair when the identity is no longer
// needed.
type Keypair struct {
	// Identity is the secret key in AGE-SECRET-KEY-1... format. Must
	// never be logged or passed as a CLI argument.
	Identity *secret.Buffer

	// Recipient is the corresponding public key in age1... format.
	Recipient string
}

// Close releases the identity memory (zeros, unlocks, unmaps).
// Idempotent.
func (k *Keypair) Close() error {
	if k.Identity != nil {
		return k.Identity.Close()
	}
	return nil
}

// GenerateKeypair generates a new age x25519 keypair for sealing
// diagnostic bundles. The caller must Close the result.
func GenerateKeypair() (*Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age keypair: %w", err)
	}

	// Move the secret key into mmap-backed memory immediately.
	// NewFromBytes zeros this intermediate slice; the string returned
	// by identity.String() stays on the heap until GC, which age's
	// API gives us no way around. The mmap buffer is the durable copy.
	identityBytes := []byte(identity.String())
	identityBuffer, err := secret.NewFromBytes(identityBytes)
	if err != nil {
		return nil, fmt.Errorf("protecting age identity: %w", err)
	}

	return &Keypair{
		Identity:  identityBuffer,
		Recipient: identity.Recipient().String(),
	}, nil
}

// SealWriter returns an age-encrypting writer over w. Bundles are
// streamed through it so a multi-day history export never needs the
// full ciphertext in memory. The caller must Close the returned
// writer to flush the final ciphertext chunk before closing w.
//
// At least one recipient is required. For diagnostic bundles the
// recipient is typically a support team key, optionally plus the
// operator's own escrow key.
func SealWriter(w io.Writer, recipientKeys []string) (io.WriteCloser, error) {
	if len(recipientKeys) == 0 {
		return nil, fmt.Errorf("at least one recipient is required")
	}
	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}
	writer, err := age.Encrypt(w, recipients...)
	if err != nil {
		return nil, fmt.Errorf("creating age encryptor: %w", err)
	}
	return writer, nil
}

// OpenSealed returns a plaintext reader over a sealed bundle stream.
// The identity is borrowed (read via String() to parse the age key)
// and is NOT closed by this function. Decryption streams: the
// returned reader yields plaintext as ciphertext is consumed from r,
// so callers can json.Decode a bundle without buffering it.
//
// age authenticates the stream; a truncated or tampered bundle
// surfaces as a read error, not as garbage plaintext.
func OpenSealed(r io.Reader, identityKey *secret.Buffer) (io.Reader, error) {
	identity, err := age.ParseX25519Identity(identityKey.String())
	if err != nil {
		return nil, fmt.Errorf("parsing age identity: %w", err)
	}
	reader, err := age.Decrypt(r, identity)
	if err != nil {
		return nil, fmt.Errorf("opening sealed bundle: %w", err)
	}
	return reader, nil
}

// ParsePublicKey validates an age public key string. Validate
// recipient keys from config or flags with this before sealing, so a
// typo fails at startup instead of after the history query.
func ParsePublicKey(publicKey string) error {
	if _, err := age.ParseX25519Recipient(publicKey); err != nil {
		return fmt.Errorf("invalid age public key: %w", err)
	}
	return nil
}

// ParsePrivateKey validates an age identity stored in a
// secret.Buffer.
func ParsePrivateKey(identityKey *secret.Buffer) error {
	if _, err := age.ParseX25519Identity(identityKey.String()); err != nil {
		return fmt.Errorf("invalid age identity: %w", err)
	}
	return nil
}
