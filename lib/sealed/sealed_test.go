// Copyright 2026 The Gantry Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
)

func TestGenerateKeypair(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer keypair.Close()

	if !strings.HasPrefix(keypair.Identity.String(), "AGE-SECRET-KEY-1") {
		t.Error("identity missing AGE-SECRET-KEY-1 prefix")
	}
	if !strings.HasPrefix(keypair.Recipient, "age1") {
		t.Errorf("Recipient = %q, want age1 prefix", keypair.Recipient)
	}

	second, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer second.Close()
	if second.Recipient == keypair.Recipient {
		t.Error("two generated keypairs share a recipient")
	}
}

func TestSealRoundTrip(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer keypair.Close()

	var ciphertext bytes.Buffer
	sealer, err := SealWriter(&ciphertext, []string{keypair.Recipient})
	if err != nil {
		t.Fatalf("SealWriter: %v", err)
	}
	payload := []byte(`{"hostname":"forge-07","sample_count":1440}`)
	if _, err := sealer.Write(payload); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sealer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if bytes.Contains(ciphertext.Bytes(), []byte("forge-07")) {
		t.Error("ciphertext contains plaintext")
	}

	opened, err := OpenSealed(&ciphertext, keypair.Identity)
	if err != nil {
		t.Fatalf("OpenSealed: %v", err)
	}
	var bundle struct {
		Hostname    string `json:"hostname"`
		SampleCount int    `json:"sample_count"`
	}
	if err := json.NewDecoder(opened).Decode(&bundle); err != nil {
		t.Fatalf("decoding opened bundle: %v", err)
	}
	if bundle.Hostname != "forge-07" || bundle.SampleCount != 1440 {
		t.Errorf("bundle = %+v, want forge-07/1440", bundle)
	}
}

func TestSealToMultipleRecipients(t *testing.T) {
	support, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer support.Close()
	escrow, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer escrow.Close()

	var ciphertext bytes.Buffer
	sealer, err := SealWriter(&ciphertext, []string{support.Recipient, escrow.Recipient})
	if err != nil {
		t.Fatalf("SealWriter: %v", err)
	}
	if _, err := sealer.Write([]byte("shared bundle")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sealer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for name, keypair := range map[string]*Keypair{"support": support, "escrow": escrow} {
		opened, err := OpenSealed(bytes.NewReader(ciphertext.Bytes()), keypair.Identity)
		if err != nil {
			t.Fatalf("OpenSealed(%s): %v", name, err)
		}
		plaintext, err := io.ReadAll(opened)
		if err != nil {
			t.Fatalf("reading %s plaintext: %v", name, err)
		}
		if string(plaintext) != "shared bundle" {
			t.Errorf("%s plaintext = %q, want %q", name, plaintext, "shared bundle")
		}
	}
}

func TestOpenSealedWrongIdentity(t *testing.T) {
	sealer1, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer sealer1.Close()
	other, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer other.Close()

	var ciphertext bytes.Buffer
	sealer, err := SealWriter(&ciphertext, []string{sealer1.Recipient})
	if err != nil {
		t.Fatalf("SealWriter: %v", err)
	}
	if _, err := sealer.Write([]byte("for sealer1 only")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sealer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := OpenSealed(&ciphertext, other.Identity); err == nil {
		t.Fatal("OpenSealed with the wrong identity succeeded")
	}
}

func TestOpenSealedTruncated(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer keypair.Close()

	var ciphertext bytes.Buffer
	sealer, err := SealWriter(&ciphertext, []string{keypair.Recipient})
	if err != nil {
		t.Fatalf("SealWriter: %v", err)
	}
	if _, err := sealer.Write([]byte("bundle that will be cut short")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sealer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	truncated := ciphertext.Bytes()[:ciphertext.Len()-8]
	opened, err := OpenSealed(bytes.NewReader(truncated), keypair.Identity)
	if err != nil {
		// The header itself may be cut; that is an acceptable failure
		// point too.
		return
	}
	if _, err := io.ReadAll(opened); err == nil {
		t.Fatal("reading a truncated bundle succeeded")
	}
}

func TestSealWriterRequiresRecipient(t *testing.T) {
	if _, err := SealWriter(io.Discard, nil); err == nil {
		t.Fatal("SealWriter with no recipients succeeded")
	}
}

func TestSealWriterRejectsBadRecipient(t *testing.T) {
	_, err := SealWriter(io.Discard, []string{"age1notarealkey"})
	if err == nil {
		t.Fatal("SealWriter accepted a malformed recipient")
	}
}

func TestParsePublicKey(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer keypair.Close()

	if err := ParsePublicKey(keypair.Recipient); err != nil {
		t.Errorf("ParsePublicKey(valid) = %v", err)
	}
	if err := ParsePublicKey("ssh-ed25519 AAAA"); err == nil {
		t.Error("ParsePublicKey accepted a non-age key")
	}
	if err := ParsePublicKey(""); err == nil {
		t.Error("ParsePublicKey accepted an empty key")
	}
}

func TestParsePrivateKey(t *testing.T) {
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	defer keypair.Close()

	if err := ParsePrivateKey(keypair.Identity); err != nil {
		t.Errorf("ParsePrivateKey(valid) = %v", err)
	}
	if err := ParsePrivateKey(keypair.Identity); err != nil {
		t.Errorf("ParsePrivateKey is not repeatable: %v", err)
	}
}
