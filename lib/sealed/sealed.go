// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"filippo.io/age"

	"github.com/bureau-foundation/taiga/lib/secret"
)

// Sealer seals and opens small values. Identity implements it; tests
// that do not care about encryption can substitute a passthrough.
type Sealer interface {
	Seal(plaintext []byte) (string, error)
	Open(ciphertext string) (*secret.Buffer, error)
}

// Identity is an age X25519 keypair used to seal values to itself.
type Identity struct {
	identity *age.X25519Identity
}

// Generate creates a fresh in-memory identity.
func Generate() (*Identity, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age identity: %w", err)
	}
	return &Identity{identity: identity}, nil
}

// LoadOrCreate reads the identity stored at path, creating a new one
// (and any missing parent directories) when the file does not exist.
// The file holds a standard age identity so it can be used with the age
// command-line tool for recovery.
func LoadOrCreate(path string) (*Identity, error) {
	identity, err := Load(path)
	if err == nil {
		return identity, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	identity, err = Generate()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating identity directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			// Another process created it between our read and create.
			return Load(path)
		}
		return nil, fmt.Errorf("creating identity file: %w", err)
	}
	contents := fmt.Sprintf("# created: %s\n# public key: %s\n%s\n",
		time.Now().UTC().Format(time.RFC3339), identity.Recipient(), identity.identity)
	if _, err := io.WriteString(file, contents); err != nil {
		file.Close()
		os.Remove(path)
		return nil, fmt.Errorf("writing identity file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing identity file: %w", err)
	}
	return identity, nil
}

// Load reads an existing identity file. Returns an error wrapping
// os.ErrNotExist when the file is absent.
func Load(path string) (*Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading identity: %w", err)
	}
	defer secret.Zero(data)

	identities, err := age.ParseIdentities(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing identity %s: %w", path, err)
	}
	for _, candidate := range identities {
		if x25519, ok := candidate.(*age.X25519Identity); ok {
			return &Identity{identity: x25519}, nil
		}
	}
	return nil, fmt.Errorf("identity %s contains no X25519 key", path)
}

// Recipient returns the age public key (age1...) of the identity.
func (i *Identity) Recipient() string {
	return i.identity.Recipient().String()
}

// Seal encrypts plaintext to the identity's own recipient and returns
// base64 ciphertext.
func (i *Identity) Seal(plaintext []byte) (string, error) {
	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, i.identity.Recipient())
	if err != nil {
		return "", fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return "", fmt.Errorf("sealing: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing seal: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext.Bytes()), nil
}

// Open decrypts a value produced by Seal. The plaintext is returned in
// a secret.Buffer the caller must Close.
func (i *Identity) Open(ciphertext string) (*secret.Buffer, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ciphertext))
	if err != nil {
		return nil, fmt.Errorf("decoding sealed value: %w", err)
	}
	reader, err := age.Decrypt(bytes.NewReader(raw), i.identity)
	if err != nil {
		return nil, fmt.Errorf("opening sealed value: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("reading sealed value: %w", err)
	}
	return secret.NewFromBytes(plaintext)
}
