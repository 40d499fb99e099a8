// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
)

// Backend is the contract every store in this package satisfies.
// Sealed wraps one.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Sealed encrypts blobs with age before handing them to the inner
// store, and decrypts on load. Only the holder of the identity can
// read what was saved.
type Sealed struct {
	inner    Backend
	identity *age.X25519Identity
}

// NewSealed wraps inner with encryption to identity's recipient.
func NewSealed(inner Backend, identity *age.X25519Identity) *Sealed {
	return &Sealed{inner: inner, identity: identity}
}

// Load decrypts the inner blob. An empty inner store loads as nil.
func (s *Sealed) Load(ctx context.Context) ([]byte, error) {
	ciphertext, err := s.inner.Load(ctx)
	if err != nil || len(ciphertext) == 0 {
		return nil, err
	}
	reader, err := age.Decrypt(bytes.NewReader(ciphertext), s.identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting blob: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted blob: %w", err)
	}
	return plaintext, nil
}

// Save encrypts data and stores the ciphertext in the inner store.
func (s *Sealed) Save(ctx context.Context, data []byte) error {
	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, s.identity.Recipient())
	if err != nil {
		return fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("writing plaintext to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalizing age encryption: %w", err)
	}
	return s.inner.Save(ctx, ciphertext.Bytes())
}

// LoadOrCreateIdentity reads an age X25519 identity (AGE-SECRET-KEY-1...)
// from path. When the file does not exist a new identity is generated
// and written with mode 0600, so the first run of a sealed store needs
// no setup.
func LoadOrCreateIdentity(path string) (*age.X25519Identity, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		identity, err := age.GenerateX25519Identity()
		if err != nil {
			return nil, fmt.Errorf("generating age identity: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating identity directory: %w", err)
		}
		content := "# cmdsearch recent-items key\n# public key: " + identity.Recipient().String() + "\n" + identity.String() + "\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return nil, fmt.Errorf("writing identity file: %w", err)
		}
		return identity, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		identity, err := age.ParseX25519Identity(line)
		if err != nil {
			return nil, fmt.Errorf("parsing identity in %s: %w", path, err)
		}
		return identity, nil
	}
	return nil, fmt.Errorf("identity file %s contains no key", path)
}
