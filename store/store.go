// Copyright 2026 The Zenstore Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store implements the in-memory key/value engine and its
// persistence to a single file encrypted with XSalsa20-Poly1305
// (crypto_secretbox). A Store is not safe for concurrent use; the request
// actor that owns it is expected to serialize all access (§5).
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/creachadair/atomicfile"
	"golang.org/x/crypto/nacl/secretbox"

	"github.com/zenstore/zenstore/internal/zeroize"
	"github.com/zenstore/zenstore/nonce"
)

// KeyWidth is the width in bytes of the symmetric key required by
// crypto_secretbox.
const KeyWidth = 32

// Key is the fixed-width symmetric key used to encrypt and decrypt a
// store's container.
type Key [KeyWidth]byte

// Store holds the in-memory key/value mapping and the configuration needed
// to persist it.
type Store struct {
	data map[string][]byte
	n    nonce.Nonce
	dir  string
	file string
}

// New returns an empty store with a zero nonce and no persistence target
// configured.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// SetDir configures the target directory for Save and Load, replacing any
// previous value.
func (s *Store) SetDir(path string) { s.dir = path }

// SetFile configures the target file name for Save and Load, replacing any
// previous value.
func (s *Store) SetFile(name string) { s.file = name }

// Dir returns the currently configured directory.
func (s *Store) Dir() string { return s.dir }

// File returns the currently configured file name.
func (s *Store) File() string { return s.file }

// Put inserts or replaces the value under key. A nil value removes key
// instead (a no-op if key is not present); a non-nil, possibly empty, value
// is deep-copied into store-owned storage. Any previously stored bytes under
// key are wiped before being released.
func (s *Store) Put(key string, value []byte) {
	if old, ok := s.data[key]; ok {
		zeroize.Bytes(old)
		delete(s.data, key)
	}
	if value == nil {
		return
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	s.data[key] = cp
}

// Get returns a borrowed view of the value stored under key. The returned
// slice's validity ends at the next mutating call on the same key, or at
// Load. The second result is false if key is not present.
func (s *Store) Get(key string) ([]byte, bool) {
	v, ok := s.data[key]
	return v, ok
}

// Len reports the number of keys currently held.
func (s *Store) Len() int { return len(s.data) }

// path joins the configured directory and file, or returns an error if
// either is unset.
func (s *Store) path() (string, error) {
	if s.dir == "" || s.file == "" {
		return "", ErrConfigMissing
	}
	return filepath.Join(s.dir, s.file), nil
}

// Save writes the current mapping to disk encrypted under key, following
// the container layout in §4.2.2 and the atomic-write discipline in
// §4.2.3.
func (s *Store) Save(key Key) error {
	path, err := s.path()
	if err != nil {
		return err
	}

	if !s.n.IsInitialized() {
		if err := s.n.Randomize(); err != nil {
			return fmt.Errorf("%w: generating nonce: %v", ErrCipher, err)
		}
	}

	header := buildHeaderFrame(s.n)
	packed := packMap(s.data)

	var nonceArr [nonce.Size]byte
	copy(nonceArr[:], s.n.Raw())
	keyArr := [KeyWidth]byte(key)

	ciphertext := secretbox.Seal(nil, packed, &nonceArr, &keyArr)
	zeroize.Bytes(packed)

	envelope := buildEnvelope(header, ciphertext)
	defer zeroize.Bytes(envelope)

	if err := atomicfile.WriteData(path, envelope, 0600); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrIO, path, err)
	}
	return nil
}

// Load reads, authenticates, and decrypts the container at the configured
// path, then replaces the in-memory mapping and nonce with its contents.
// Load is transactional: on any failure the store's existing state is left
// untouched.
func (s *Store) Load(key Key) error {
	path, err := s.path()
	if err != nil {
		return err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", ErrIO, path, err)
	}
	if fi.Mode().Perm() != 0600 {
		return fmt.Errorf("%w: %s has mode %v", ErrPermission, path, fi.Mode().Perm())
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrIO, path, err)
	}

	header, ciphertext, err := parseEnvelope(buf)
	if err != nil {
		return err
	}

	fields, err := parseHeaderFrame(header)
	if err != nil {
		return err
	}
	loadedNonce, err := validateHeader(fields)
	if err != nil {
		return err
	}

	var nonceArr [nonce.Size]byte
	copy(nonceArr[:], loadedNonce.Raw())
	keyArr := [KeyWidth]byte(key)

	packed, ok := secretbox.Open(nil, ciphertext, &nonceArr, &keyArr)
	if !ok {
		return ErrAuth
	}
	defer zeroize.Bytes(packed)

	newData, err := unpackMap(packed)
	if err != nil {
		return err
	}

	// Only now, after successful authenticated decryption, replace the
	// store's visible state (§9: load must be transactional).
	for _, v := range s.data {
		zeroize.Bytes(v)
	}
	s.data = newData
	s.n = loadedNonce
	return nil
}

// Close wipes all sensitive in-memory state. The store must not be used
// after Close.
func (s *Store) Close() {
	for _, v := range s.data {
		zeroize.Bytes(v)
	}
	s.data = nil
	s.n.Zero()
}

