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

// Package nonce implements the fixed-width nonce value used to encrypt a
// store's on-disk container. A nonce is either zero (freshly constructed, not
// yet used for any save) or initialized (randomized once and reused across
// loads of the same file).
package nonce

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/zenstore/zenstore/internal/zeroize"
)

// Size is the width in bytes of a nonce, fixed by the crypto_secretbox
// primitive's nonce requirement.
const Size = 24

// hexLen is the length of the canonical lowercase hex encoding of a nonce.
const hexLen = 2 * Size

// A Nonce is a fixed-width byte sequence. The zero value is the zero nonce.
type Nonce struct {
	b [Size]byte
}

// New returns a zero nonce.
func New() Nonce { return Nonce{} }

// IsInitialized reports whether n has at least one non-zero byte.
func (n Nonce) IsInitialized() bool {
	for _, b := range n.b {
		if b != 0 {
			return true
		}
	}
	return false
}

// Randomize overwrites n with cryptographically strong random bytes.
func (n *Nonce) Randomize() error {
	_, err := rand.Read(n.b[:])
	return err
}

// Raw returns a borrowed view of the N raw bytes of n. Callers must not
// retain the slice past the lifetime of n.
func (n *Nonce) Raw() []byte { return n.b[:] }

// Hex returns the lowercase hex encoding of n, of length 2*Size.
func (n Nonce) Hex() string { return hex.EncodeToString(n.b[:]) }

// Clone returns an independent copy of n.
func (n Nonce) Clone() Nonce {
	var out Nonce
	copy(out.b[:], n.b[:])
	return out
}

// Equal reports whether n and other hold the same bytes.
func (n Nonce) Equal(other Nonce) bool { return n.b == other.b }

// Zero wipes the nonce's bytes, leaving it the zero nonce.
func (n *Nonce) Zero() { zeroize.Bytes(n.b[:]) }

// ErrInvalidHex is returned by ParseHex when the input text is too long or is
// not valid hex of the expected width.
var ErrInvalidHex = fmt.Errorf("nonce: invalid hex encoding")

// ParseHex parses s as the hex encoding of a nonce and, on success,
// overwrites n with the result. It fails when len(s) exceeds 2*Size+1
// characters, when s is not valid hex, or when the decoded value is not
// exactly Size bytes long.
func ParseHex(n *Nonce, s string) error {
	if len(s) > hexLen+1 {
		return ErrInvalidHex
	}
	dec, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	if len(dec) != Size {
		return ErrInvalidHex
	}
	copy(n.b[:], dec)
	return nil
}
