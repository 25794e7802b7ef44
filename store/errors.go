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

package store

import "errors"

// Sentinel errors for the error kinds surfaced by save and load. Wrap with
// fmt.Errorf("...: %w", Err...) at the call site so errors.Is still matches
// while the message carries operation-specific detail.
var (
	// ErrConfigMissing is returned by Save or Load when the directory or file
	// name has not been configured.
	ErrConfigMissing = errors.New("store: directory or file not set")

	// ErrIO is returned when an open, read, write, rename, or unlink call
	// fails.
	ErrIO = errors.New("store: i/o error")

	// ErrPermission is returned by Load when the on-disk file's mode is not
	// exactly 0600.
	ErrPermission = errors.New("store: file permissions must be 0600")

	// ErrDecode is returned by Load when the envelope or header frame is
	// malformed.
	ErrDecode = errors.New("store: malformed container")

	// ErrUnsupportedHeader is returned by Load when version, method, cipher,
	// or nonce fields are missing or hold unexpected values.
	ErrUnsupportedHeader = errors.New("store: unsupported header")

	// ErrAuth is returned by Load when authenticated decryption fails. The
	// in-memory store is left unchanged when this error is returned.
	ErrAuth = errors.New("store: authentication failed")

	// ErrCipher is returned by Save when the encryption primitive fails.
	ErrCipher = errors.New("store: encryption failed")
)
