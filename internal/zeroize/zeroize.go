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

// Package zeroize wipes sensitive byte buffers before their backing memory is
// released or reused: password/key bytes, plaintext packed-map buffers, and
// decrypted frames.
package zeroize

import "runtime"

// Bytes overwrites b with zeroes. The runtime.KeepAlive call after the loop
// is a compiler barrier: it prevents the compiler from proving the write is
// dead and eliminating it, which a plain loop followed by no further use of
// b would otherwise be eligible for.
func Bytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
