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

import (
	"fmt"

	"github.com/creachadair/mds/mapset"
	"github.com/zenstore/zenstore/wire"
)

// packMap encodes m as the packed-map buffer described in §4.2.1: a sequence
// of frames alternating key, value, key, value, ... Iteration order over
// keys is not observable by callers, so map iteration order is used as-is.
// The buffer always starts with the 8-byte frame count, so an empty map
// encodes to those 8 bytes rather than to a zero-length buffer.
func packMap(m map[string][]byte) []byte {
	frames := make([][]byte, 0, 2*len(m))
	for k, v := range m {
		frames = append(frames, []byte(k), v)
	}
	return wire.Encode(frames...)
}

// unpackMap decodes a packed-map buffer into a fresh map. An odd frame count
// is a decode error, since frames must alternate key and value.
func unpackMap(buf []byte) (map[string][]byte, error) {
	frames, err := wire.Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: packed map: %v", ErrDecode, err)
	}
	if len(frames)%2 != 0 {
		return nil, fmt.Errorf("%w: packed map: odd frame count %d", ErrDecode, len(frames))
	}

	seen := mapset.New[string]()
	out := make(map[string][]byte, len(frames)/2)
	for i := 0; i < len(frames); i += 2 {
		key := string(frames[i])
		val := frames[i+1]
		if seen.Contains(key) {
			return nil, fmt.Errorf("%w: packed map: duplicate key %q", ErrDecode, key)
		}
		seen.Add(key)
		// Copy the value out of buf so the caller may wipe buf afterwards.
		cp := make([]byte, len(val))
		copy(cp, val)
		out[key] = cp
	}
	return out, nil
}
