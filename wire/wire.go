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

// Package wire implements the length-prefixed multipart framing shared by
// the on-disk container envelope and the data-socket wire protocol: a frame
// count followed by that many (length, bytes) frames. The length encoding
// follows the big-endian convention of sec51/cryptoengine's Message framing.
package wire

import (
	"errors"
	"fmt"

	"github.com/sec51/convert/bigendian"
)

// ErrShortBuffer is returned by Decode when buf ends before a declared frame
// count or frame length is satisfied.
var ErrShortBuffer = errors.New("wire: buffer too short")

// ErrTooManyFrames guards against a corrupt or hostile frame count causing an
// unbounded allocation.
var ErrTooManyFrames = errors.New("wire: frame count too large")

// maxFrames bounds the frame count accepted by Decode. The container format
// (§4.2.2) only ever uses 2 frames; the data protocol (§4.3.3) uses at most
// 4. This is a generous ceiling against malformed input.
const maxFrames = 1 << 16

// Encode packs frames into a single buffer: an 8-byte frame count, then for
// each frame an 8-byte length followed by its bytes.
func Encode(frames ...[]byte) []byte {
	size := 8
	for _, f := range frames {
		size += 8 + len(f)
	}
	buf := make([]byte, 0, size)
	count := bigendian.ToUint64(uint64(len(frames)))
	buf = append(buf, count[:]...)
	for _, f := range frames {
		n := bigendian.ToUint64(uint64(len(f)))
		buf = append(buf, n[:]...)
		buf = append(buf, f...)
	}
	return buf
}

// Decode unpacks a buffer produced by Encode into its constituent frames. It
// fails if the buffer is short, declares too many frames, or declares a
// frame that runs past the end of the buffer. Decode does not require the
// buffer to contain exactly len(frames) == some fixed count; callers that
// require an exact frame count (e.g. the container envelope) must check
// len(result) themselves.
func Decode(buf []byte) ([][]byte, error) {
	count, rest, err := readUint64(buf)
	if err != nil {
		return nil, fmt.Errorf("wire: frame count: %w", err)
	}
	if count > maxFrames {
		return nil, ErrTooManyFrames
	}
	frames := make([][]byte, 0, count)
	for i := uint64(0); i < count; i++ {
		n, tail, err := readUint64(rest)
		if err != nil {
			return nil, fmt.Errorf("wire: frame %d length: %w", i, err)
		}
		if uint64(len(tail)) < n {
			return nil, ErrShortBuffer
		}
		frames = append(frames, tail[:n])
		rest = tail[n:]
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("wire: %d trailing bytes after frames", len(rest))
	}
	return frames, nil
}

func readUint64(buf []byte) (uint64, []byte, error) {
	if len(buf) < 8 {
		return 0, nil, ErrShortBuffer
	}
	var b8 [8]byte
	copy(b8[:], buf[:8])
	return bigendian.FromUint64(b8), buf[8:], nil
}
