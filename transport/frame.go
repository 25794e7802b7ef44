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

package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/zenstore/zenstore/wire"
)

// maxMessageSize bounds a single multipart message read from the network,
// guarding against a peer that sends a bogus length prefix.
const maxMessageSize = 64 << 20

// readMessage reads one length-prefixed wire-encoded message from conn and
// returns its frames. The length prefix delimits one message within the
// byte stream; wire.Decode then splits that message into its frames.
func readMessage(conn net.Conn) ([][]byte, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint64(lenBuf[:])
	if n > maxMessageSize {
		return nil, fmt.Errorf("transport: message of %d bytes exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return nil, err
	}
	return wire.Decode(buf)
}

// writeMessage encodes frames and writes them to conn as one length-prefixed
// message.
func writeMessage(conn net.Conn, frames ...[]byte) error {
	enc := wire.Encode(frames...)
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(enc)))
	if _, err := conn.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := conn.Write(enc)
	return err
}
