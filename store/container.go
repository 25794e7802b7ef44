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
	"strconv"
	"strings"

	"github.com/zenstore/zenstore/nonce"
	"github.com/zenstore/zenstore/wire"
)

// The fixed header field values mandated by §6.1. A header that names any
// other value for version, method, or cipher is rejected with
// ErrUnsupportedHeader.
const (
	headerVersion = "1"
	headerMethod  = "crypto_secretbox"
	headerCipher  = "salsa20poly1305"
)

// buildHeaderFrame renders the textual header block described in §6.1:
//
//	header
//	    version = "1"
//	    method = "crypto_secretbox"
//	    cipher = "salsa20poly1305"
//	    nonce = "<48 lowercase hex chars>"
func buildHeaderFrame(n nonce.Nonce) []byte {
	var b strings.Builder
	b.WriteString("header\n")
	writeField(&b, "version", headerVersion)
	writeField(&b, "method", headerMethod)
	writeField(&b, "cipher", headerCipher)
	writeField(&b, "nonce", n.Hex())
	return []byte(b.String())
}

func writeField(b *strings.Builder, key, val string) {
	b.WriteString("    ")
	b.WriteString(key)
	b.WriteString(" = ")
	b.WriteString(strconv.Quote(val))
	b.WriteString("\n")
}

// parseHeaderFrame parses the textual header block into its field map.
// Extra fields are retained but unrecognized by the caller. A field that
// repeats is a decode error, since §4.2.2 requires each required field
// present exactly once.
func parseHeaderFrame(buf []byte) (map[string]string, error) {
	lines := strings.Split(string(buf), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "header" {
		return nil, fmt.Errorf("%w: header: missing root", ErrDecode)
	}
	fields := make(map[string]string)
	for _, raw := range lines[1:] {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		key, val, ok := splitField(line)
		if !ok {
			return nil, fmt.Errorf("%w: header: malformed field %q", ErrDecode, line)
		}
		if _, dup := fields[key]; dup {
			return nil, fmt.Errorf("%w: header: duplicate field %q", ErrDecode, key)
		}
		fields[key] = val
	}
	return fields, nil
}

func splitField(line string) (key, val string, ok bool) {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	key = strings.TrimSpace(parts[0])
	quoted := strings.TrimSpace(parts[1])
	unquoted, err := strconv.Unquote(quoted)
	if err != nil {
		return "", "", false
	}
	return key, unquoted, true
}

// validateHeader checks the four required fields and returns the parsed
// nonce. It fails with ErrUnsupportedHeader when version, method, or cipher
// hold any value other than the fixed triple, or when nonce is missing or
// not a valid Size-byte hex string.
func validateHeader(fields map[string]string) (nonce.Nonce, error) {
	var n nonce.Nonce
	if v, ok := fields["version"]; !ok || v != headerVersion {
		return n, fmt.Errorf("%w: version %q", ErrUnsupportedHeader, fields["version"])
	}
	if m, ok := fields["method"]; !ok || m != headerMethod {
		return n, fmt.Errorf("%w: method %q", ErrUnsupportedHeader, fields["method"])
	}
	if c, ok := fields["cipher"]; !ok || c != headerCipher {
		return n, fmt.Errorf("%w: cipher %q", ErrUnsupportedHeader, fields["cipher"])
	}
	hexNonce, ok := fields["nonce"]
	if !ok {
		return n, fmt.Errorf("%w: nonce: missing", ErrUnsupportedHeader)
	}
	if err := nonce.ParseHex(&n, hexNonce); err != nil {
		return n, fmt.Errorf("%w: nonce: %v", ErrUnsupportedHeader, err)
	}
	return n, nil
}

// buildEnvelope wraps the header and ciphertext frames into the single
// on-disk buffer, using the same multipart framing as the data protocol.
func buildEnvelope(header, ciphertext []byte) []byte {
	return wire.Encode(header, ciphertext)
}

// parseEnvelope splits an on-disk buffer into exactly its header and
// ciphertext frames. Any other frame count is a decode failure.
func parseEnvelope(buf []byte) (header, ciphertext []byte, err error) {
	frames, err := wire.Decode(buf)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: envelope: %v", ErrDecode, err)
	}
	if len(frames) != 2 {
		return nil, nil, fmt.Errorf("%w: envelope: want 2 frames, got %d", ErrDecode, len(frames))
	}
	return frames[0], frames[1], nil
}
