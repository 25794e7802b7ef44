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
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func key32(pattern byte) Key {
	var k Key
	for i := range k {
		k[i] = pattern
	}
	return k
}

func TestPutGet(t *testing.T) {
	s := New()
	s.Put("k1", []byte("hello"))
	v, ok := s.Get("k1")
	if !ok || !bytes.Equal(v, []byte("hello")) {
		t.Fatalf("Get(k1) = %q, %v; want %q, true", v, ok, "hello")
	}

	s.Put("k1", nil) // delete
	if _, ok := s.Get("k1"); ok {
		t.Fatal("key survived Put(k, nil)")
	}

	s.Put("missing", nil) // delete of absent key is a no-op
	if s.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", s.Len())
	}
}

func TestSaveRequiresDirAndFile(t *testing.T) {
	s := New()
	if err := s.Save(key32(1)); !errors.Is(err, ErrConfigMissing) {
		t.Fatalf("Save with no dir/file: got %v, want ErrConfigMissing", err)
	}
}

func TestEmptyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	key := key32('P')

	s := New()
	s.SetDir(dir)
	s.SetFile("s.zns")
	if err := s.Save(key); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s2 := New()
	s2.SetDir(dir)
	s2.SetFile("s.zns")
	if err := s2.Load(key); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := s2.Get("anything"); ok {
		t.Fatal("loaded empty store has a key")
	}
}

func TestSingleKeyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	key := key32('K')

	s := New()
	s.SetDir(dir)
	s.SetFile("s.zns")
	s.Put("KEY", []byte("VALUE\x00"))
	if err := s.Save(key); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Close()

	s2 := New()
	s2.SetDir(dir)
	s2.SetFile("s.zns")
	if err := s2.Load(key); err != nil {
		t.Fatalf("Load: %v", err)
	}
	v, ok := s2.Get("KEY")
	if !ok || !bytes.Equal(v, []byte("VALUE\x00")) {
		t.Fatalf("Get(KEY) = %q, %v; want %q, true", v, ok, "VALUE\x00")
	}
}

func TestWrongPasswordFailsAuth(t *testing.T) {
	dir := t.TempDir()
	p1 := key32('1')
	p2 := key32('2')

	s := New()
	s.SetDir(dir)
	s.SetFile("s.zns")
	s.Put("k", []byte("v"))
	if err := s.Save(p1); err != nil {
		t.Fatalf("Save: %v", err)
	}

	dst := New()
	dst.SetDir(dir)
	dst.SetFile("s.zns")
	dst.Put("sentinel", []byte("untouched"))
	if err := dst.Load(p2); !errors.Is(err, ErrAuth) {
		t.Fatalf("Load with wrong password: got %v, want ErrAuth", err)
	}
	if v, ok := dst.Get("sentinel"); !ok || !bytes.Equal(v, []byte("untouched")) {
		t.Fatal("destination store was mutated by a failed load")
	}
}

func TestTamperedCiphertextFailsAuth(t *testing.T) {
	dir := t.TempDir()
	key := key32('Z')

	s := New()
	s.SetDir(dir)
	s.SetFile("s.zns")
	s.Put("k", []byte("v"))
	if err := s.Save(key); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := filepath.Join(dir, "s.zns")
	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	buf[len(buf)-1] ^= 0xff
	if err := os.WriteFile(path, buf, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s2 := New()
	s2.SetDir(dir)
	s2.SetFile("s.zns")
	if err := s2.Load(key); !errors.Is(err, ErrAuth) {
		t.Fatalf("Load tampered file: got %v, want ErrAuth", err)
	}
}

func TestLoadRejectsWrongPermissions(t *testing.T) {
	dir := t.TempDir()
	key := key32('M')

	s := New()
	s.SetDir(dir)
	s.SetFile("s.zns")
	if err := s.Save(key); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := filepath.Join(dir, "s.zns")
	if err := os.Chmod(path, 0644); err != nil {
		t.Fatalf("Chmod: %v", err)
	}

	s2 := New()
	s2.SetDir(dir)
	s2.SetFile("s.zns")
	if err := s2.Load(key); !errors.Is(err, ErrPermission) {
		t.Fatalf("Load with mode 0644: got %v, want ErrPermission", err)
	}
}

func TestSaveRandomizesNonceOnce(t *testing.T) {
	dir := t.TempDir()
	key := key32('N')

	s := New()
	s.SetDir(dir)
	s.SetFile("s.zns")
	if err := s.Save(key); err != nil {
		t.Fatalf("Save: %v", err)
	}
	first := s.n.Clone()

	s.Put("k", []byte("v"))
	if err := s.Save(key); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if !s.n.Equal(first) {
		t.Fatal("nonce changed on a save where it was already initialized")
	}
}

func TestSaveProducesExpectedHeaderFields(t *testing.T) {
	dir := t.TempDir()
	key := key32('H')
	s := New()
	s.SetDir(dir)
	s.SetFile("s.zns")
	if err := s.Save(key); err != nil {
		t.Fatalf("Save: %v", err)
	}
	buf, err := os.ReadFile(filepath.Join(dir, "s.zns"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	header, _, err := parseEnvelope(buf)
	if err != nil {
		t.Fatalf("parseEnvelope: %v", err)
	}
	fields, err := parseHeaderFrame(header)
	if err != nil {
		t.Fatalf("parseHeaderFrame: %v", err)
	}
	for k, want := range map[string]string{
		"version": headerVersion,
		"method":  headerMethod,
		"cipher":  headerCipher,
	} {
		if got := fields[k]; got != want {
			t.Errorf("header[%q] = %q, want %q", k, got, want)
		}
	}
}
