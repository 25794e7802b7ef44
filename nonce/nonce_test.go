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

package nonce

import "testing"

func TestZeroNonceNotInitialized(t *testing.T) {
	n := New()
	if n.IsInitialized() {
		t.Fatal("zero nonce reports initialized")
	}
}

func TestRandomizeInitializes(t *testing.T) {
	n := New()
	if err := n.Randomize(); err != nil {
		t.Fatalf("Randomize: %v", err)
	}
	if !n.IsInitialized() {
		t.Fatal("randomized nonce reports not initialized")
	}
}

func TestHexRoundTrip(t *testing.T) {
	n := New()
	if err := n.Randomize(); err != nil {
		t.Fatalf("Randomize: %v", err)
	}
	var got Nonce
	if err := ParseHex(&got, n.Hex()); err != nil {
		t.Fatalf("ParseHex: %v", err)
	}
	if !got.Equal(n) {
		t.Fatalf("round trip mismatch: got %x, want %x", got.Raw(), n.Raw())
	}
}

func TestHexLength(t *testing.T) {
	n := New()
	if err := n.Randomize(); err != nil {
		t.Fatalf("Randomize: %v", err)
	}
	if got, want := len(n.Hex()), 2*Size; got != want {
		t.Fatalf("Hex length = %d, want %d", got, want)
	}
}

func TestParseHexRejectsOverlong(t *testing.T) {
	var n Nonce
	overlong := make([]byte, 2*Size+2)
	for i := range overlong {
		overlong[i] = 'a'
	}
	if err := ParseHex(&n, string(overlong)); err == nil {
		t.Fatal("ParseHex accepted overlong input")
	}
}

func TestParseHexRejectsInvalidHex(t *testing.T) {
	var n Nonce
	if err := ParseHex(&n, "not-hex-at-all!!"); err == nil {
		t.Fatal("ParseHex accepted non-hex input")
	}
}

func TestParseHexRejectsWrongSize(t *testing.T) {
	var n Nonce
	if err := ParseHex(&n, "aabb"); err == nil {
		t.Fatal("ParseHex accepted short input")
	}
}

func TestZeroWipesBytes(t *testing.T) {
	n := New()
	if err := n.Randomize(); err != nil {
		t.Fatalf("Randomize: %v", err)
	}
	n.Zero()
	if n.IsInitialized() {
		t.Fatal("Zero left nonce initialized")
	}
}

func TestCloneIndependence(t *testing.T) {
	n := New()
	if err := n.Randomize(); err != nil {
		t.Fatalf("Randomize: %v", err)
	}
	c := n.Clone()
	n.Zero()
	if !c.IsInitialized() {
		t.Fatal("clone was mutated by zeroing the original")
	}
}
