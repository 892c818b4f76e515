// Copyright © 2018-2020 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package jam

import "testing"

func TestParseAlgorithm(t *testing.T) {
	cases := map[string]Algorithm{
		"":        AlgoDefault,
		"default": AlgoDefault,
		"xxhash":  AlgoXXHash,
		"ahash":   AlgoAHash,
		"murmur3": AlgoMurmur3,
		"nthash":  AlgoNtHash,
	}
	for s, want := range cases {
		got, err := ParseAlgorithm(s)
		if err != nil {
			t.Fatalf("ParseAlgorithm(%q): %v", s, err)
		}
		if got != want {
			t.Errorf("ParseAlgorithm(%q) = %v, want %v", s, got, want)
		}
	}

	if _, err := ParseAlgorithm("bogus"); err == nil {
		t.Error("ParseAlgorithm(\"bogus\") should error")
	}
}

func TestAlgorithmFromByteRoundTrip(t *testing.T) {
	for _, a := range []Algorithm{AlgoDefault, AlgoXXHash, AlgoAHash, AlgoMurmur3, AlgoNtHash} {
		got, err := AlgorithmFromByte(uint8(a))
		if err != nil {
			t.Fatalf("AlgorithmFromByte(%d): %v", a, err)
		}
		if got != a {
			t.Errorf("AlgorithmFromByte(%d) = %v, want %v", a, got, a)
		}
	}
	if _, err := AlgorithmFromByte(255); err == nil {
		t.Error("AlgorithmFromByte(255) should error")
	}
}

// TestHashDeterminism checks that the same input and algorithm always
// produce the same hash.
func TestHashDeterminism(t *testing.T) {
	for _, algo := range []Algorithm{AlgoDefault, AlgoXXHash, AlgoAHash, AlgoMurmur3, AlgoNtHash} {
		h, err := NewHasher(algo)
		if err != nil {
			t.Fatalf("NewHasher(%v): %v", algo, err)
		}
		inputs := [][]byte{[]byte("ACGT"), []byte("ACGTACGTACGTACGTACGTACGTACGTACGTACGT")}
		for _, in := range inputs {
			a := h.Hash(in, 0)
			b := h.Hash(in, 0)
			if a != b {
				t.Errorf("%v: Hash(%q) not deterministic: %d != %d", algo, in, a, b)
			}
		}
	}
}

// TestDefaultCrossoverDeterministic pins the documented crossover: inputs
// shorter than shortKeyCrossover bytes hash the same as the ahash variant,
// and inputs at or above it hash the same as xxhash - always, not just on
// this run.
func TestDefaultCrossoverDeterministic(t *testing.T) {
	def, _ := NewHasher(AlgoDefault)
	ah, _ := NewHasher(AlgoAHash)
	xx, _ := NewHasher(AlgoXXHash)

	short := []byte("ACGT")
	if got, want := def.Hash(short, 7), ah.Hash(short, 7); got != want {
		t.Errorf("short-key default hash should match ahash: %d != %d", got, want)
	}

	long := make([]byte, shortKeyCrossover)
	for i := range long {
		long[i] = "ACGT"[i%4]
	}
	if got, want := def.Hash(long, 7), xx.Hash(long, 7); got != want {
		t.Errorf("long-key default hash should match xxhash: %d != %d", got, want)
	}
}

// TestMurmur3SeedFixed ensures the seed argument never changes a murmur3
// Hasher's output - the seed is pinned at 42 for sourmash interoperability,
// regardless of caller-supplied seed.
func TestMurmur3SeedFixed(t *testing.T) {
	h, _ := NewHasher(AlgoMurmur3)
	in := []byte("ACGTACGT")
	a := h.Hash(in, 0)
	b := h.Hash(in, 12345)
	if a != b {
		t.Errorf("murmur3 Hasher should ignore the seed argument: %d != %d", a, b)
	}
}

func TestHasherAlgorithmTag(t *testing.T) {
	for _, a := range []Algorithm{AlgoDefault, AlgoXXHash, AlgoAHash, AlgoMurmur3, AlgoNtHash} {
		h, err := NewHasher(a)
		if err != nil {
			t.Fatalf("NewHasher(%v): %v", a, err)
		}
		if h.Algorithm() != a {
			t.Errorf("Hasher built for %v reports Algorithm() = %v", a, h.Algorithm())
		}
	}
}
