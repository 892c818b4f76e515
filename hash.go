// Copyright © 2018 Wei Shen <shenwei356@gmail.com>
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

import (
	"fmt"

	farm "github.com/dgryski/go-farm"
	"github.com/spaolacci/murmur3"
	"github.com/will-rowe/nthash"

	"github.com/cespare/xxhash/v2"
)

// Algorithm names the hash family used to build a Sketch. It is recorded
// in the Sketch header (see codec.WriteNative) and the Comparator refuses to
// compare sketches built with different algorithms.
type Algorithm uint8

const (
	// AlgoDefault picks xxhash for inputs of shortKeyCrossover bytes or
	// more, and the ahash fallback below that. The crossover is fixed at
	// compile time so the choice never depends on runtime conditions.
	AlgoDefault Algorithm = iota
	// AlgoXXHash always uses 64-bit xxhash.
	AlgoXXHash
	// AlgoAHash always uses the short-key fallback family.
	AlgoAHash
	// AlgoMurmur3 always uses the low 64 bits of MurmurHash3 x64-128,
	// seed fixed at 42, for sourmash interoperability.
	AlgoMurmur3
	// AlgoNtHash uses the ntHash canonical rolling hash. KmerIterator
	// recognizes this algorithm (with seed 0) and drives it incrementally
	// instead of calling Hash per window; Hash itself still works standalone,
	// one window at a time, for callers outside the iterator fast path.
	AlgoNtHash
)

// shortKeyCrossover is the byte length at and above which AlgoDefault
// dispatches to xxhash rather than the ahash fallback. k-mers of k>=32
// bytes (or any longer hashed byte string) take the xxhash path.
const shortKeyCrossover = 32

// murmur3Seed is fixed for compatibility with the external sourmash
// signature format, which always hashes with seed 42.
const murmur3Seed = 42

func (a Algorithm) String() string {
	switch a {
	case AlgoDefault:
		return "default"
	case AlgoXXHash:
		return "xxhash"
	case AlgoAHash:
		return "ahash"
	case AlgoMurmur3:
		return "murmur3"
	case AlgoNtHash:
		return "nthash"
	default:
		return fmt.Sprintf("algorithm(%d)", uint8(a))
	}
}

// ErrUnknownAlgorithm means a string or header byte did not name a known
// hash algorithm.
var ErrUnknownAlgorithm = fmt.Errorf("jam: unknown hash algorithm")

// ParseAlgorithm parses the --algorithm CLI flag value.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "default", "":
		return AlgoDefault, nil
	case "xxhash":
		return AlgoXXHash, nil
	case "ahash":
		return AlgoAHash, nil
	case "murmur3":
		return AlgoMurmur3, nil
	case "nthash":
		return AlgoNtHash, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
}

// AlgorithmFromByte decodes the hash_algorithm header byte of the native
// codec (see codec.ReadNative).
func AlgorithmFromByte(b uint8) (Algorithm, error) {
	switch Algorithm(b) {
	case AlgoDefault, AlgoXXHash, AlgoAHash, AlgoMurmur3, AlgoNtHash:
		return Algorithm(b), nil
	default:
		return 0, fmt.Errorf("%w: byte %d", ErrUnknownAlgorithm, b)
	}
}

// Hasher is the uniform 64-bit hash interface every k-mer and sequence
// statistic is pushed through. Exactly one Hasher is chosen at sketch
// creation time and recorded in the Sketch header.
type Hasher interface {
	// Hash returns the 64-bit hash of b under the given seed.
	Hash(b []byte, seed uint64) uint64
	// Algorithm reports the variant this Hasher implements.
	Algorithm() Algorithm
}

// NewHasher constructs the Hasher for a given Algorithm.
func NewHasher(algo Algorithm) (Hasher, error) {
	switch algo {
	case AlgoDefault:
		return defaultHasher{}, nil
	case AlgoXXHash:
		return xxHasher{}, nil
	case AlgoAHash:
		return aHasher{}, nil
	case AlgoMurmur3:
		return murmur3Hasher{}, nil
	case AlgoNtHash:
		return ntHasher{}, nil
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnknownAlgorithm, algo)
	}
}

// xxHasher wraps github.com/cespare/xxhash/v2, unconditionally.
type xxHasher struct{}

func (xxHasher) Hash(b []byte, seed uint64) uint64 {
	if seed == 0 {
		return xxhash.Sum64(b)
	}
	return xxhash.Sum64String(fmt.Sprintf("%d:%s", seed, b))
}
func (xxHasher) Algorithm() Algorithm { return AlgoXXHash }

// aHasher is the short-key fallback family, backed by FarmHash: a
// short-key-oriented, seeded, non-cryptographic hash.
type aHasher struct{}

func (aHasher) Hash(b []byte, seed uint64) uint64 {
	return farm.Hash64WithSeed(b, seed)
}
func (aHasher) Algorithm() Algorithm { return AlgoAHash }

// defaultHasher dispatches deterministically by input length.
type defaultHasher struct{}

func (defaultHasher) Hash(b []byte, seed uint64) uint64 {
	if len(b) >= shortKeyCrossover {
		return xxHasher{}.Hash(b, seed)
	}
	return aHasher{}.Hash(b, seed)
}
func (defaultHasher) Algorithm() Algorithm { return AlgoDefault }

// murmur3Hasher wraps github.com/spaolacci/murmur3's x64-128 variant,
// truncated to its first (low) 64-bit word, seed fixed at 42 regardless of
// the seed argument - required for byte-exact sourmash interoperability.
type murmur3Hasher struct{}

func (murmur3Hasher) Hash(b []byte, _ uint64) uint64 {
	h1, _ := murmur3.Sum128WithSeed(b, murmur3Seed)
	return h1
}
func (murmur3Hasher) Algorithm() Algorithm { return AlgoMurmur3 }

// ntHasher wraps github.com/will-rowe/nthash, a canonical rolling hash for
// DNA k-mers (one nthash.NTHi per sequence, driven window by window via
// Next(true)). Hash here is the stateless, one-window-at-a-time shape the Hasher
// interface requires; KmerIterator bypasses it for its own sequence-length
// nthash.NTHi, which is where the algorithm's actual O(1) rolling update
// pays off - see nextNtHash in iterator.go.
type ntHasher struct{}

func (ntHasher) Hash(b []byte, _ uint64) uint64 {
	window := append([]byte(nil), b...)
	h, err := nthash.NewHasher(&window, uint(len(window)))
	if err != nil {
		return 0
	}
	code, _ := h.Next(true)
	return code
}
func (ntHasher) Algorithm() Algorithm { return AlgoNtHash }
