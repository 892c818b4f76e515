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

package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/shenwei356/jam"
)

// ErrNotMurmur3 means a sourmash-format write was attempted on a Sketch
// that was not built with the murmur3 hash algorithm; the interoperable
// format only round-trips murmur3 hashes the way an external sourmash
// reader expects.
var ErrNotMurmur3 = errors.New("codec: sourmash format requires the murmur3 hash algorithm")

// sourmashSignature mirrors the subset of the external sourmash signature
// schema this codec maps onto a RecordSketch. Fields outside this subset
// (license, multiple ksizes per signature) are not modeled; this is a
// best-effort, one-signature-per-RecordSketch mapping.
type sourmashSignature struct {
	Class      string            `json:"class"`
	Email      string            `json:"email"`
	Hashtype   string            `json:"hash_function"`
	Name       string            `json:"name"`
	Filename   string            `json:"filename"`
	Signatures []sourmashMinhash `json:"signatures"`
}

type sourmashMinhash struct {
	NumHashes int      `json:"num_hashes"`
	Ksize     int      `json:"ksize"`
	Seed      uint64   `json:"seed"`
	MaxHash   uint64   `json:"max_hash"`
	Mins      []uint64 `json:"mins"`
	Molecule  string   `json:"molecule"`
}

// WriteSourmash emits sk as a JSON array of sourmash-compatible signatures,
// one per RecordSketch. The stats block and kscale are dropped; this is
// only valid for sketches hashed with murmur3, since that is the hash
// family the external format assumes.
func WriteSourmash(w io.Writer, sk *jam.Sketch) error {
	if sk.Algorithm != jam.AlgoMurmur3 {
		return ErrNotMurmur3
	}

	maxHash := uint64(0)
	if sk.Fscale > 0 {
		maxHash = ^uint64(0) / sk.Fscale
	} else {
		maxHash = ^uint64(0)
	}

	sigs := make([]sourmashSignature, len(sk.Records))
	for i := range sk.Records {
		rec := &sk.Records[i]
		mins := rec.SortedHashes()
		sigs[i] = sourmashSignature{
			Class:    "sourmash_signature",
			Hashtype: "murmur3",
			Name:     rec.ID,
			Filename: sk.Source,
			Signatures: []sourmashMinhash{{
				NumHashes: len(mins),
				Ksize:     sk.KmerSize,
				Seed:      42,
				MaxHash:   maxHash,
				Mins:      mins,
				Molecule:  "DNA",
			}},
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sigs)
}

// ReadSourmash decodes a sourmash-compatible JSON envelope into a Sketch.
// Because the format carries no kscale/nmin/nmax/stats, the resulting
// Sketch has those fields zeroed (unset) and HasStats false. fscale is
// recovered from max_hash on a best-effort basis per signature (a max_hash
// of 0 or of the full hash space means unset) and must agree across all of
// them or decoding fails.
func ReadSourmash(r io.Reader) (*jam.Sketch, error) {
	var sigs []sourmashSignature
	if err := json.NewDecoder(r).Decode(&sigs); err != nil {
		return nil, err
	}

	sk := &jam.Sketch{Algorithm: jam.AlgoMurmur3}
	for i, sig := range sigs {
		if len(sig.Signatures) == 0 {
			continue
		}
		mh := sig.Signatures[0]
		fscale := uint64(0)
		if mh.MaxHash > 0 && mh.MaxHash < ^uint64(0) {
			fscale = ^uint64(0) / mh.MaxHash
		}
		if i == 0 {
			sk.KmerSize = mh.Ksize
			sk.Source = sig.Filename
			sk.Fscale = fscale
		} else if mh.Ksize != sk.KmerSize {
			return nil, fmt.Errorf("codec: inconsistent ksize across signatures: %d vs %d", mh.Ksize, sk.KmerSize)
		} else if fscale != sk.Fscale {
			return nil, fmt.Errorf("codec: inconsistent max_hash across signatures")
		}
		sk.Records = append(sk.Records, jam.RecordSketch{
			ID:       sig.Name,
			Hashes:   mh.Mins,
			NumKmers: len(mh.Mins),
		})
	}
	sk.Singleton = len(sk.Records) > 1
	return sk, nil
}
