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
	"bytes"
	"testing"

	"github.com/shenwei356/jam"
)

func sampleSketch(withStats bool) *jam.Sketch {
	sk := &jam.Sketch{
		KmerSize:  21,
		Algorithm: jam.AlgoXXHash,
		Fscale:    10,
		Nmin:      5,
		Nmax:      1000,
		Singleton: true,
		HasStats:  withStats,
		Source:    "a.fa,b.fa",
		Records: []jam.RecordSketch{
			{ID: "r1", Hashes: []uint64{1, 2, 3}, NumKmers: 10},
			{ID: "r2", Hashes: []uint64{4, 5}, NumKmers: 6},
		},
	}
	if withStats {
		sk.Records[0].Stats = &jam.RecordStats{GCPercent: 40, Length: 100, A: 30, C: 20, G: 20, T: 30}
		sk.Records[1].Stats = &jam.RecordStats{GCPercent: 50, Length: 50, A: 10, C: 15, G: 10, T: 15}
	}
	return sk
}

func TestNativeRoundTrip(t *testing.T) {
	for _, withStats := range []bool{false, true} {
		sk := sampleSketch(withStats)
		var buf bytes.Buffer
		if err := WriteNative(&buf, sk); err != nil {
			t.Fatalf("WriteNative: %v", err)
		}

		got, err := ReadNative(&buf)
		if err != nil {
			t.Fatalf("ReadNative: %v", err)
		}

		if got.KmerSize != sk.KmerSize || got.Algorithm != sk.Algorithm {
			t.Errorf("header mismatch: got %+v", got)
		}
		if got.Fscale != sk.Fscale || got.Nmin != sk.Nmin || got.Nmax != sk.Nmax {
			t.Errorf("scale fields mismatch: got %+v, want %+v", got, sk)
		}
		if got.Singleton != sk.Singleton || got.HasStats != sk.HasStats {
			t.Errorf("flags mismatch: got singleton=%v stats=%v", got.Singleton, got.HasStats)
		}
		if got.Source != sk.Source {
			t.Errorf("Source = %q, want %q", got.Source, sk.Source)
		}
		if len(got.Records) != len(sk.Records) {
			t.Fatalf("len(Records) = %d, want %d", len(got.Records), len(sk.Records))
		}
		for i, rec := range got.Records {
			want := sk.Records[i]
			if rec.ID != want.ID || rec.NumKmers != want.NumKmers {
				t.Errorf("record %d mismatch: got %+v, want %+v", i, rec, want)
			}
			if !uint64SliceEqual(rec.Hashes, want.Hashes) {
				t.Errorf("record %d hashes = %v, want %v", i, rec.Hashes, want.Hashes)
			}
			if withStats {
				if rec.Stats == nil || want.Stats == nil {
					t.Fatalf("record %d missing stats", i)
				}
				if rec.Stats.GCPercent != want.Stats.GCPercent || rec.Stats.Length != want.Stats.Length {
					t.Errorf("record %d stats mismatch: got %+v, want %+v", i, rec.Stats, want.Stats)
				}
			}
		}
	}
}

func TestReadNativeRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("nope")
	if _, err := ReadNative(buf); err != ErrInvalidMagic {
		t.Errorf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestReadNativeRejectsFutureVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(Magic[:])
	buf.Write([]byte{0xff, 0xff}) // version 65535, little-endian
	if _, err := ReadNative(&buf); err == nil {
		t.Error("expected an error for an unsupported future version")
	}
}

func uint64SliceEqual(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
