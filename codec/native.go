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

// Package codec implements the two on-disk Sketch serializations: the
// native little-endian binary container and a best-effort sourmash-
// compatible JSON envelope.
package codec

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/shenwei356/jam"
)

// FormatVersion is the native container's format version field.
const FormatVersion uint16 = 1

// Magic is the 4-byte native container tag, "JAMS".
var Magic = [4]byte{'J', 'A', 'M', 'S'}

// ErrInvalidMagic means the stream did not start with Magic.
var ErrInvalidMagic = errors.New("codec: invalid magic, not a jam sketch")

// ErrUnsupportedVersion means the container's format version is newer than
// this codec understands.
var ErrUnsupportedVersion = errors.New("codec: unsupported format version")

const (
	flagSingleton = 1 << 0
	flagHasStats  = 1 << 1
)

var le = binary.LittleEndian

// WriteNative serializes sk to w in the native binary format.
func WriteNative(w io.Writer, sk *jam.Sketch) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.Write(Magic[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, le, FormatVersion); err != nil {
		return err
	}

	if err := binary.Write(bw, le, uint8(sk.KmerSize)); err != nil {
		return err
	}
	if err := binary.Write(bw, le, uint8(sk.Algorithm)); err != nil {
		return err
	}
	for _, v := range []uint64{sk.Fscale, sk.Kscale, sk.Nmin, sk.Nmax} {
		if err := binary.Write(bw, le, v); err != nil {
			return err
		}
	}

	var flags uint8
	if sk.Singleton {
		flags |= flagSingleton
	}
	if sk.HasStats {
		flags |= flagHasStats
	}
	if err := binary.Write(bw, le, flags); err != nil {
		return err
	}

	if err := binary.Write(bw, le, uint64(len(sk.Records))); err != nil {
		return err
	}

	source := []byte(sk.Source)
	if err := binary.Write(bw, le, uint32(len(source))); err != nil {
		return err
	}
	if _, err := bw.Write(source); err != nil {
		return err
	}

	for i := range sk.Records {
		if err := writeRecord(bw, &sk.Records[i], sk.HasStats); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func writeRecord(bw *bufio.Writer, rec *jam.RecordSketch, hasStats bool) error {
	name := []byte(rec.ID)
	if err := binary.Write(bw, le, uint32(len(name))); err != nil {
		return err
	}
	if _, err := bw.Write(name); err != nil {
		return err
	}
	if err := binary.Write(bw, le, uint64(rec.NumKmers)); err != nil {
		return err
	}
	if err := binary.Write(bw, le, uint64(len(rec.Hashes))); err != nil {
		return err
	}
	for _, h := range rec.Hashes {
		if err := binary.Write(bw, le, h); err != nil {
			return err
		}
	}
	if !hasStats {
		return nil
	}
	st := rec.Stats
	if st == nil {
		st = &jam.RecordStats{}
	}
	gc := uint8(st.GCPercent + 0.5)
	fields := []interface{}{gc, st.Length, st.A, st.C, st.G, st.T}
	for _, f := range fields {
		if err := binary.Write(bw, le, f); err != nil {
			return err
		}
	}
	return nil
}

// ReadNative deserializes a Sketch from r, validating the magic and
// rejecting unknown format versions.
func ReadNative(r io.Reader) (*jam.Sketch, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}

	var version uint16
	if err := binary.Read(br, le, &version); err != nil {
		return nil, err
	}
	if version > FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	sk := &jam.Sketch{}

	var kmerSize, algo uint8
	if err := binary.Read(br, le, &kmerSize); err != nil {
		return nil, err
	}
	if err := binary.Read(br, le, &algo); err != nil {
		return nil, err
	}
	sk.KmerSize = int(kmerSize)
	if _, err := jam.AlgorithmFromByte(algo); err != nil {
		return nil, err
	}
	sk.Algorithm = jam.Algorithm(algo)

	for _, dst := range []*uint64{&sk.Fscale, &sk.Kscale, &sk.Nmin, &sk.Nmax} {
		if err := binary.Read(br, le, dst); err != nil {
			return nil, err
		}
	}

	var flags uint8
	if err := binary.Read(br, le, &flags); err != nil {
		return nil, err
	}
	sk.Singleton = flags&flagSingleton != 0
	sk.HasStats = flags&flagHasStats != 0

	var recordCount uint64
	if err := binary.Read(br, le, &recordCount); err != nil {
		return nil, err
	}

	var sourceLen uint32
	if err := binary.Read(br, le, &sourceLen); err != nil {
		return nil, err
	}
	source := make([]byte, sourceLen)
	if _, err := io.ReadFull(br, source); err != nil {
		return nil, err
	}
	sk.Source = string(source)

	sk.Records = make([]jam.RecordSketch, recordCount)
	for i := range sk.Records {
		rec, err := readRecord(br, sk.HasStats)
		if err != nil {
			return nil, err
		}
		sk.Records[i] = rec
	}

	return sk, nil
}

func readRecord(br *bufio.Reader, hasStats bool) (jam.RecordSketch, error) {
	var rec jam.RecordSketch

	var nameLen uint32
	if err := binary.Read(br, le, &nameLen); err != nil {
		return rec, err
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(br, name); err != nil {
		return rec, err
	}
	rec.ID = string(name)

	var numKmers, hashCount uint64
	if err := binary.Read(br, le, &numKmers); err != nil {
		return rec, err
	}
	rec.NumKmers = int(numKmers)

	if err := binary.Read(br, le, &hashCount); err != nil {
		return rec, err
	}
	rec.Hashes = make([]uint64, hashCount)
	for i := range rec.Hashes {
		if err := binary.Read(br, le, &rec.Hashes[i]); err != nil {
			return rec, err
		}
	}

	if !hasStats {
		return rec, nil
	}

	var gc uint8
	st := &jam.RecordStats{}
	if err := binary.Read(br, le, &gc); err != nil {
		return rec, err
	}
	st.GCPercent = float64(gc)
	for _, dst := range []*uint64{&st.Length, &st.A, &st.C, &st.G, &st.T} {
		if err := binary.Read(br, le, dst); err != nil {
			return rec, err
		}
	}
	rec.Stats = st
	return rec, nil
}
