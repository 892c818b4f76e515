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

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	gzip "github.com/klauspost/pgzip"
	"github.com/shenwei356/util/pathutil"
)

func isStdin(file string) bool { return file == "-" }

func isStdout(file string) bool { return file == "" || file == "-" }

// checkOutFile aborts when outFile already exists and -f/--force was not
// given.
func checkOutFile(outFile string, force bool) {
	if isStdout(outFile) || force {
		return
	}
	ok, err := pathutil.Exists(outFile)
	checkError(err)
	if ok {
		checkError(fmt.Errorf("output file %q already exists, use -f/--force to overwrite", outFile))
	}
}

// outStream opens outFile for writing, optionally wrapping it in a gzip
// writer. The caller must Flush() the returned *bufio.Writer and Close()
// the gzip writer (if non-nil) before closing the *os.File.
func outStream(file string, gzipped bool) (*bufio.Writer, io.WriteCloser, *os.File, error) {
	var w *os.File
	var err error
	if isStdout(file) {
		w = os.Stdout
	} else {
		w, err = os.Create(file)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("fail to write %s: %w", file, err)
		}
	}

	if gzipped {
		gw := gzip.NewWriter(w)
		return bufio.NewWriterSize(gw, os.Getpagesize()), gw, w, nil
	}
	return bufio.NewWriterSize(w, os.Getpagesize()), nil, w, nil
}

// inStream opens file for reading, transparently decompressing it if it
// starts with the gzip magic bytes.
func inStream(file string) (*bufio.Reader, *os.File, error) {
	var r *os.File
	var err error
	if isStdin(file) {
		if !detectStdin() {
			return nil, nil, errors.New("stdin not detected")
		}
		r = os.Stdin
	} else {
		r, err = os.Open(file)
		if err != nil {
			return nil, nil, fmt.Errorf("fail to read %s: %w", file, err)
		}
	}

	br := bufio.NewReaderSize(r, os.Getpagesize())

	gzipped, err := isGzip(br)
	if err != nil {
		return nil, r, fmt.Errorf("fail to check whether %s is gzipped: %w", file, err)
	}
	if gzipped {
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, r, fmt.Errorf("fail to create gzip reader for %s: %w", file, err)
		}
		br = bufio.NewReaderSize(gr, os.Getpagesize())
	}

	return br, r, nil
}

func isGzip(b *bufio.Reader) (bool, error) {
	magic := []byte{0x1f, 0x8b}
	m, err := b.Peek(len(magic))
	if err != nil {
		// shorter than the magic - definitely not gzip, not an error
		// worth aborting the whole file over.
		return false, nil
	}
	return m[0] == magic[0] && m[1] == magic[1], nil
}

func detectStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
