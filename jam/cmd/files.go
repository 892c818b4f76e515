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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/iafan/cwalk"
	"github.com/shenwei356/breader"
	"github.com/shenwei356/util/pathutil"
)

// expandInputs resolves the CLI's INPUT... arguments to a concrete,
// deduplicated list of regular files, in first-seen order: a directory
// expands to all contained files, a .list file expands to one path per
// line. A bare "-" stands for stdin and is passed through unexpanded.
func expandInputs(args []string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, a := range args {
		if isStdin(a) {
			add(a)
			continue
		}

		ok, err := pathutil.Exists(a)
		checkError(err)
		if !ok {
			checkError(fmt.Errorf("input file or directory does not exist: %s", a))
		}

		isDir, err := pathutil.IsDir(a)
		checkError(err)
		switch {
		case isDir:
			for _, p := range walkDir(a) {
				add(p)
			}
		case strings.HasSuffix(a, ".list"):
			for _, p := range readListFile(a) {
				add(p)
			}
		default:
			add(a)
		}
	}
	return out
}

// walkDir lists every regular file under root, using cwalk's
// goroutine-per-subdirectory walker rather than filepath.Walk - the
// directory trees a sketch database lives in can hold many thousands of
// small reference files, and cwalk pays for its own concurrency instead of
// serializing the walk the way filepath.Walk does. cwalk invokes the walk
// function from multiple goroutines, so appends are guarded by a mutex.
func walkDir(root string) []string {
	var mu sync.Mutex
	var files []string
	err := cwalk.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		mu.Lock()
		files = append(files, filepath.Join(root, path))
		mu.Unlock()
		return nil
	})
	checkError(err)
	return files
}

// readListFile reads a ".list" file, one path per line, skipping blank
// lines and "#"-prefixed comments. breader.NewDefaultBufferedReader buffers
// and chunks lines concurrently with the caller, the same role it plays in
// unikmer/cmd/grep.go reading a file of query sequences.
func readListFile(path string) []string {
	reader, err := breader.NewDefaultBufferedReader(path)
	checkError(err)

	var files []string
	for chunk := range reader.Ch {
		checkError(chunk.Err)
		for _, data := range chunk.Data {
			line := strings.TrimSpace(data.(string))
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			files = append(files, line)
		}
	}
	return files
}
