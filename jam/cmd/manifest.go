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
	"os"

	"github.com/shenwei356/jam"
	"gopkg.in/yaml.v2"
)

// manifestEntry describes one member sketch file of a database.
type manifestEntry struct {
	File    string `yaml:"file"`
	Records int    `yaml:"records"`
	Source  string `yaml:"source"`
}

// manifest is the optional "jam.yml" sidecar: a purely informational
// listing of a multi-file sketch database, never consulted by jam dist
// itself (which always takes its -d list literally).
type manifest struct {
	KmerSize  int             `yaml:"kmer_size"`
	Algorithm string          `yaml:"algorithm"`
	Files     []manifestEntry `yaml:"files"`
}

// writeManifest writes path/jam.yml describing the sketches written to
// outputs (sketch file path paired with the jam.Sketch written there).
func writeManifest(dir string, sketches map[string]*jam.Sketch) error {
	if len(sketches) == 0 {
		return nil
	}
	m := manifest{}
	for file, sk := range sketches {
		if m.KmerSize == 0 {
			m.KmerSize = sk.KmerSize
			m.Algorithm = sk.Algorithm.String()
		}
		m.Files = append(m.Files, manifestEntry{File: file, Records: len(sk.Records), Source: sk.Source})
	}

	b, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(dir+string(os.PathSeparator)+"jam.yml", b, 0644)
}
