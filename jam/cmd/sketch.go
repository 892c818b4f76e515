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

	"github.com/pkg/errors"
	"github.com/shenwei356/jam"
	"github.com/shenwei356/jam/codec"
	"github.com/shenwei356/util/pathutil"
	"github.com/spf13/cobra"
)

var sketchCmd = &cobra.Command{
	Use:   "sketch [INPUT]... -o OUT",
	Short: "build a MinHash sketch from FASTA/FASTQ input",
	Long: `sketch builds a MinHash sketch from FASTA/FASTQ input

Every non-flag argument is an input: a file, a directory (expanded
recursively), or a ".list" file (one path per line). Gzip-compressed
FASTA/FASTQ is detected transparently.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		outFile := getFlagString(cmd, "out")
		if outFile == "" {
			checkError(fmt.Errorf("flag -o/--out is required"))
		}

		k := getFlagPositiveInt(cmd, "kmer-size")
		if k > 64 {
			checkError(fmt.Errorf("-k/--kmer-size must be in [1,64]"))
		}

		algo, err := jam.ParseAlgorithm(getFlagString(cmd, "algorithm"))
		checkError(err)
		hasher, err := jam.NewHasher(algo)
		checkError(err)

		format := getFlagString(cmd, "format")
		if format != "bin" && format != "sourmash" {
			checkError(fmt.Errorf("--format must be one of bin, sourmash"))
		}
		if format == "sourmash" && algo != jam.AlgoMurmur3 {
			checkError(fmt.Errorf("--format sourmash requires --algorithm murmur3"))
		}

		filter, err := jam.NewFilter(
			getFlagOptionalUint64(cmd, "fscale"),
			getFlagOptionalUint64(cmd, "kscale"),
			getFlagOptionalUint64(cmd, "nmin"),
			getFlagOptionalUint64(cmd, "nmax"),
		)
		checkError(err)
		if filter.Fscale != nil && filter.Kscale != nil {
			log.Warning("both --fscale and --kscale set: fscale is the hard gate, kscale a secondary gate on its survivors")
		}

		singleton := getFlagBool(cmd, "singleton")
		stats := getFlagBool(cmd, "stats")

		files := expandInputs(args)
		if len(files) == 0 {
			checkError(fmt.Errorf("no input files given"))
		}
		if opt.Verbose {
			log.Infof("%d input file(s)", len(files))
		}

		builder := jam.NewSketchBuilder(jam.BuildOptions{
			KmerSize:  k,
			Hasher:    hasher,
			Filter:    filter,
			Singleton: singleton,
			Stats:     stats,
			Threads:   opt.NumCPUs,
		})

		outIsDir, err := isExistingDir(outFile)
		checkError(err)
		if outIsDir {
			sketchPerFile(builder, files, outFile, format, opt.Force)
			return
		}

		checkOutFile(outFile, opt.Force)
		sk, fileErrs := builder.Build(files, openFastx)
		for _, e := range fileErrs {
			log.Warning(e)
		}
		writeSketch(sk, outFile, format, opt.Force)
		if opt.Verbose {
			log.Infof("wrote %s: %d record(s)", outFile, len(sk.Records))
		}
	},
}

// sketchPerFile implements the "-o DIR" form: one sketch file per input,
// plus a jam.yml manifest for human inspection.
func sketchPerFile(builder *jam.SketchBuilder, files []string, outDir, format string, force bool) {
	checkError(os.MkdirAll(outDir, 0755))
	written := make(map[string]*jam.Sketch, len(files))
	for _, f := range files {
		sk, fileErrs := builder.Build([]string{f}, openFastx)
		if len(fileErrs) > 0 {
			for _, e := range fileErrs {
				log.Errorf("%s", e)
			}
			continue
		}
		base := stemName(f) + sketchExt(format)
		out := filepath.Join(outDir, base)
		checkOutFile(out, force)
		writeSketch(sk, out, format, force)
		written[base] = sk
	}
	checkError(errors.Wrap(writeManifest(outDir, written), "writing jam.yml manifest"))
}

func writeSketch(sk *jam.Sketch, outFile, format string, force bool) {
	bw, closer, f, err := outStream(outFile, false)
	checkError(err)
	defer func() {
		checkError(bw.Flush())
		if closer != nil {
			checkError(closer.Close())
		}
		if f != os.Stdout {
			checkError(f.Close())
		}
	}()

	switch format {
	case "sourmash":
		checkError(codec.WriteSourmash(bw, sk))
	default:
		checkError(codec.WriteNative(bw, sk))
	}
}

func sketchExt(format string) string {
	if format == "sourmash" {
		return ".sig.json"
	}
	return ".jams"
}

func isExistingDir(path string) (bool, error) {
	ok, err := pathutil.Exists(path)
	if err != nil || !ok {
		return false, err
	}
	return pathutil.IsDir(path)
}

// stemName strips directory and FASTA/FASTQ extensions, mirroring
// jam.SketchBuilder's own non-singleton record naming so a per-file "-o
// DIR" sketch's output basename lines up with the record name it would
// have carried in a single aggregated sketch.
func stemName(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".gz", ".fasta", ".fa", ".fastq", ".fq", ".fna"} {
		if filepath.Ext(base) == ext {
			base = base[:len(base)-len(ext)]
		}
	}
	return base
}

func init() {
	RootCmd.AddCommand(sketchCmd)

	sketchCmd.Flags().StringP("out", "o", "", "output sketch file (or directory, see docs)")
	sketchCmd.Flags().IntP("kmer-size", "k", 21, "k-mer size")
	sketchCmd.Flags().Uint64P("fscale", "", 0, "FracMinHash scale: retain hashes < 2^64/scale")
	sketchCmd.Flags().Uint64P("kscale", "", 0, "secondary scale gate on fscale survivors")
	sketchCmd.Flags().Uint64P("nmin", "", 0, "minimum retained hashes per record, re-admitting rejects if needed")
	sketchCmd.Flags().Uint64P("nmax", "", 0, "maximum retained hashes per record")
	sketchCmd.Flags().StringP("format", "", "bin", "output format: bin, sourmash")
	sketchCmd.Flags().StringP("algorithm", "", "default", "hash algorithm: default, ahash, xxhash, murmur3, nthash")
	sketchCmd.Flags().BoolP("singleton", "", false, "one sketch record per sequence record, not per file")
	sketchCmd.Flags().BoolP("stats", "", false, "compute per-record gc/length/base-count statistics")
}
