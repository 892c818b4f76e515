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
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/shenwei356/jam"
	"github.com/shenwei356/jam/codec"
	"github.com/spf13/cobra"
)

var distCmd = &cobra.Command{
	Use:   "dist -i QUERY -d DB...",
	Short: "estimate containment of a query sketch in a database of sketches",
	Long: `dist streams a query sketch against a database of sketch files

Reports, for every (query record, database record) pair surviving the
cutoff and optional gc-percent gate, the containment of the query in that
database record: |Q ∩ R| / |Q|.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		queryFile := getFlagString(cmd, "query")
		if queryFile == "" {
			checkError(fmt.Errorf("flag -i/--query is required"))
		}
		dbArgs := getFlagStringSlice(cmd, "db")
		if len(dbArgs) == 0 {
			checkError(fmt.Errorf("flag -d/--db is required"))
		}
		dbFiles := expandInputs(dbArgs)

		outFile := getFlagString(cmd, "out")
		checkOutFile(outFile, opt.Force)

		gcLower := getFlagOptionalFloat64(cmd, "gc-lower")
		gcUpper := getFlagOptionalFloat64(cmd, "gc-upper")

		comp, err := jam.NewComparator(jam.CompareOptions{
			Cutoff:  getFlagFloat64(cmd, "cutoff"),
			GCLower: gcLower,
			GCUpper: gcUpper,
			Threads: opt.NumCPUs,
		})
		checkError(err)

		query, err := loadSketchFile(queryFile)
		checkError(err)
		if opt.Verbose {
			log.Infof("query %s: %d record(s), %s on disk", queryFile, len(query.Records), fileSizeHuman(queryFile))
		}

		rows, fileErrs, err := comp.Compare(query, dbFiles, openDBSketch)
		checkError(err)
		for _, e := range fileErrs {
			log.Warning(e)
		}

		writeDistRows(outFile, rows, opt.Force)
	},
}

// openDBSketch is the dist command's dbFileOpener: a bad database file is
// a soft, per-file error reported by jam.Comparator rather than aborting
// the run.
func openDBSketch(path string) (*jam.Sketch, error) {
	return loadSketchFile(path)
}

func fileSizeHuman(path string) string {
	fi, err := os.Stat(path)
	if err != nil {
		return "?"
	}
	return humanize.Bytes(uint64(fi.Size()))
}

func writeDistRows(outFile string, rows []jam.ComparisonRow, force bool) {
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

	tw := tabwriter.NewWriter(bw, 0, 4, 1, ' ', 0)
	fmt.Fprintln(tw, "query_id\tdb_file\tdb_record\tintersection\tcontainment")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.6f\n", r.QueryID, r.DBFile, r.DBRecordID, r.Intersection, r.Containment)
	}
	checkError(tw.Flush())
}

func init() {
	RootCmd.AddCommand(distCmd)

	distCmd.Flags().StringP("query", "i", "", "query sketch file")
	distCmd.Flags().StringSliceP("db", "d", nil, "database sketch file(s), directories or .list files")
	distCmd.Flags().StringP("out", "o", "-", "output file (\"-\" for stdout)")
	distCmd.Flags().Float64P("cutoff", "c", 0, "minimum containment to report")
	distCmd.Flags().Float64P("gc-lower", "", 0, "lower gc_percent bound, requires --gc-upper")
	distCmd.Flags().Float64P("gc-upper", "", 0, "upper gc_percent bound, requires --gc-lower")
}
