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
	"runtime"

	"github.com/shenwei356/go-logging"
	"github.com/spf13/cobra"
	"github.com/twotwotwo/sorts"
)

var log = logging.MustGetLogger("jam")

// Options carries the global, command-independent flags every jam
// subcommand reads via getOptions.
type Options struct {
	NumCPUs int
	Verbose bool
	Force   bool
}

func getOptions(cmd *cobra.Command) *Options {
	opt := &Options{
		NumCPUs: getFlagPositiveInt(cmd, "threads"),
		Verbose: getFlagBool(cmd, "verbose"),
		Force:   getFlagBool(cmd, "force"),
	}
	runtime.GOMAXPROCS(opt.NumCPUs)
	sorts.MaxProcs = opt.NumCPUs
	return opt
}

// checkError prints err and aborts the process. Every fatal CLI-layer
// error - configuration, header mismatch, I/O - funnels through this
// single abort point.
func checkError(err error) {
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func getFlagString(cmd *cobra.Command, flag string) string {
	s, err := cmd.Flags().GetString(flag)
	checkError(err)
	return s
}

func getFlagStringSlice(cmd *cobra.Command, flag string) []string {
	s, err := cmd.Flags().GetStringSlice(flag)
	checkError(err)
	return s
}

func getFlagBool(cmd *cobra.Command, flag string) bool {
	b, err := cmd.Flags().GetBool(flag)
	checkError(err)
	return b
}

func getFlagInt(cmd *cobra.Command, flag string) int {
	i, err := cmd.Flags().GetInt(flag)
	checkError(err)
	return i
}

func getFlagPositiveInt(cmd *cobra.Command, flag string) int {
	i := getFlagInt(cmd, flag)
	if i <= 0 {
		checkError(fmt.Errorf("value of -%s should be a positive integer", flag))
	}
	return i
}

func getFlagNonNegativeUint64(cmd *cobra.Command, flag string) uint64 {
	i, err := cmd.Flags().GetUint64(flag)
	checkError(err)
	return i
}

// getFlagOptionalUint64 returns nil when the flag was left at its zero
// default, and a pointer to the value otherwise - the Filter.Fscale et al
// "unset means nil" convention from jam.Filter.
func getFlagOptionalUint64(cmd *cobra.Command, flag string) *uint64 {
	v := getFlagNonNegativeUint64(cmd, flag)
	if v == 0 {
		return nil
	}
	return &v
}

func getFlagOptionalFloat64(cmd *cobra.Command, flag string) *float64 {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	v, err := cmd.Flags().GetFloat64(flag)
	checkError(err)
	return &v
}

func getFlagFloat64(cmd *cobra.Command, flag string) float64 {
	f, err := cmd.Flags().GetFloat64(flag)
	checkError(err)
	return f
}
