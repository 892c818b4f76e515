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

package jam

import "github.com/twotwotwo/sorts/sortutil"

// HashSlice is a slice of retained hashes, sortable ascending. It backs
// RecordSketch.SortedHashes (the order the interoperable format's mins
// field requires) and the nmax/nmin boundary sorts in Filter finalization.
type HashSlice []uint64

// Len returns the length of the slice.
func (s HashSlice) Len() int { return len(s) }

// Swap swaps two elements.
func (s HashSlice) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

// Less compares two hashes numerically.
func (s HashSlice) Less(i, j int) bool { return s[i] < s[j] }

// sortHashes sorts a HashSlice in place using a parallel sample sort, the
// same sortutil.Uint64s call unikmer/cmd/common.go uses to sort k-mer codes
// and info.go uses to sort unik ID lists. A sketch record's hash set is
// exactly that kind of large, sortutil-sized uint64 slice, not the small
// bounded-heap case container/heap covers elsewhere in this package.
func sortHashes(s HashSlice) { sortutil.Uint64s(s) }
