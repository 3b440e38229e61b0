// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Small object size classes.
//
// See msize.go in the Go runtime for the general technique: the
// classes here are fixed powers of two instead of a computed
// 12.5%-waste table, so the lookup collapses to a single bit scan.

package shardalloc

import "math/bits"

const (
	minSizeClassShift = 3  // smallest class is 2^3 = 8 bytes
	maxSizeClassShift = 11 // largest class is 2^11 = 2048 bytes
	numSizeClasses    = maxSizeClassShift - minSizeClassShift + 1

	maxSmallSize = uintptr(1) << maxSizeClassShift // 2048
)

// classToSize[i] is the block size served by size class i.
var classToSize [numSizeClasses]uintptr

func init() {
	for i := range classToSize {
		classToSize[i] = uintptr(1) << (minSizeClassShift + i)
	}
}

// sizeToClass returns the smallest size class whose block size is >=
// size. A size of 0 is treated as 1; a size above maxSmallSize throws.
func sizeToClass(size uintptr) int {
	if size == 0 {
		size = 1
	}
	if size > maxSmallSize {
		throw("sizeToClass: size exceeds maxSmallSize")
	}
	shift := bits.Len(uint(size - 1))
	if shift < minSizeClassShift {
		shift = minSizeClassShift
	}
	return shift - minSizeClassShift
}

// classSize returns the block size for a given size class index.
func classSize(class int) uintptr {
	return classToSize[class]
}
