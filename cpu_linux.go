// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package shardalloc

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// detectNumProcessors sizes the arena directory from the process's live
// CPU affinity mask, which tracks the processors this process can
// actually run on more closely than runtime.NumCPU() would on a machine
// where it is pinned to a subset of cores (e.g. under a container CPU
// quota or taskset).
func detectNumProcessors() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return runtime.NumCPU()
	}
	n := set.Count()
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}
