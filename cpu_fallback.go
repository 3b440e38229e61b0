// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package shardalloc

import "runtime"

// detectNumProcessors falls back to runtime.NumCPU, the number of
// logical CPUs usable by the process, on platforms where CPU affinity masks aren't available through
// golang.org/x/sys/unix.
func detectNumProcessors() int {
	return runtime.NumCPU()
}
