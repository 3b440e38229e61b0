// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Initialization and dispatch.
//
// The allocator's global state is a process-wide singleton guarded by
// an idempotent Init, the way mheap.init brings up the runtime's own
// singleton page heap: a narrow init-time parameterization over
// otherwise-fixed constants.

package shardalloc

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/rs/zerolog"
)

// Config parameterizes Init. The zero Config is a ready-to-use default:
// an mmap-backed substrate, CPU-affinity-detected processor count, and
// a silent logger.
type Config struct {
	// Substrate, if non-nil, replaces the default mmap-backed segment.
	// Mainly useful for tests that want a small, easily-exhausted
	// heap to exercise the substrate-exhausted path deterministically.
	Substrate Substrate

	// ReservedBytes bounds the default substrate's reservation. Ignored
	// if Substrate is set. Zero means defaultReservedBytes.
	ReservedBytes uintptr

	// NumProcessors overrides processor-count detection. Zero means
	// auto-detect via CPU affinity (Linux) or runtime.NumCPU.
	NumProcessors int

	// Logger receives init, growth, and recycling events. The zero
	// value is a disabled logger: this allocator never logs on its
	// own unless told to.
	Logger *zerolog.Logger
}

// Allocator is a single instance of the parallel heap allocator. The
// package-level Init/Allocate/Free functions operate on a process-wide
// default instance; New and its methods let a program run more than
// one instance side by side (mainly useful for tests).
type Allocator struct {
	substrate Substrate
	lo        uintptr
	pool      *pageRefPool
	arenas    []arena
	cpu       cpuSource
	large     *largeAllocator
	log       zerolog.Logger
}

// New constructs and initializes an Allocator per cfg. Unlike the
// package-level Init, New is not idempotent: each call produces an
// independent instance.
func New(cfg Config) (*Allocator, error) {
	sub := cfg.Substrate
	if sub == nil {
		sub = newMmapSubstrate(cfg.ReservedBytes)
	}
	if err := sub.Init(); err != nil {
		return nil, fmt.Errorf("shardalloc: substrate init: %w", err)
	}

	numProcs := cfg.NumProcessors
	if numProcs <= 0 {
		numProcs = detectNumProcessors()
	}
	if numProcs <= 0 {
		numProcs = 1
	}

	logger := defaultLogger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	lo, _ := sub.Bounds()
	a := &Allocator{
		substrate: sub,
		lo:        lo,
		pool:      newPageRefPool(),
		arenas:    newArenas(numProcs),
		cpu:       newRuntimeCPUSource(numProcs),
		large:     newLargeAllocator(sub),
		log:       logger,
	}
	a.log.Info().Int("numProcessors", numProcs).Msg("shardalloc initialized")
	return a, nil
}

// Allocate serves size bytes: requests up to half a page go to the
// subpage allocator, everything larger to the large allocator with two
// words reserved ahead of the payload for the span header. It returns
// nil iff the substrate cannot grow to satisfy the request.
func (a *Allocator) Allocate(size uintptr) unsafe.Pointer {
	if size == 0 {
		size = 1
	}
	if size <= maxSmallSize {
		return a.allocateSubpage(size)
	}
	return a.large.allocate(size + 2*wordSize)
}

// Free releases p. A nil p is a no-op and acquires no lock.
func (a *Allocator) Free(p unsafe.Pointer) {
	if p == nil {
		return
	}
	if !a.freeSubpage(p) {
		a.large.free(p)
	}
}

var (
	defaultAllocator     *Allocator
	defaultAllocatorOnce sync.Once
	defaultInitErr       error
)

// Init idempotently brings up the process-wide default Allocator.
// Subsequent calls are no-ops and return the first call's error, if
// any. Init fails only when the substrate fails to initialize.
func Init(cfg Config) error {
	defaultAllocatorOnce.Do(func() {
		a, err := New(cfg)
		if err != nil {
			defaultInitErr = err
			return
		}
		defaultAllocator = a
	})
	return defaultInitErr
}

// Allocate dispatches to the process-wide default Allocator. Init must
// be called first.
func Allocate(size uintptr) unsafe.Pointer {
	return defaultAllocator.Allocate(size)
}

// Free dispatches to the process-wide default Allocator. Init must be
// called first.
func Free(p unsafe.Pointer) {
	defaultAllocator.Free(p)
}
