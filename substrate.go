// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Heap substrate.
//
// The sbrk-equivalent primitive the allocator sits on: a single region
// that only ever grows, guarded by one coarse lock, never returning
// overlapping bytes. mheap.go's own sysAlloc/grow pair plays the same
// role for the Go runtime's page heap. This file supplies the concrete
// implementation this module needs to run standalone: one large
// anonymous mapping reserved up front (so addresses never move once
// handed out) and bumped monotonically on every Sbrk call.

package shardalloc

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// defaultReservedBytes bounds the virtual address range a Substrate
// will ever hand out. Anonymous pages are zero-fill-on-demand, so the
// reservation costs no physical memory until touched.
const defaultReservedBytes = 1 << 30 // 1GiB

// Substrate is the external heap-segment primitive the allocator
// consumes. Sbrk must be monotonic, never return overlapping regions,
// and always stay within [lo, hi) as reported by Bounds.
type Substrate interface {
	Init() error
	Sbrk(n uintptr) (unsafe.Pointer, error)
	Bounds() (lo, hi uintptr)
}

// mmapSubstrate is the default Substrate: one reserved anonymous
// mapping, bumped from its low end.
type mmapSubstrate struct {
	mu       sync.Mutex
	region   []byte
	lo, hi   uintptr // hi is the reservation's exclusive upper bound
	used     uintptr // bytes handed out so far, relative to lo
	reserved uintptr
}

func newMmapSubstrate(reservedBytes uintptr) *mmapSubstrate {
	if reservedBytes == 0 {
		reservedBytes = defaultReservedBytes
	}
	return &mmapSubstrate{reserved: reservedBytes}
}

func (s *mmapSubstrate) Init() error {
	region, err := unix.Mmap(-1, 0, int(s.reserved), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return fmt.Errorf("shardalloc: reserve heap segment: %w", err)
	}
	s.region = region
	s.lo = uintptr(unsafe.Pointer(&region[0]))
	s.hi = s.lo + s.reserved
	return nil
}

// Sbrk grows the segment by n bytes and returns a pointer to the start
// of the newly available range, or an error if the reservation is
// exhausted. The growth lock is always the innermost lock taken:
// nothing here calls back into the allocator.
func (s *mmapSubstrate) Sbrk(n uintptr) (unsafe.Pointer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.used+n > s.reserved {
		return nil, fmt.Errorf("%w (requested %d, %d of %d used)", ErrSubstrateExhausted, n, s.used, s.reserved)
	}
	p := unsafe.Pointer(&s.region[s.used])
	s.used += n
	return p, nil
}

func (s *mmapSubstrate) Bounds() (lo, hi uintptr) {
	return s.lo, s.hi
}
