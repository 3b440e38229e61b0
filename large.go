// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Large-object allocator.
//
// One global freelist of variable-size multi-page spans, guarded by
// one mutex. See mheap.go's allocSpanLocked for the split policy (trim
// the extra pages off and put them back) and freeSpanLocked/grow for
// the lock order on a miss: the freelist lock is dropped before
// calling into the growth primitive. Unlike mheap.go, freed spans are
// never coalesced back together; large requests are assumed rare
// enough that the resulting fragmentation doesn't matter.

package shardalloc

import "unsafe"

// largeFreeNode is the freelist entry a freed span is turned into,
// stored in-place in the span's own first bytes.
type largeFreeNode struct {
	numPages uintptr
	next     *largeFreeNode
}

type largeAllocator struct {
	mu        paddedMutex
	substrate Substrate
	freeList  *largeFreeNode
}

func newLargeAllocator(s Substrate) *largeAllocator {
	return &largeAllocator{substrate: s}
}

// allocate serves sz bytes, where sz already includes the two-word
// header (the dispatcher added it before calling here). Returns nil if
// the substrate cannot grow.
func (la *largeAllocator) allocate(sz uintptr) unsafe.Pointer {
	numPages := (sz + pageSize - 1) / pageSize

	la.mu.Lock()
	var prev *largeFreeNode
	for n := la.freeList; n != nil; n = n.next {
		switch {
		case n.numPages > numPages:
			// Split: the remainder stays at the low address and keeps
			// its freelist slot; the tail is carved off and handed
			// back with a fresh header.
			n.numPages -= numPages
			tailBase := unsafe.Pointer(uintptr(unsafe.Pointer(n)) + n.numPages*pageSize)
			la.mu.Unlock()
			return writeLargeHeader(tailBase, numPages)
		case n.numPages == numPages:
			if prev == nil {
				la.freeList = n.next
			} else {
				prev.next = n.next
			}
			la.mu.Unlock()
			return writeLargeHeader(unsafe.Pointer(n), numPages)
		}
		prev = n
	}
	la.mu.Unlock()

	p, err := la.substrate.Sbrk(numPages * pageSize)
	if err != nil {
		return nil
	}
	return writeLargeHeader(p, numPages)
}

// writeLargeHeader stamps the sentinel and page-count words at the
// start of span and returns the address past them.
func writeLargeHeader(span unsafe.Pointer, numPages uintptr) unsafe.Pointer {
	writeWord(span, 0, sentinelLarge)
	writeWord(span, 1, numPages)
	return unsafe.Pointer(uintptr(span) + 2*wordSize)
}

// free pushes the span containing p onto the head of the freelist.
// Coalescing is deliberately not performed.
func (la *largeAllocator) free(p unsafe.Pointer) {
	span := unsafe.Pointer(uintptr(p) - 2*wordSize)
	numPages := readWord(span, 1)

	node := (*largeFreeNode)(span)
	node.numPages = numPages

	la.mu.Lock()
	node.next = la.freeList
	la.freeList = node
	la.mu.Unlock()
}
