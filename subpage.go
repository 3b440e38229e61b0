// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Subpage allocator.
//
// Serves requests up to half a page from the (processor, class) arena
// grid. Grounded in mcache.go's per-P, per-class span cache and
// mcentral.go's cacheSpan/freeSpan/grow: "walk this class's list for a
// span with room, else replenish from the layer below" is exactly
// mcentral.cacheSpan's shape, generalized here into an explicit
// per-processor list instead of a single global central list plus a
// one-span-deep per-P cache.
//
// The first block of every page overlaps the page's two-word
// (processor, class) header. That block is chained into the freelist by
// its payload address, subpageHeaderBytes past the page base, so its
// link word never clobbers the header and the address popped from the
// list is already the address handed to the caller. For the smallest
// class, whose blocks are exactly as wide as the header, the base block
// has no payload at all: it is never chained and never allocated, but
// still counts as one permanently free slot so the page's accounting
// stays at pageSize/csize.

package shardalloc

import "unsafe"

// allocateSubpage serves a request of at most maxSmallSize bytes.
func (a *Allocator) allocateSubpage(size uintptr) unsafe.Pointer {
	class := sizeToClass(size)
	csize := classToSize[class]
	procID := a.cpu.currentProcessor() % len(a.arenas)
	ar := &a.arenas[procID]

	ar.mu.Lock()
	ref := a.findServiceableLocked(ar, class, size, csize)
	if ref == nil {
		ref = a.growArenaLocked(ar, procID, class, size, csize)
	}
	var p unsafe.Pointer
	if ref != nil {
		p = a.popBlock(ref, size, csize)
	}
	ar.mu.Unlock()
	return p
}

// basePayload is the usable address of a page's base block, just past
// the (processor, class) header, and doubles as that block's freelist
// node address.
func basePayload(r *pageRef) unsafe.Pointer {
	return unsafe.Pointer(uintptr(r.base) + subpageHeaderBytes)
}

// headIsBase reports whether r's freelist head is the base block. Only
// meaningful for classes wider than the header: the smallest class
// never chains its base block, and for it an address equal to
// base+subpageHeaderBytes is an ordinary second block.
func headIsBase(r *pageRef, csize uintptr) bool {
	return csize > subpageHeaderBytes && r.freeHead.ptr() == basePayload(r)
}

// findServiceableLocked walks the arena's list for class looking for
// the first page-ref with a free block actually usable for size: any
// chained block, except that a base block at the head can serve only if
// size fits past the header or another free block is available to swap
// into its place.
func (a *Allocator) findServiceableLocked(ar *arena, class int, size, csize uintptr) *pageRef {
	for r := ar.lists[class]; r != nil; r = r.next {
		if r.freeHead == 0 {
			// Either fully allocated, or only the smallest class's
			// unusable base slot remains.
			continue
		}
		if !headIsBase(r, csize) || csize-subpageHeaderBytes >= size || r.numFree > 1 {
			return r
		}
	}
	return nil
}

// popBlock pops a usable block off r's freelist, swapping the base
// block out of head position first when size doesn't fit past the
// header. The popped node address is the caller's address as-is.
func (a *Allocator) popBlock(r *pageRef, size, csize uintptr) unsafe.Pointer {
	if headIsBase(r, csize) && csize-subpageHeaderBytes < size {
		a.swapBaseHead(r)
	}
	block := r.freeHead
	r.freeHead = loadLink(block.ptr())
	r.numFree--
	return block.ptr()
}

// swapBaseHead exchanges the freelist head (the base block) with its
// successor, so the next pop hands out a non-overlapping block.
func (a *Allocator) swapBaseHead(r *pageRef) {
	head := r.freeHead
	second := loadLink(head.ptr())
	storeLink(head.ptr(), loadLink(second.ptr()))
	storeLink(second.ptr(), head)
	r.freeHead = second
}

// growArenaLocked obtains a new page-ref from the pool, binds it to a
// data page if needed, builds its freelist, stamps the page's
// (processor, class) header, and splices it to the head of the
// arena's list for class. Returns nil if the substrate is exhausted.
func (a *Allocator) growArenaLocked(ar *arena, procID, class int, size, csize uintptr) *pageRef {
	ref, needsPage := a.pool.acquire()
	if needsPage {
		p, err := a.substrate.Sbrk(pageSize)
		if err != nil {
			a.pool.abandonFresh(ref)
			return nil
		}
		ref.base = p
		a.log.Info().Int("processor", procID).Int("class", class).Msg("substrate grew a new subpage")
	}
	a.buildFreelist(ref, csize)
	writeHeaderWord(ref.base, 0, uint32(procID))
	writeHeaderWord(ref.base, 1, uint32(class))
	ref.next = ar.lists[class]
	ar.lists[class] = ref
	// A fresh page always has a chained non-base block: every class is
	// at most half a page wide, so there are at least two blocks.
	if ref.freeHead == 0 || (headIsBase(ref, csize) && csize-subpageHeaderBytes < size && ref.numFree < 2) {
		throw("growArenaLocked: fresh page-ref cannot serve its own class")
	}
	return ref
}

// buildFreelist chains ref's bound page's class-sized slots into a
// singly linked free list. Blocks past the base chain by their own
// address; the base block, when it is wider than the header, chains by
// its payload address and sits at the head so a fresh page prefers it
// first. numFree always counts the base block, chained or not,
// matching the page's pageSize/csize slot accounting.
func (a *Allocator) buildFreelist(ref *pageRef, csize uintptr) {
	total := int(pageSize / csize)
	base := uintptr(ref.base)
	var head link
	for i := total - 1; i >= 1; i-- {
		addr := unsafe.Pointer(base + uintptr(i)*csize)
		storeLink(addr, head)
		head = link(uintptr(addr))
	}
	if csize > subpageHeaderBytes {
		addr := basePayload(ref)
		storeLink(addr, head)
		head = link(uintptr(addr))
	}
	ref.freeHead = head
	ref.numFree = total
}

// freeSubpage attempts to free p along the subpage path. It returns
// false if p's page turns out to belong to the large allocator instead
// (the page's first word holds the large sentinel), signaling the
// caller to redirect to the large free path.
func (a *Allocator) freeSubpage(p unsafe.Pointer) bool {
	pageBase := a.pageBaseOf(p)
	if readWord(pageBase, 0) == sentinelLarge {
		return false
	}
	procID := int(readHeaderWord(pageBase, 0))
	class := int(readHeaderWord(pageBase, 1))
	csize := classToSize[class]

	ar := &a.arenas[procID]
	ar.mu.Lock()
	defer ar.mu.Unlock()

	ref := a.findOwningLocked(ar, class, pageBase)
	if ref == nil {
		// Caller contract violation (unknown pointer or double free):
		// undefined per the published contract; this implementation
		// happens to notice the dangling walk and refuses to corrupt
		// the arena.
		throw("free: no page-ref owns this page in its arena list")
	}

	storeLink(p, ref.freeHead)
	ref.freeHead = link(uintptr(p))
	ref.numFree++

	total := int(pageSize / csize)
	if ref.numFree > total {
		throw("free: page-ref numFree exceeds page capacity")
	}
	if ref.numFree == total {
		a.detachAndRecycleLocked(ar, class, ref, pageBase)
	}
	return true
}

func (a *Allocator) findOwningLocked(ar *arena, class int, pageBase unsafe.Pointer) *pageRef {
	for r := ar.lists[class]; r != nil; r = r.next {
		if r.base == pageBase {
			return r
		}
	}
	return nil
}

// detachAndRecycleLocked unlinks a fully empty page-ref from the
// arena's list, zeroes its data page, and hands it back to the pool's
// reusable list.
func (a *Allocator) detachAndRecycleLocked(ar *arena, class int, target *pageRef, pageBase unsafe.Pointer) {
	var prev *pageRef
	for r := ar.lists[class]; r != nil; r = r.next {
		if r == target {
			if prev == nil {
				ar.lists[class] = r.next
			} else {
				prev.next = r.next
			}
			break
		}
		prev = r
	}
	zeroPage(pageBase)
	target.next = nil
	target.freeHead = 0
	target.numFree = 0
	a.pool.release(target)
	a.log.Debug().Int("class", class).Msg("recycled an empty subpage")
}

func (a *Allocator) pageBaseOf(p unsafe.Pointer) unsafe.Pointer {
	off := (uintptr(p) - a.lo) / pageSize * pageSize
	return unsafe.Pointer(a.lo + off)
}
