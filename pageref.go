// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Page-reference pool.
//
// A process-wide pool of fixed-size metadata records, one per 4KiB
// subpage page currently in use. Grounded in mfixalloc.go's fixalloc:
// a free list fed by chunk-carving, with the same "reuse the head of
// the free list before carving a new chunk" order. Unlike fixalloc's
// clients, a page-ref can carry an external resource (a bound data
// page) across a free/reuse cycle, so this pool keeps two lists
// instead of fixalloc's one: reusable (bound page retained, no re-sbrk
// needed) and fresh (no data page yet).
//
// The records themselves are backed by ordinary Go allocations rather
// than bytes carved out of the Substrate: mfixalloc.go itself draws its
// chunks from persistentalloc, a separate bump allocator from the main
// sbrk-based heap, rather than from user-visible heap memory. This
// keeps the same separation without requiring unsafe tricks for a
// struct the Go runtime's own (non-generational, non-moving) GC is
// perfectly able to manage.

package shardalloc

import "unsafe"

// pageRefData describes one 4KiB subpage page: its bound data page (if
// any), the in-page freelist of unallocated blocks, and how many of
// those blocks are free. A page-ref belongs to exactly one list at a
// time: either the (processor, class) arena list serving it, or one of
// the pool's two lists.
type pageRefData struct {
	next     *pageRef
	base     unsafe.Pointer // bound 4KiB data page, nil until bound
	freeHead link           // head of the in-page freelist, 0 if full
	numFree  int
}

// pageRef pads the record out to one cache line: records carved from
// the same batch end up serving arenas on different processors, and
// without the padding their numFree updates would contend on shared
// lines.
type pageRef struct {
	pageRefData
	_ [cacheLineSize - unsafe.Sizeof(pageRefData{})%cacheLineSize]byte
}

func (r *pageRef) hasDataPage() bool { return r.base != nil }

// pageRefPool is the process-wide source of page-refs. One mutex
// guards both lists.
type pageRefPool struct {
	mu        paddedMutex
	reusable  *pageRef
	fresh     *pageRef
	batchSize int
}

func newPageRefPool() *pageRefPool {
	return &pageRefPool{batchSize: 64}
}

// acquire implements the pool's acquisition algorithm: reusable list
// first, then fresh list, carving a new batch of fresh records only
// when both are empty. The returned bool reports whether the caller
// still needs to bind a data page (true for fresh records, false for
// reused ones, which keep their previously bound page).
func (p *pageRefPool) acquire() (*pageRef, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.reusable != nil {
		r := p.reusable
		p.reusable = r.next
		r.next = nil
		return r, false
	}

	if p.fresh == nil {
		p.growFreshLocked()
	}
	r := p.fresh
	p.fresh = r.next
	r.next = nil
	return r, true
}

// growFreshLocked carves a new batch of page-refs and links them onto
// the fresh list. Mirrors fixalloc's "sbrk a chunk, carve it into
// records" step, amortized across many acquisitions.
func (p *pageRefPool) growFreshLocked() {
	batch := make([]pageRef, p.batchSize)
	for i := range batch {
		batch[i].next = p.fresh
		p.fresh = &batch[i]
	}
}

// release returns an emptied page-ref (data page retained and already
// zeroed by the caller) to the reusable list.
func (p *pageRefPool) release(r *pageRef) {
	if !r.hasDataPage() {
		throw("pageRefPool.release: page-ref has no bound data page")
	}
	p.mu.Lock()
	r.next = p.reusable
	p.reusable = r
	p.mu.Unlock()
}

// abandonFresh returns a still-unbound page-ref to the fresh list,
// used when binding its data page failed (substrate exhausted) so the
// record isn't leaked.
func (p *pageRefPool) abandonFresh(r *pageRef) {
	p.mu.Lock()
	r.base = nil
	r.next = p.fresh
	p.fresh = r
	p.mu.Unlock()
}
