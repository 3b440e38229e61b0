// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Raw word access.
//
// In-band metadata is what makes O(1) Free possible without an
// external address-to-owner map, so these accesses are load-bearing.
// Reads and writes of header words and freelist links go through this
// file. Block and span address arithmetic lives in subpage.go and
// large.go, and large.go overlays largeFreeNode directly on freed
// spans.

package shardalloc

import "unsafe"

const (
	pageSize  = 4096
	pageShift = 12
)

// wordSize is the size of one machine word, used for the large-span
// header (sentinel flag + page count). Every metadata field is written
// and read at its full width, never as a sub-field byte, so the write
// path and the read path can't disagree about the surrounding bits.
const wordSize = unsafe.Sizeof(uintptr(0))

// sentinelLarge is the all-ones machine word written at the first word
// of a large span's start page. It can never collide with the combined
// bytes of a subpage header (read the same way, as a full uintptr at
// offset 0) because a subpage header's processor id and class index are
// always small and bounded, so their combined bit pattern is never
// all-ones.
const sentinelLarge = ^uintptr(0)

func readWord(addr unsafe.Pointer, idx int) uintptr {
	return *(*uintptr)(unsafe.Pointer(uintptr(addr) + uintptr(idx)*wordSize))
}

func writeWord(addr unsafe.Pointer, idx int, v uintptr) {
	*(*uintptr)(unsafe.Pointer(uintptr(addr) + uintptr(idx)*wordSize)) = v
}

// headerWordSize is the width of one field of the subpage page header:
// a 32-bit signed processor id and a 32-bit class index, 8 bytes
// total. Keeping the header no wider than the smallest size class
// means it never overlaps more than the page's first block, so the
// base-block correction in the subpage allocator covers every class.
const headerWordSize = unsafe.Sizeof(uint32(0))

// subpageHeaderBytes is the total size of the (processor, class) header
// written at the base of every subpage page.
const subpageHeaderBytes = 2 * headerWordSize

func readHeaderWord(addr unsafe.Pointer, idx int) uint32 {
	return *(*uint32)(unsafe.Pointer(uintptr(addr) + uintptr(idx)*headerWordSize))
}

func writeHeaderWord(addr unsafe.Pointer, idx int, v uint32) {
	*(*uint32)(unsafe.Pointer(uintptr(addr) + uintptr(idx)*headerWordSize)) = v
}

// link is an address stored as a plain integer rather than a Go
// pointer, the same trick mcache.go's gclinkptr uses to keep in-page
// freelist chains opaque to anything that might otherwise try to trace
// them as object references.
type link uintptr

func (l link) ptr() unsafe.Pointer { return unsafe.Pointer(l) }

func loadLink(addr unsafe.Pointer) link {
	return link(*(*uintptr)(addr))
}

func storeLink(addr unsafe.Pointer, v link) {
	*(*uintptr)(addr) = uintptr(v)
}

func zeroPage(base unsafe.Pointer) {
	b := (*[pageSize]byte)(base)
	for i := range b {
		b[i] = 0
	}
}
