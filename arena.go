// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Arena directory.
//
// A two-dimensional grid of page-ref list heads, indexed by
// (processor, size class), plus one mutex per processor. Grounded in
// mheap.go's
//
//	central [_NumSizeClasses]struct { mcentral mcentral; pad [CacheLineSize]byte }
//
// padding idiom, generalized to a second dimension and further
// grounded in the pack's gomlx-go-xla internal/pool.poolHead, which
// uses the identical "one cache-line-padded struct per P, each holding
// its own lock and list head" shape to shard a free-list pool by P.

package shardalloc

import (
	"sync"
	"unsafe"
)

const cacheLineSize = 64

// paddedMutex is a sync.Mutex padded out to one full cache line so
// that no two processors' locks ever share a cache line.
type paddedMutex struct {
	sync.Mutex
	_ [cacheLineSize - unsafe.Sizeof(sync.Mutex{})]byte
}

// arena holds the page-ref list heads for every size class served by
// one processor.
type arena struct {
	mu    paddedMutex
	lists [numSizeClasses]*pageRef
}

func newArenas(numProcessors int) []arena {
	return make([]arena, numProcessors)
}
