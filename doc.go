// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package shardalloc is a parallel, general-purpose heap allocator.
//
// It serves Allocate and Free calls from many goroutines at once on top
// of a single, monotonically growing heap segment obtained from a
// Substrate. The heap is split into three layers: a page-ref pool that
// manufactures and recycles fixed-size page metadata records, a
// per-processor size-classed subpage allocator for requests up to half
// a page, and a single global large-object allocator for everything
// above that.
//
// See mheap.go, mcache.go and mcentral.go in the Go runtime for the
// design this package generalizes: a per-P cache over a central
// freelist over a page heap, here made explicit as a two-dimensional
// (processor, size class) arena grid with its own lock discipline
// instead of cooperating with a garbage collector.
package shardalloc
