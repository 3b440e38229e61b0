// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package shardalloc

import "fmt"

// InvariantError is raised by throw when the allocator's own
// bookkeeping is inconsistent or an internal precondition is broken: a
// size above maxSmallSize reaching sizeToClass, a free whose page no
// page-ref in its arena owns, a numFree that would exceed the page's
// slot count, a page-ref released without a data page, or a fresh page
// that cannot serve its own class. These mirror the runtime's throw("...") calls in mheap.go and
// mcentral.go; unlike the runtime, a library cannot abort the host
// process, so throw panics with a typed error instead.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return "shardalloc: " + e.Msg
}

func throw(msg string) {
	panic(&InvariantError{Msg: msg})
}

// ErrSubstrateExhausted is wrapped by the default substrate's Sbrk once
// its reservation is spent. Allocate never returns it: substrate
// exhaustion during allocation surfaces as a nil pointer, not an error
// value.
var ErrSubstrateExhausted = fmt.Errorf("shardalloc: substrate exhausted")
