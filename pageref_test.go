package shardalloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestPageRefPoolAcquireGrowsFreshBatch(t *testing.T) {
	p := newPageRefPool()
	p.batchSize = 4

	r1, fresh1 := p.acquire()
	require.True(t, fresh1)
	require.NotNil(t, r1)
	require.Nil(t, r1.next)

	// Three more acquisitions drain the rest of the first batch without
	// carving another one.
	for i := 0; i < 3; i++ {
		r, fresh := p.acquire()
		require.True(t, fresh)
		require.NotNil(t, r)
	}
	require.Nil(t, p.fresh)

	r5, fresh5 := p.acquire()
	require.True(t, fresh5, "exhausting a batch must carve a new one rather than return nil")
	require.NotNil(t, r5)
}

func TestPageRefPoolReleaseThenAcquireReusesBoundPage(t *testing.T) {
	p := newPageRefPool()
	r, fresh := p.acquire()
	require.True(t, fresh)

	var page [pageSize]byte
	r.base = unsafe.Pointer(&page[0])
	r.numFree = 0

	p.release(r)

	got, needsPage := p.acquire()
	require.False(t, needsPage)
	require.Same(t, r, got)
	require.Equal(t, r.base, got.base)
}

func TestPageRefPoolReleaseWithoutDataPagePanics(t *testing.T) {
	p := newPageRefPool()
	r, _ := p.acquire()
	require.Panics(t, func() { p.release(r) })
}

func TestPageRefPoolAbandonFreshReturnsToFreshList(t *testing.T) {
	p := newPageRefPool()
	r, fresh := p.acquire()
	require.True(t, fresh)

	var page [pageSize]byte
	r.base = unsafe.Pointer(&page[0])

	p.abandonFresh(r)
	require.Nil(t, r.base)

	got, needsPage := p.acquire()
	require.True(t, needsPage)
	require.Same(t, r, got)
}
