package shardalloc

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestLargeAllocateGrowsFromSubstrateWhenFreelistEmpty(t *testing.T) {
	sub := newMmapSubstrate(1 << 20)
	require.NoError(t, sub.Init())
	la := newLargeAllocator(sub)

	p := la.allocate(5 * pageSize)
	require.NotNil(t, p)
	require.Nil(t, la.freeList)
}

func TestLargeAllocateExactFitConsumesNode(t *testing.T) {
	sub := newMmapSubstrate(1 << 20)
	require.NoError(t, sub.Init())
	la := newLargeAllocator(sub)

	p := la.allocate(3 * pageSize)
	require.NotNil(t, p)
	la.free(p)
	require.NotNil(t, la.freeList)

	p2 := la.allocate(3 * pageSize)
	require.NotNil(t, p2)
	require.Equal(t, p, p2, "exact-size reuse must return the same span")
	require.Nil(t, la.freeList, "the only free node was fully consumed")
}

func TestLargeAllocateSplitKeepsRemainderAtLowAddress(t *testing.T) {
	sub := newMmapSubstrate(1 << 20)
	require.NoError(t, sub.Init())
	la := newLargeAllocator(sub)

	big := la.allocate(5 * pageSize)
	require.NotNil(t, big)
	la.free(big)
	require.NotNil(t, la.freeList)
	require.Equal(t, uintptr(5), la.freeList.numPages)

	small := la.allocate(2 * pageSize)
	require.NotNil(t, small)

	require.NotNil(t, la.freeList, "the 3-page remainder stays on the freelist")
	require.Equal(t, uintptr(3), la.freeList.numPages)

	smallSpan := unsafe.Pointer(uintptr(small) - 2*wordSize)
	bigSpan := unsafe.Pointer(uintptr(big) - 2*wordSize)
	require.Greater(t, uintptr(smallSpan), uintptr(bigSpan), "the carved tail sits above the retained remainder")
}

func TestLargeAllocateHeaderRoundTrip(t *testing.T) {
	sub := newMmapSubstrate(1 << 20)
	require.NoError(t, sub.Init())
	la := newLargeAllocator(sub)

	p := la.allocate(4 * pageSize)
	require.NotNil(t, p)
	span := unsafe.Pointer(uintptr(p) - 2*wordSize)
	require.Equal(t, sentinelLarge, readWord(span, 0))
	require.Equal(t, uintptr(4), readWord(span, 1))
}

func TestLargeFreedSpanServesFollowupsWithoutGrowth(t *testing.T) {
	sub := newMmapSubstrate(1 << 20)
	require.NoError(t, sub.Init())
	la := newLargeAllocator(sub)

	// 10000 bytes plus the header rounds up to a 3-page span; two
	// later 4000-byte requests (1 page each, header included) must both
	// carve out of the freed span rather than grow the heap.
	p1 := la.allocate(10000 + 2*wordSize)
	require.NotNil(t, p1)
	usedAfterFirst := sub.used
	la.free(p1)

	p2 := la.allocate(4000 + 2*wordSize)
	require.NotNil(t, p2)
	p3 := la.allocate(4000 + 2*wordSize)
	require.NotNil(t, p3)
	require.NotEqual(t, p2, p3)
	require.Equal(t, usedAfterFirst, sub.used, "both requests reuse the freed span")
}

func TestLargeAllocateExhaustsSubstrate(t *testing.T) {
	sub := newMmapSubstrate(pageSize)
	require.NoError(t, sub.Init())
	la := newLargeAllocator(sub)

	require.Nil(t, la.allocate(2*pageSize))
}
