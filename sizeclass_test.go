package shardalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeToClassBoundaries(t *testing.T) {
	cases := []struct {
		size      uintptr
		wantClass int
		wantBytes uintptr
	}{
		{1, 0, 8},
		{7, 0, 8},
		{8, 0, 8},
		{9, 1, 16},
		{16, 1, 16},
		{17, 2, 32},
		{32, 2, 32},
		{33, 3, 64},
		{1024, 7, 1024},
		{1025, 8, 2048},
		{2048, 8, 2048},
	}
	for _, c := range cases {
		got := sizeToClass(c.size)
		assert.Equalf(t, c.wantClass, got, "sizeToClass(%d)", c.size)
		assert.Equalf(t, c.wantBytes, classSize(got), "classSize(sizeToClass(%d))", c.size)
	}
}

func TestSizeToClassZeroRoundsToOne(t *testing.T) {
	require.Equal(t, sizeToClass(1), sizeToClass(0))
}

func TestSizeToClassPanicsAboveMax(t *testing.T) {
	assert.PanicsWithError(t, (&InvariantError{Msg: "sizeToClass: size exceeds maxSmallSize"}).Error(), func() {
		sizeToClass(maxSmallSize + 1)
	})
}

func TestNumSizeClasses(t *testing.T) {
	require.Equal(t, 9, numSizeClasses)
	require.Equal(t, maxSmallSize, classToSize[numSizeClasses-1])
}
