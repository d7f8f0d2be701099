package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocateAligned(t *testing.T) {
	a := New(1 << 16)
	defer a.Close()

	for _, align := range []uint{1, 8, 64, 4096} {
		offset, err := a.Allocate(100, align)
		require.NoError(t, err)
		require.NotZero(t, offset)
		require.Zero(t, offset%align, "alignment %d", align)

		buf := a.GetBytes(offset, 100)
		require.Len(t, buf, 100)
		require.Equal(t, 100, cap(buf))
	}
}

func TestAllocationsDoNotOverlap(t *testing.T) {
	a := New(1 << 12)
	defer a.Close()

	first, err := a.Allocate(64, 8)
	require.NoError(t, err)
	second, err := a.Allocate(64, 8)
	require.NoError(t, err)
	require.GreaterOrEqual(t, second, first+64)
}

func TestArenaFull(t *testing.T) {
	a := New(1 << 12)
	defer a.Close()

	var err error
	for i := 0; i < 1<<12 && err == nil; i++ {
		_, err = a.Allocate(256, 8)
	}
	require.ErrorIs(t, err, ErrArenaFull)

	a.Reset()
	_, err = a.Allocate(256, 8)
	require.NoError(t, err)
}

func TestGetBytesNilOffset(t *testing.T) {
	a := New(1 << 12)
	defer a.Close()
	require.Nil(t, a.GetBytes(0, 10))
}
