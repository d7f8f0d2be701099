package pmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegionAppendAndSlice(t *testing.T) {
	r, err := NewRegion(7, make([]byte, 16), 0)
	require.NoError(t, err)
	assert.Equal(t, ObjectID(7), r.ID())
	assert.Equal(t, 16, r.Cap())

	end, err := r.Append([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, end)
	end, err = r.Append([]byte(" world"))
	require.NoError(t, err)
	assert.Equal(t, 11, end)

	b, err := r.Slice(0, 11)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(b))
	assert.Equal(t, 11, cap(b), "slice must not expose bytes past the range")
}

func TestRegionCapacityExceeded(t *testing.T) {
	r, err := NewRegion(1, make([]byte, 8), 0)
	require.NoError(t, err)

	_, err = r.Append([]byte("12345"))
	require.NoError(t, err)
	end, err := r.Append([]byte("6789"))
	require.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 5, end)
	assert.Equal(t, 5, r.Len(), "a rejected append writes nothing")

	_, err = r.Append([]byte("678"))
	require.NoError(t, err)
	assert.Equal(t, 8, r.Len())
}

func TestRegionSliceBounds(t *testing.T) {
	buf := []byte("0123456789")
	r, err := NewRegion(1, buf, 6)
	require.NoError(t, err)

	b, err := r.Slice(4, 10)
	require.NoError(t, err)
	assert.Equal(t, "45", string(b), "reads crossing the written end are clamped")

	b, err = r.Slice(6, 1)
	require.NoError(t, err)
	assert.Empty(t, b)

	_, err = r.Slice(7, 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = r.Slice(-1, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = r.Slice(0, -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewRegionRejectsOverlongWritten(t *testing.T) {
	_, err := NewRegion(1, make([]byte, 4), 5)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = NewRegion(1, make([]byte, 4), -1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}
