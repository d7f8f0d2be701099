package pmem

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolSurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pool")
	p, err := OpenPool(dir)
	require.NoError(t, err)

	base, id, err := p.Alloc("/db/000003.log", 8192)
	require.NoError(t, err)
	copy(base, "committed|uncommitted")
	require.NoError(t, p.Commit(id, len("committed")))
	require.NoError(t, p.Close())

	p, err = OpenPool(dir)
	require.NoError(t, err)
	defer p.Close()

	data, info, err := p.Open("/db/000003.log")
	require.NoError(t, err)
	assert.Equal(t, id, info.ID)
	assert.Equal(t, len("committed"), info.Committed)
	assert.Equal(t, "committed", string(data[:info.Committed]))

	// New ids never collide with loaded ones.
	_, id2, err := p.Alloc("/db/000004.log", 4096)
	require.NoError(t, err)
	assert.Greater(t, id2, id)
}

func TestPoolRenameSurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pool")
	p, err := OpenPool(dir)
	require.NoError(t, err)

	_, _, err = p.Alloc("/db/000005.dbtmp", 4096)
	require.NoError(t, err)
	require.NoError(t, p.Rename("/db/000005.dbtmp", "/db/CURRENT"))
	require.NoError(t, p.Close())

	p, err = OpenPool(dir)
	require.NoError(t, err)
	defer p.Close()
	assert.Equal(t, []string{"/db/CURRENT"}, p.Names())
}

func TestPoolDeleteRemovesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pool")
	p, err := OpenPool(dir)
	require.NoError(t, err)
	defer p.Close()

	base, id, err := p.Alloc("obj", 4096)
	require.NoError(t, err)
	copy(base, "still mapped")
	require.NoError(t, p.Commit(id, 12))
	require.NoError(t, p.Delete("obj"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Slices handed out before the delete stay readable until Close.
	assert.Equal(t, "still mapped", string(base[:12]))
}

func TestPoolCorruptHeader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pool")
	p, err := OpenPool(dir)
	require.NoError(t, err)
	_, _, err = p.Alloc("obj", 4096)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	path := filepath.Join(dir, "00000001.obj")
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	require.NoError(t, err)
	_, err = f.WriteAt([]byte{0xff}, 20)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = OpenPool(dir)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestPoolNameTooLong(t *testing.T) {
	p, err := OpenPool(filepath.Join(t.TempDir(), "pool"))
	require.NoError(t, err)
	defer p.Close()

	_, _, err = p.Alloc(strings.Repeat("x", MaxNameLen+1), 4096)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPoolIgnoresForeignFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pool")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0644))

	p, err := OpenPool(dir)
	require.NoError(t, err)
	defer p.Close()
	assert.Empty(t, p.Names())
	assert.Equal(t, dir, p.Dir())
}

func TestHeaderRoundTrip(t *testing.T) {
	buf := make([]byte, headerSize)
	h := header{id: 9, capacity: 1 << 22, committed: 77, name: "/db/MANIFEST-000009"}
	h.encode(buf)

	got, err := decodeHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)

	buf[headerFixed] ^= 1
	_, err = decodeHeader(buf)
	assert.ErrorIs(t, err, ErrCorrupt)
}
