package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Backend
	}{
		{"/db/000005.log", PersistentMemory},
		{"/db/000007.ldb", PersistentMemory},
		{"/db/MANIFEST-000002", PersistentMemory},
		{"/db/CURRENT", PersistentMemory},
		{"/db/000003.dbtmp", PersistentMemory},
		{"/db/LOG", Filesystem},
		{"/db/LOG.old", Filesystem},
		{"/db/LOCK", Filesystem},
		{"/db/000008.sst", Filesystem},
		{"", Filesystem},
		// Several markers at once is still persistent memory.
		{"/db/MANIFEST.dbtmp", PersistentMemory},
		// The directory takes part in matching.
		{"/var/app.log/LOCK", PersistentMemory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Default.Classify(tt.name))
		})
	}
}

func TestClassifyDeterministic(t *testing.T) {
	names := []string{"/db/000001.log", "/db/LOG", "/db/CURRENT", "/x/y"}
	for _, name := range names {
		first := Default.Classify(name)
		for i := 0; i < 100; i++ {
			assert.Equal(t, first, Default.Classify(name))
		}
		assert.Equal(t, first, New(Default.Markers()...).Classify(name))
	}
}

func TestZeroPolicy(t *testing.T) {
	var p Policy
	assert.Equal(t, Filesystem, p.Classify("/db/000005.log"))
	assert.Equal(t, Filesystem, New("").Classify("anything"))
}

func TestBackendString(t *testing.T) {
	assert.Equal(t, "filesystem", Filesystem.String())
	assert.Equal(t, "pmem", PersistentMemory.String())
	assert.Equal(t, "unknown", Backend(9).String())
}
