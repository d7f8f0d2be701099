package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nvmenv/pkg/pmem"
)

func init() {
	zerolog.SetGlobalLevel(zerolog.ErrorLevel)
}

func seedPool(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "pool")
	pool, err := pmem.OpenPool(dir)
	require.NoError(t, err)
	for name, data := range map[string]string{
		"/db/000003.log":    "log record",
		"/db/CURRENT":       "MANIFEST-000001\n",
		"/db/MANIFEST-0001": "",
	} {
		base, id, err := pool.Alloc(name, 4096)
		require.NoError(t, err)
		copy(base, data)
		require.NoError(t, pool.Commit(id, len(data)))
	}
	require.NoError(t, pool.Close())
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "nvmctl", cmd.Use)
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"ls", "cat", "stat", "rm", "mv", "classify"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()
	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
	require.NotNil(t, cmd.PersistentFlags().Lookup("pool"))
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "yaml", "classify", "x")
	assert.ErrorContains(t, err, "invalid format")
}

func TestPoolRequired(t *testing.T) {
	_, err := execute(t, "ls")
	assert.ErrorIs(t, err, errNoPool)
}

func TestList(t *testing.T) {
	dir := seedPool(t)
	out, err := execute(t, "--pool", dir, "--format", "json", "ls")
	require.NoError(t, err)

	var objects []ObjectView
	require.NoError(t, json.Unmarshal([]byte(out), &objects))
	require.Len(t, objects, 3)
	assert.Equal(t, "/db/000003.log", objects[0].Name)
	assert.Equal(t, len("log record"), objects[0].Committed)
	assert.Equal(t, 4096, objects[0].Capacity)

	out, err = execute(t, "--pool", dir, "ls")
	require.NoError(t, err)
	assert.Contains(t, out, "COMMITTED")
	assert.Contains(t, out, "/db/CURRENT")
}

func TestCat(t *testing.T) {
	dir := seedPool(t)
	out, err := execute(t, "--pool", dir, "cat", "/db/CURRENT")
	require.NoError(t, err)
	assert.Equal(t, "MANIFEST-000001\n", out)

	_, err = execute(t, "--pool", dir, "cat", "/db/absent.log")
	assert.ErrorIs(t, err, pmem.ErrNotFound)
}

func TestStat(t *testing.T) {
	dir := seedPool(t)
	out, err := execute(t, "--pool", dir, "--format", "json", "stat", "/db/000003.log")
	require.NoError(t, err)

	var object ObjectView
	require.NoError(t, json.Unmarshal([]byte(out), &object))
	assert.Equal(t, "/db/000003.log", object.Name)
	assert.NotZero(t, object.ID)
}

func TestMoveAndRemove(t *testing.T) {
	dir := seedPool(t)
	_, err := execute(t, "--pool", dir, "mv", "/db/000003.log", "/db/000004.log")
	require.NoError(t, err)
	_, err = execute(t, "--pool", dir, "rm", "/db/CURRENT", "/db/MANIFEST-0001")
	require.NoError(t, err)

	pool, err := pmem.OpenPool(dir)
	require.NoError(t, err)
	defer pool.Close()
	assert.Equal(t, []string{"/db/000004.log"}, pool.Names())
}

func TestClassify(t *testing.T) {
	out, err := execute(t, "--format", "json", "classify", "/db/000001.ldb", "/db/LOCK")
	require.NoError(t, err)

	var routes []RouteView
	require.NoError(t, json.Unmarshal([]byte(out), &routes))
	assert.Equal(t, []RouteView{
		{Name: "/db/000001.ldb", Backend: "pmem"},
		{Name: "/db/LOCK", Backend: "filesystem"},
	}, routes)
}
