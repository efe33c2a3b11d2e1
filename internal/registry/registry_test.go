package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kerrors "github.com/keywarden/keywarden/internal/errors"
)

func TestRegistry_RoundTrip(t *testing.T) {
	r := New(t.TempDir())

	require.NoError(t, r.Set("1000", "addr123"))

	addr, ok, err := r.Get("1000")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "addr123", addr)
}

func TestRegistry_GetUnsetOwner(t *testing.T) {
	r := New(t.TempDir())

	addr, ok, err := r.Get("1000")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, addr)
}

func TestRegistry_SetOverwrites(t *testing.T) {
	r := New(t.TempDir())

	require.NoError(t, r.Set("1000", "first.sock"))
	require.NoError(t, r.Set("1000", "second.sock"))

	addr, ok, err := r.Get("1000")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second.sock", addr)
}

func TestRegistry_OneSlotPerOwner(t *testing.T) {
	r := New(t.TempDir())

	require.NoError(t, r.Set("1000", "alice.sock"))
	require.NoError(t, r.Set("1001", "bob.sock"))

	addr, ok, err := r.Get("1000")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice.sock", addr)

	addr, ok, err = r.Get("1001")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bob.sock", addr)
}

func TestRegistry_SharedAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	writer := New(dir)
	require.NoError(t, writer.Set("1000", "published.sock"))

	// A second instance constructs its own Registry over the same directory.
	reader := New(dir)
	addr, ok, err := reader.Get("1000")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "published.sock", addr)
}

func TestRegistry_ValidatesArguments(t *testing.T) {
	r := New(t.TempDir())

	assert.Error(t, r.Set("", "addr"))
	assert.Error(t, r.Set("1000", ""))

	_, _, err := r.Get("")
	assert.Error(t, err)
}

func TestRegistry_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte("not [valid toml"), 0o600))

	r := New(dir)
	_, _, err := r.Get("1000")
	require.Error(t, err)
	assert.ErrorIs(t, err, kerrors.ErrRegistryCorrupt)
}

func TestRegistry_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	r := New(dir)
	require.NoError(t, r.Set("1000", "addr.sock"))

	info, err := os.Stat(filepath.Join(dir, fileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fileMode), info.Mode().Perm())
}
