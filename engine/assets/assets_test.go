package assets

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/vtabletop/engine/core"
)

func spirvBlob(words int) []byte {
	blob := make([]byte, words*4)
	binary.LittleEndian.PutUint32(blob, SPIRVMagic)
	binary.LittleEndian.PutUint32(blob[4:], 0x00010000)
	return blob
}

func writeBlob(t *testing.T, dir, name string, blob []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".spv"), blob, 0o644))
}

func TestValidateSPIRV(t *testing.T) {
	assert.NoError(t, ValidateSPIRV(spirvBlob(5)))

	short := spirvBlob(4)
	assert.Error(t, ValidateSPIRV(short))

	unaligned := append(spirvBlob(5), 0x00)
	assert.Error(t, ValidateSPIRV(unaligned))

	bad := spirvBlob(5)
	binary.LittleEndian.PutUint32(bad, 0xdeadbeef)
	assert.Error(t, ValidateSPIRV(bad))
}

func TestShaderLibraryLoadCaches(t *testing.T) {
	dir := t.TempDir()
	writeBlob(t, dir, "mesh.vert", spirvBlob(8))

	lib := NewShaderLibrary(dir)
	code, err := lib.Load("mesh.vert")
	require.NoError(t, err)
	assert.Len(t, code, 32)
	assert.True(t, lib.Cached("mesh.vert"))

	// served from cache even after the file disappears
	require.NoError(t, os.Remove(filepath.Join(dir, "mesh.vert.spv")))
	_, err = lib.Load("mesh.vert")
	assert.NoError(t, err)
}

func TestShaderLibraryLoadFailures(t *testing.T) {
	dir := t.TempDir()
	writeBlob(t, dir, "broken.frag", []byte("#version 450\nvoid main() {}\n"))
	lib := NewShaderLibrary(dir)

	_, err := lib.Load("missing.vert")
	assert.ErrorIs(t, err, core.ErrShaderLoad)

	_, err = lib.Load("broken.frag")
	assert.ErrorIs(t, err, core.ErrShaderLoad)
	assert.False(t, lib.Cached("broken.frag"))
}

func TestShaderLibraryWatchInvalidates(t *testing.T) {
	dir := t.TempDir()
	writeBlob(t, dir, "mesh.frag", spirvBlob(5))

	lib := NewShaderLibrary(dir)
	changes, err := lib.Watch()
	require.NoError(t, err)
	defer lib.Close()

	_, err = lib.Load("mesh.frag")
	require.NoError(t, err)

	writeBlob(t, dir, "mesh.frag", spirvBlob(6))

	select {
	case name := <-changes:
		assert.Equal(t, "mesh.frag", name)
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
	assert.False(t, lib.Cached("mesh.frag"))

	code, err := lib.Load("mesh.frag")
	require.NoError(t, err)
	assert.Len(t, code, 24)
}

func TestShaderLibraryCloseWithoutWatch(t *testing.T) {
	assert.NoError(t, NewShaderLibrary(t.TempDir()).Close())
}
