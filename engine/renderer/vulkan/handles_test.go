package vulkan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleTablesShareCounter(t *testing.T) {
	var counter uint64
	names := newHandleTable[string](&counter)
	sizes := newHandleTable[int](&counter)

	a := names.insert("a")
	b := sizes.insert(42)
	c := names.insert("c")

	assert.NotZero(t, a)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, b, c)

	_, ok := names.get(b)
	assert.False(t, ok, "handle from another table must not resolve")

	v, ok := sizes.get(b)
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestHandleTableRemove(t *testing.T) {
	var counter uint64
	table := newHandleTable[string](&counter)
	h := table.insert("x")
	assert.Equal(t, 1, table.len())

	v, ok := table.remove(h)
	require.True(t, ok)
	assert.Equal(t, "x", v)
	assert.Equal(t, 0, table.len())

	_, ok = table.remove(h)
	assert.False(t, ok)
}

func TestBytesToBytecodeLittleEndian(t *testing.T) {
	code := []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}
	words := bytesToBytecode(code)
	assert.Equal(t, []uint32{0x07230203, 0x00010000}, words)
}

func TestCString(t *testing.T) {
	var name [16]byte
	copy(name[:], "VK_LAYER")
	assert.Equal(t, "VK_LAYER", cString(name[:]))
	assert.Equal(t, "full", cString([]byte("full")))
}

func TestVulkanSafeString(t *testing.T) {
	assert.Equal(t, "\x00", VulkanSafeString(""))
	assert.Equal(t, "main\x00", VulkanSafeString("main"))
	assert.Equal(t, "main\x00", VulkanSafeString("main\x00"))
}
