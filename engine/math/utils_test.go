package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, uint32(2), Clamp(uint32(1), 2, 8))
	assert.Equal(t, uint32(8), Clamp(uint32(9), 2, 8))
	assert.Equal(t, uint32(5), Clamp(uint32(5), 2, 8))
	assert.Equal(t, float32(-1), Clamp(float32(-3.5), -1, 1))
}
