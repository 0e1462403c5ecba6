package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 5, Coalesce(0, 5, 7))
	assert.Equal(t, uint32(1), Coalesce(uint32(0), 1))
	assert.Equal(t, 0, Coalesce(0, 0))
	assert.Equal(t, "a", Coalesce("", "a"))
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint64(256), AlignUp(1, 256))
	assert.Equal(t, uint64(256), AlignUp(256, 256))
	assert.Equal(t, uint64(512), AlignUp(257, 256))
	assert.Equal(t, uint64(400), AlignUp(400, 0))
}

func TestCeilDiv(t *testing.T) {
	assert.Equal(t, uint32(16), CeilDiv(256, 16))
	assert.Equal(t, uint32(17), CeilDiv(260, 16))
	assert.Equal(t, uint32(1), CeilDiv(1, 16))
	assert.Equal(t, uint32(0), CeilDiv(256, 0))
}
