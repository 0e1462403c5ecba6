package sequence

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkgroupCountsExactCover(t *testing.T) {
	counts := WorkgroupCounts(256, 256, [3]uint32{16, 16, 1})
	assert.Equal(t, [3]uint32{16, 16, 1}, counts)
}

func TestWorkgroupCountsRoundsUp(t *testing.T) {
	counts := WorkgroupCounts(260, 256, [3]uint32{16, 16, 1})
	assert.Equal(t, [3]uint32{17, 16, 1}, counts)

	counts = WorkgroupCounts(1, 1, [3]uint32{16, 16, 1})
	assert.Equal(t, [3]uint32{1, 1, 1}, counts)

	counts = WorkgroupCounts(255, 257, [3]uint32{16, 16, 1})
	assert.Equal(t, [3]uint32{16, 17, 1}, counts)
}

func TestWorkgroupCountsZeroFootprint(t *testing.T) {
	counts := WorkgroupCounts(256, 256, [3]uint32{0, 0, 0})
	assert.Equal(t, [3]uint32{0, 0, 1}, counts)
}

func TestSequenceTakeIsSingleUse(t *testing.T) {
	buf := &wgpu.CommandBuffer{}
	seq := &sequenceImpl{buf: buf}

	got, err := seq.Take()
	require.NoError(t, err)
	assert.Same(t, buf, got)

	_, err = seq.Take()
	assert.ErrorIs(t, err, ErrSequenceConsumed)
}

func TestFinishedBuilderRejectsRecording(t *testing.T) {
	b := &builderImpl{label: "done", finished: true}

	assert.ErrorIs(t, b.AddRenderPass(RenderPassSpec{}), ErrSequenceFinished)
	assert.ErrorIs(t, b.AddComputePass(ComputePassSpec{}), ErrSequenceFinished)
	assert.ErrorIs(t, b.AddCopyBufferToBuffer(nil, nil, 0), ErrSequenceFinished)
	_, err := b.Finish()
	assert.ErrorIs(t, err, ErrSequenceFinished)
}
