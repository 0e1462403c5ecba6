package pingpong

import (
	"testing"

	"github.com/calderagpu/caldera/engine/pipeline"
	"github.com/calderagpu/caldera/engine/resource"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePipeline satisfies pipeline.Pipeline for validation paths that never
// touch the device.
type fakePipeline struct {
	pipelineType pipeline.PipelineType
}

func (p fakePipeline) Key() string                             { return "fake" }
func (p fakePipeline) Type() pipeline.PipelineType             { return p.pipelineType }
func (p fakePipeline) RenderPipeline() *wgpu.RenderPipeline    { return nil }
func (p fakePipeline) ComputePipeline() *wgpu.ComputePipeline  { return nil }
func (p fakePipeline) WorkgroupSize() [3]uint32                { return [3]uint32{16, 16, 1} }
func (p fakePipeline) LayoutDescriptor(group int) (wgpu.BindGroupLayoutDescriptor, bool) {
	return wgpu.BindGroupLayoutDescriptor{}, false
}
func (p fakePipeline) CreateBindGroup(group int, label string, entries []wgpu.BindGroupEntry) (*wgpu.BindGroup, error) {
	return nil, nil
}
func (p fakePipeline) Release() {}

func TestRoleAssignmentAlternates(t *testing.T) {
	c := &controllerImpl{}

	for want := uint64(0); want < 8; want++ {
		c.iterations = want
		input := c.InputSlot()
		assert.Equal(t, int(want%2), input, "iteration %d", want)
		assert.Equal(t, 1-input, c.OutputSlot(), "iteration %d", want)
	}
}

func TestRolesReturnToSeedAfterEvenIterations(t *testing.T) {
	c := &controllerImpl{}

	c.iterations = 0
	seedInput := c.InputSlot()

	c.iterations = 2
	assert.Equal(t, seedInput, c.InputSlot())

	c.iterations = 1
	assert.NotEqual(t, seedInput, c.InputSlot())
}

func TestObservedSlotDefaultsToInput(t *testing.T) {
	c := &controllerImpl{}

	for iterations := uint64(0); iterations < 4; iterations++ {
		c.iterations = iterations
		assert.Equal(t, c.InputSlot(), c.observedSlot())
	}

	c.observeOutput = true
	for iterations := uint64(0); iterations < 4; iterations++ {
		c.iterations = iterations
		assert.Equal(t, c.OutputSlot(), c.observedSlot())
	}
}

func TestNewControllerRejectsNonComputePipelines(t *testing.T) {
	_, err := NewController(nil, nil, nil, GridSpec{Label: "grid"}, nil)
	require.Error(t, err)

	_, err = NewController(nil, nil, fakePipeline{pipelineType: pipeline.PipelineTypeRender}, GridSpec{Label: "grid"}, nil)
	require.Error(t, err)
}

func TestNewControllerRejectsSeedSizeMismatch(t *testing.T) {
	spec := GridSpec{
		Label:  "grid",
		Width:  4,
		Height: 4,
		Format: wgpu.TextureFormatR32Uint,
	}

	// 4x4 cells at 4 bytes each needs 64 bytes.
	seed := make([]byte, 60)
	_, err := NewController(nil, nil, fakePipeline{pipelineType: pipeline.PipelineTypeCompute}, spec, seed)
	require.Error(t, err)

	var sizeErr *resource.SizeMismatchError
	require.ErrorAs(t, err, &sizeErr)
	assert.Equal(t, uint64(64), sizeErr.Want)
	assert.Equal(t, uint64(60), sizeErr.Got)
}

func TestRecordErrKeepsFirstError(t *testing.T) {
	c := &controllerImpl{}

	first := assert.AnError
	c.recordErr(first)
	c.recordErr(resource.ErrInvalidDescriptor)

	c.errMu.Lock()
	defer c.errMu.Unlock()
	assert.Same(t, first, c.firstErr)
}
