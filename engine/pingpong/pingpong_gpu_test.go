package pingpong

import (
	"encoding/binary"
	"os"
	"testing"

	"github.com/calderagpu/caldera/engine/device"
	"github.com/calderagpu/caldera/engine/pipeline"
	"github.com/calderagpu/caldera/engine/resource"
	"github.com/calderagpu/caldera/engine/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lifeWGSL = `
@group(0) @binding(0) var input_grid: texture_2d<u32>;
@group(0) @binding(1) var output_grid: texture_storage_2d<r32uint, write>;

@compute @workgroup_size(16, 16)
fn step(@builtin(global_invocation_id) id: vec3<u32>) {
    let dims = textureDimensions(input_grid);
    if (id.x >= dims.x || id.y >= dims.y) {
        return;
    }

    let w = i32(dims.x);
    let h = i32(dims.y);
    let x = i32(id.x);
    let y = i32(id.y);

    var neighbors: u32 = 0u;
    for (var dy: i32 = -1; dy <= 1; dy = dy + 1) {
        for (var dx: i32 = -1; dx <= 1; dx = dx + 1) {
            if (dx == 0 && dy == 0) {
                continue;
            }
            let nx = (x + dx + w) % w;
            let ny = (y + dy + h) % h;
            neighbors = neighbors + textureLoad(input_grid, vec2<i32>(nx, ny), 0).r;
        }
    }

    let alive = textureLoad(input_grid, vec2<i32>(x, y), 0).r;
    var next: u32 = 0u;
    if (alive == 1u && (neighbors == 2u || neighbors == 3u)) {
        next = 1u;
    }
    if (alive == 0u && neighbors == 3u) {
        next = 1u;
    }

    textureStore(output_grid, vec2<i32>(x, y), vec4<u32>(next, 0u, 0u, 0u));
}
`

func requireGPU(t *testing.T) device.Context {
	t.Helper()
	if os.Getenv("CALDERA_GPU_TESTS") == "" {
		t.Skip("set CALDERA_GPU_TESTS=1 to run tests against a real device")
	}
	ctx, err := device.Acquire(device.WithLabel("pingpong test"))
	require.NoError(t, err)
	t.Cleanup(ctx.Release)
	return ctx
}

func newLifeController(t *testing.T, ctx device.Context, width, height uint32, seed []byte, opts ...Option) Controller {
	t.Helper()

	builder := resource.NewBuilder(ctx)
	cs := shader.NewShader("life step", shader.ShaderTypeCompute, lifeWGSL)
	pipe, err := pipeline.NewComputePipeline(ctx, "life", cs)
	require.NoError(t, err)
	t.Cleanup(pipe.Release)

	c, err := NewController(ctx, builder, pipe, GridSpec{
		Label:  "life grid",
		Width:  width,
		Height: height,
	}, seed, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Release)
	return c
}

// TestAllDeadGridIsFixedPoint runs iterations over an empty grid: every
// observed frame must stay all zero.
func TestAllDeadGridIsFixedPoint(t *testing.T) {
	ctx := requireGPU(t)

	const width, height = 32, 32
	seed := make([]byte, width*height*4)

	c := newLifeController(t, ctx, width, height, seed, WithObserveOutput())

	for i := 0; i < 3; i++ {
		frame, err := c.Step()
		require.NoError(t, err)
		require.Len(t, frame, len(seed))
		assert.Equal(t, seed, frame, "iteration %d", i)
	}
}

// TestBlinkerOscillatesWithPeriodTwo seeds a vertical blinker; after two
// iterations the grid must equal the seed again and the input role must be
// back on the seed slot.
func TestBlinkerOscillatesWithPeriodTwo(t *testing.T) {
	ctx := requireGPU(t)

	const width, height = 32, 32
	seed := make([]byte, width*height*4)
	setCell := func(buf []byte, x, y int) {
		binary.LittleEndian.PutUint32(buf[(y*width+x)*4:], 1)
	}
	setCell(seed, 10, 9)
	setCell(seed, 10, 10)
	setCell(seed, 10, 11)

	c := newLifeController(t, ctx, width, height, seed, WithObserveOutput())

	afterOne, err := c.Step()
	require.NoError(t, err)

	// The blinker flips to horizontal.
	horizontal := make([]byte, width*height*4)
	setCell(horizontal, 9, 10)
	setCell(horizontal, 10, 10)
	setCell(horizontal, 11, 10)
	assert.Equal(t, horizontal, afterOne)
	assert.Equal(t, 1, c.InputSlot())

	afterTwo, err := c.Step()
	require.NoError(t, err)
	assert.Equal(t, seed, afterTwo)
	assert.Equal(t, 0, c.InputSlot())
	assert.Equal(t, uint64(2), c.Iterations())
}

// TestObserveInputLagsByOne uses the default observation slot: the first
// observed frame is the seed itself, not the first iteration's output.
func TestObserveInputLagsByOne(t *testing.T) {
	ctx := requireGPU(t)

	const width, height = 32, 32
	seed := make([]byte, width*height*4)
	binary.LittleEndian.PutUint32(seed[(10*width+10)*4:], 1)

	c := newLifeController(t, ctx, width, height, seed)

	frame, err := c.Step()
	require.NoError(t, err)
	assert.Equal(t, seed, frame)
}
