package pingpong

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/calderagpu/caldera/engine/device"
	"github.com/calderagpu/caldera/engine/pipeline"
	"github.com/calderagpu/caldera/engine/readback"
	"github.com/calderagpu/caldera/engine/resource"
	"github.com/calderagpu/caldera/engine/sequence"
	"github.com/cogentcore/webgpu/wgpu"
)

// GridSpec describes the two-slot grid a controller iterates over.
type GridSpec struct {
	// Label is the base debug label for the slot textures.
	Label string

	// Width and Height are the grid dimensions in cells.
	Width  uint32
	Height uint32

	// Format is the cell format. Defaults to R32Uint when zero.
	Format wgpu.TextureFormat
}

// controllerImpl is the implementation of the Controller interface.
type controllerImpl struct {
	ctx     device.Context
	pipe    pipeline.Pipeline
	spec    GridSpec
	label   string
	counts  [3]uint32
	staging readback.Staging

	// slots[0] is the seed slot; bindGroups[i] reads slots[i] and writes
	// slots[1-i]. Both bind groups are precomputed so iteration never
	// rebuilds binding state.
	slots      [2]resource.Texture
	bindGroups [2]*wgpu.BindGroup

	// iterations counts completed Steps. The input slot index is a pure
	// function of it: seed slot XOR (iterations mod 2).
	iterations uint64

	// observeOutput selects which slot each Step copies into staging. The
	// default observes the input slot, the state written by the previous
	// iteration, so the observed frame sequence lags the grid by one step.
	observeOutput bool

	observer        func(iteration uint64, pixels []byte) error
	observerWorkers int
	pool            worker.DynamicWorkerPool
	wg              sync.WaitGroup

	errMu    sync.Mutex
	firstErr error
}

// Controller alternates two grid textures between input and output roles
// across compute iterations, so each pass reads the previous iteration's
// output and writes the other slot. With a fixed seed and iteration count the
// emitted frame sequence is fully reproducible.
type Controller interface {
	// InputSlot returns the slot index (0 or 1) the next iteration reads.
	//
	// Returns:
	//   - int: the current input slot index
	InputSlot() int

	// OutputSlot returns the slot index the next iteration writes.
	//
	// Returns:
	//   - int: the current output slot index
	OutputSlot() int

	// Iterations returns the number of completed iterations.
	//
	// Returns:
	//   - uint64: the completed iteration count
	Iterations() uint64

	// Slot returns the texture in the given slot.
	//
	// Parameters:
	//   - slot: the slot index, 0 or 1
	//
	// Returns:
	//   - resource.Texture: the slot's texture
	Slot(slot int) resource.Texture

	// Step runs one iteration: dispatches the compute pass with the bind
	// group for the current role assignment, copies the observed slot into
	// staging, reads the frame back, and flips the roles. The returned
	// bytes are tightly packed rows, safe to retain.
	//
	// Returns:
	//   - []byte: the observed frame
	//   - error: an error if recording, submission, or readback failed
	Step() ([]byte, error)

	// Run performs the given number of iterations, handing each observed
	// frame to the configured observer. With observer workers configured the
	// observers run on a worker pool concurrently with subsequent GPU
	// iterations; Run returns after all observers finish.
	//
	// Parameters:
	//   - iterations: the number of iterations to run
	//
	// Returns:
	//   - error: the first error from an iteration or an observer
	Run(iterations int) error

	// Release frees the slot textures, bind groups, and staging buffer.
	Release()
}

var _ Controller = &controllerImpl{}

// NewController creates a ping-pong controller over two freshly created grid
// textures, seeds slot 0 with the given cell bytes, and precomputes the two
// role bind groups against the pipeline's reflected layout. The seed length
// must equal width * height * texel size.
//
// Parameters:
//   - ctx: the device context
//   - builder: the resource builder the slot textures are created with
//   - pipe: the compute pipeline iterated with; group 0 must declare one
//     sampled texture (the input) and one storage texture (the output)
//   - spec: the grid description
//   - seed: the initial cell bytes written into slot 0
//   - opts: a variadic list of Option functions
//
// Returns:
//   - Controller: the controller, with slot 0 as the initial input
//   - error: an error if validation, resource creation, or binding fails
func NewController(ctx device.Context, builder resource.Builder, pipe pipeline.Pipeline, spec GridSpec, seed []byte, opts ...Option) (Controller, error) {
	if pipe == nil || pipe.Type() != pipeline.PipelineTypeCompute {
		return nil, fmt.Errorf("pingpong %q: a compute pipeline is required", spec.Label)
	}
	if spec.Format == 0 {
		spec.Format = wgpu.TextureFormatR32Uint
	}

	c := &controllerImpl{
		ctx:   ctx,
		pipe:  pipe,
		spec:  spec,
		label: spec.Label,
	}
	for _, opt := range opts {
		opt(c)
	}

	texelSize, err := resource.TexelSize(spec.Format)
	if err != nil {
		return nil, err
	}
	wantSeed := uint64(spec.Width) * uint64(spec.Height) * uint64(texelSize)
	if uint64(len(seed)) != wantSeed {
		return nil, &resource.SizeMismatchError{Want: wantSeed, Got: uint64(len(seed))}
	}

	for i := range c.slots {
		tex, texErr := builder.CreateTexture(resource.TextureSpec{
			Label:  fmt.Sprintf("%s slot %d", spec.Label, i),
			Width:  spec.Width,
			Height: spec.Height,
			Format: spec.Format,
			Usage: wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst |
				wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding,
		})
		if texErr != nil {
			c.Release()
			return nil, texErr
		}
		c.slots[i] = tex
	}

	c.ctx.Queue().WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  c.slots[0].Raw(),
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		seed,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  spec.Width * texelSize,
			RowsPerImage: spec.Height,
		},
		&wgpu.Extent3D{
			Width:              spec.Width,
			Height:             spec.Height,
			DepthOrArrayLayers: 1,
		},
	)

	if err := c.buildBindGroups(); err != nil {
		c.Release()
		return nil, err
	}

	staging, err := readback.NewStagingForTexture(ctx, builder, c.slots[0])
	if err != nil {
		c.Release()
		return nil, err
	}
	c.staging = staging

	c.counts = sequence.WorkgroupCounts(spec.Width, spec.Height, pipe.WorkgroupSize())

	if c.observerWorkers > 0 {
		c.pool = worker.NewDynamicWorkerPool(c.observerWorkers, 256, 1*time.Second)
	}

	return c, nil
}

// buildBindGroups locates the input and output texture bindings in the
// pipeline's reflected layout for group 0 and precomputes one bind group per
// role assignment.
func (c *controllerImpl) buildBindGroups() error {
	desc, ok := c.pipe.LayoutDescriptor(0)
	if !ok {
		return fmt.Errorf("pingpong %q: pipeline declares no bind group 0", c.label)
	}

	inputBinding, outputBinding := -1, -1
	for _, entry := range desc.Entries {
		switch {
		case entry.StorageTexture.Format != wgpu.TextureFormatUndefined:
			outputBinding = int(entry.Binding)
		case entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			inputBinding = int(entry.Binding)
		}
	}
	if inputBinding < 0 || outputBinding < 0 {
		return fmt.Errorf("pingpong %q: group 0 must declare a sampled input texture and a storage output texture", c.label)
	}

	for i := range c.bindGroups {
		in, out := c.slots[i], c.slots[1-i]
		bg, err := c.pipe.CreateBindGroup(0, fmt.Sprintf("%s reads slot %d", c.label, i), []wgpu.BindGroupEntry{
			{Binding: uint32(inputBinding), TextureView: in.View()},
			{Binding: uint32(outputBinding), TextureView: out.View()},
		})
		if err != nil {
			return err
		}
		c.bindGroups[i] = bg
	}
	return nil
}

func (c *controllerImpl) InputSlot() int {
	return int(c.iterations % 2)
}

func (c *controllerImpl) OutputSlot() int {
	return 1 - c.InputSlot()
}

func (c *controllerImpl) Iterations() uint64 {
	return c.iterations
}

func (c *controllerImpl) Slot(slot int) resource.Texture {
	return c.slots[slot]
}

// observedSlot returns the slot index the next Step copies into staging.
func (c *controllerImpl) observedSlot() int {
	if c.observeOutput {
		return c.OutputSlot()
	}
	return c.InputSlot()
}

func (c *controllerImpl) Step() ([]byte, error) {
	input := c.InputSlot()
	observed := c.slots[c.observedSlot()]

	b, err := sequence.Begin(c.ctx, fmt.Sprintf("%s iteration %d", c.label, c.iterations))
	if err != nil {
		return nil, err
	}
	if err := b.AddComputePass(sequence.ComputePassSpec{
		Label:           c.label,
		Pipeline:        c.pipe,
		BindGroup:       c.bindGroups[input],
		WorkgroupCounts: c.counts,
	}); err != nil {
		return nil, err
	}
	if err := b.AddCopyTextureToBuffer(observed, c.staging, c.staging.Layout()); err != nil {
		return nil, err
	}
	seq, err := b.Finish()
	if err != nil {
		return nil, err
	}
	if err := c.ctx.Submit(seq); err != nil {
		return nil, err
	}

	if err := c.staging.RequestMap(); err != nil {
		return nil, err
	}
	if err := c.staging.Wait(); err != nil {
		return nil, err
	}
	pixels, err := c.staging.ReadPixels()
	if err != nil {
		return nil, err
	}
	if err := c.staging.Release(); err != nil {
		return nil, err
	}

	c.iterations++
	return pixels, nil
}

func (c *controllerImpl) Run(iterations int) error {
	for i := 0; i < iterations; i++ {
		frame := c.iterations
		pixels, err := c.Step()
		if err != nil {
			return err
		}
		if c.observer == nil {
			continue
		}

		if c.pool == nil {
			if err := c.observer(frame, pixels); err != nil {
				return err
			}
			continue
		}

		c.wg.Add(1)
		c.pool.SubmitTask(worker.Task{
			ID: int(frame),
			Do: func() (any, error) {
				defer c.wg.Done()
				if err := c.observer(frame, pixels); err != nil {
					c.recordErr(err)
				}
				return nil, nil
			},
		})
	}

	c.wg.Wait()

	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.firstErr
}

func (c *controllerImpl) recordErr(err error) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.firstErr == nil {
		c.firstErr = err
	}
}

func (c *controllerImpl) Release() {
	for i, bg := range c.bindGroups {
		if bg != nil {
			bg.Release()
			c.bindGroups[i] = nil
		}
	}
	for i, tex := range c.slots {
		if tex != nil {
			tex.Release()
			c.slots[i] = nil
		}
	}
	if c.staging != nil {
		c.staging.Destroy()
		c.staging = nil
	}
}
