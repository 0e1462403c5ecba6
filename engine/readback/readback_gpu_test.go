package readback

import (
	"os"
	"testing"

	"github.com/calderagpu/caldera/engine/device"
	"github.com/calderagpu/caldera/engine/resource"
	"github.com/calderagpu/caldera/engine/sequence"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/require"
)

func requireGPU(t *testing.T) device.Context {
	t.Helper()
	if os.Getenv("CALDERA_GPU_TESTS") == "" {
		t.Skip("set CALDERA_GPU_TESTS=1 to run tests against a real device")
	}
	ctx, err := device.Acquire(device.WithLabel("readback test"))
	require.NoError(t, err)
	t.Cleanup(ctx.Release)
	return ctx
}

// TestBufferRoundTrip uploads bytes, copies them through the device, and
// reads them back: the result must equal the input exactly.
func TestBufferRoundTrip(t *testing.T) {
	ctx := requireGPU(t)
	builder := resource.NewBuilder(ctx)

	payload := make([]byte, 1024)
	for i := range payload {
		payload[i] = byte(i * 7)
	}

	src, err := builder.CreateBufferWithContents(resource.ContentsSpec{
		Label:         "round trip source",
		ElementCount:  uint64(len(payload)),
		ElementStride: 1,
		Usage:         wgpu.BufferUsageCopySrc,
	}, payload)
	require.NoError(t, err)
	defer src.Release()

	staging, err := NewStagingForBuffer(ctx, builder, src)
	require.NoError(t, err)
	defer staging.Destroy()

	b, err := sequence.Begin(ctx, "round trip")
	require.NoError(t, err)
	require.NoError(t, b.AddCopyBufferToBuffer(src, staging, src.Size()))
	seq, err := b.Finish()
	require.NoError(t, err)
	require.NoError(t, ctx.Submit(seq))

	require.NoError(t, staging.RequestMap())
	require.NoError(t, staging.Wait())

	got, err := staging.ReadPixels()
	require.NoError(t, err)
	require.Equal(t, payload, got)

	require.NoError(t, staging.Release())
}
