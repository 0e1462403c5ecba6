package present

import (
	"testing"

	"github.com/calderagpu/caldera/engine/device"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

type headlessContext struct{}

func (headlessContext) Device() *wgpu.Device                    { return nil }
func (headlessContext) Queue() *wgpu.Queue                      { return nil }
func (headlessContext) Adapter() *wgpu.Adapter                  { return nil }
func (headlessContext) AdapterInfo() wgpu.AdapterInfo           { return wgpu.AdapterInfo{} }
func (headlessContext) Surface() *wgpu.Surface                  { return nil }
func (headlessContext) Submit(seq device.CommandSequence) error { return nil }
func (headlessContext) Poll(wait bool) bool                     { return true }
func (headlessContext) Release()                                {}

var _ device.Context = headlessContext{}

func TestNewPresenterRequiresSurface(t *testing.T) {
	_, err := NewPresenter(headlessContext{})
	assert.ErrorIs(t, err, ErrNoSurface)
}

func TestPresentWithoutFrameIsNoOp(t *testing.T) {
	p := &presenterImpl{ctx: headlessContext{}}
	assert.NotPanics(t, func() { p.Present() })
	assert.NotPanics(t, func() { p.Release() })
}
