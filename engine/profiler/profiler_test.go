package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickLogsOnlyAfterInterval(t *testing.T) {
	p := New()
	p.updateInterval = 50 * time.Millisecond

	assert.False(t, p.Tick(1024))
	assert.False(t, p.Tick(1024))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, p.Tick(1024))

	// counters reset after a log
	assert.False(t, p.Tick(1024))
	assert.Equal(t, 1, p.iterations)
}
