package scheduler

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct{ n atomic.Int32 }

func (c *counter) Trigger() { c.n.Add(1) }

func TestRegister_RejectsBadCron(t *testing.T) {
	s := New(nil)
	err := s.Register("sweeper", "every now and then", &counter{})
	assert.Error(t, err)
	assert.Empty(t, s.jobs)
}

func TestTriggerNow(t *testing.T) {
	s := New(nil)
	a, b := &counter{}, &counter{}
	require.NoError(t, s.Register("a", "*/5 * * * *", a))
	require.NoError(t, s.Register("b", "", b))

	require.NoError(t, s.TriggerNow("a"))
	assert.EqualValues(t, 1, a.n.Load())
	assert.EqualValues(t, 0, b.n.Load())

	require.NoError(t, s.TriggerNow(""))
	assert.EqualValues(t, 2, a.n.Load())
	assert.EqualValues(t, 1, b.n.Load())

	assert.Error(t, s.TriggerNow("missing"))
}
