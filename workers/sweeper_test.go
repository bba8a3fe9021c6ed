package workers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estate_hub/wizard"
)

type countingDrafts struct {
	mu     sync.Mutex
	sweeps []time.Duration
	left   int
}

func (c *countingDrafts) Sweep(idle time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweeps = append(c.sweeps, idle)
	return 2
}

func (c *countingDrafts) Len() int { return c.left }

func (c *countingDrafts) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sweeps)
}

func TestDraftSweeper_SweepOnceUsesTTL(t *testing.T) {
	drafts := &countingDrafts{}
	w := NewDraftSweeper(drafts, 30*time.Minute, nil)

	assert.Equal(t, 2, w.SweepOnce())
	assert.Equal(t, []time.Duration{30 * time.Minute}, drafts.sweeps)
}

func TestDraftSweeper_RunSweepsOnTrigger(t *testing.T) {
	drafts := &countingDrafts{}
	w := NewDraftSweeper(drafts, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	w.Trigger()
	require.Eventually(t, func() bool { return drafts.calls() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestDraftSweeper_TriggerCoalesces(t *testing.T) {
	w := NewDraftSweeper(&countingDrafts{}, time.Minute, nil)
	w.Trigger()
	w.Trigger()
	w.Trigger()
	assert.Len(t, w.triggerCh, 1)
}

func TestDraftSweeper_RealRegistry(t *testing.T) {
	reg := wizard.NewRegistry()
	reg.Put(&wizard.Draft{})
	w := NewDraftSweeper(reg, 0, nil)

	time.Sleep(time.Millisecond)
	assert.Equal(t, 1, w.SweepOnce())
	assert.Zero(t, reg.Len())
}
