package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_SweepIdle(t *testing.T) {
	clock := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	r := NewRegistry()
	r.now = func() time.Time { return clock }

	stale := r.Put(&Draft{Registration: NewRegistration(&spySigner{})})
	fresh := r.Put(&Draft{Owner: "u-1", Property: NewAddProperty(&spyAdder{})})
	assert.NotEqual(t, stale, fresh)

	clock = clock.Add(20 * time.Minute)
	_, ok := r.Get(fresh)
	require.True(t, ok)

	clock = clock.Add(15 * time.Minute)
	assert.Equal(t, 1, r.Sweep(30*time.Minute))
	assert.Equal(t, 1, r.Len())

	_, ok = r.Get(stale)
	assert.False(t, ok)
	d, ok := r.Get(fresh)
	require.True(t, ok)
	assert.Equal(t, "u-1", d.Owner)

	r.Delete(fresh)
	assert.Zero(t, r.Len())
}

func TestRegistry_PutLimitedCountsPerKind(t *testing.T) {
	r := NewRegistry()

	_, err := r.PutLimited(&Draft{Registration: NewRegistration(&spySigner{})}, 1)
	require.NoError(t, err)
	_, err = r.PutLimited(&Draft{Registration: NewRegistration(&spySigner{})}, 1)
	assert.ErrorIs(t, err, ErrFull)

	_, err = r.PutLimited(&Draft{Owner: "u-1", Property: NewAddProperty(&spyAdder{})}, 1)
	assert.NoError(t, err)

	_, err = r.PutLimited(&Draft{Registration: NewRegistration(&spySigner{})}, 0)
	assert.NoError(t, err, "zero means no limit")
	assert.Equal(t, 3, r.Len())
}
