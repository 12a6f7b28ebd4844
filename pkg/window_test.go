package lmhist

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeWindowInvalid(t *testing.T) {
	t.Parallel()

	_, err := NewTimeWindow(5*time.Second, 2*time.Second, testConstants())
	var windowErr *ErrInvalidWindow
	require.True(t, errors.As(err, &windowErr))
	assert.Equal(t, 5*time.Second, windowErr.Tstart)
	assert.Equal(t, 2*time.Second, windowErr.Tstop)
}

func TestEmptyWindowIsDoneImmediately(t *testing.T) {
	t.Parallel()

	w, err := NewTimeWindow(time.Second, time.Second, testConstants())
	require.NoError(t, err)
	assert.True(t, w.Done)
	assert.False(t, w.Active)
}

func TestWindowProgression(t *testing.T) {
	t.Parallel()

	w, err := NewTimeWindow(time.Second, 3*time.Second, testConstants())
	require.NoError(t, err)

	// Before the first tag: elapsed 0, still outside the window.
	assert.False(t, w.Active)
	assert.False(t, w.Done)

	w.Tick()
	assert.True(t, w.Active)
	assert.Equal(t, 0, w.Bin)

	w.Tick()
	assert.True(t, w.Active)
	assert.Equal(t, 1, w.Bin)

	w.Tick()
	assert.True(t, w.Done)
	assert.False(t, w.Active)
}

func TestWindowFromAcquisitionStart(t *testing.T) {
	t.Parallel()

	w, err := NewTimeWindow(0, 2*time.Second, testConstants())
	require.NoError(t, err)
	assert.True(t, w.Active)
	assert.Equal(t, 0, w.Bin)
}

func TestWindowSetElapsed(t *testing.T) {
	t.Parallel()

	w, err := NewTimeWindow(0, 10*time.Second, testConstants())
	require.NoError(t, err)

	w.SetElapsed(7 * time.Second)
	assert.True(t, w.Active)
	assert.Equal(t, 7, w.Bin)

	w.SetElapsed(10 * time.Second)
	assert.True(t, w.Done)
}

func TestNumTimeBins(t *testing.T) {
	t.Parallel()

	curve := time.Second
	assert.Equal(t, 0, NumTimeBins(time.Second, time.Second, curve))
	assert.Equal(t, 3, NumTimeBins(0, 3*time.Second, curve))
	assert.Equal(t, 4, NumTimeBins(0, 3*time.Second+time.Millisecond, curve))
	assert.Equal(t, 2, NumTimeBins(time.Second, 3*time.Second, curve))
}
