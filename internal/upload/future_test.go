package upload

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_Settles(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	f := Go(context.Background(), func(context.Context) (int, error) {
		<-gate
		return 42, nil
	})

	assert.False(t, f.Settled())
	close(gate)

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.True(t, f.Settled())
}

func TestFuture_WaitGivesUpWithoutStoppingWork(t *testing.T) {
	t.Parallel()

	gate := make(chan struct{})
	f := Go(context.Background(), func(ctx context.Context) (string, error) {
		<-gate
		return "done", ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(gate)
	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestFuture_DetachedFromParentCancel(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithCancel(context.Background())
	gate := make(chan struct{})
	f := Go(parent, func(ctx context.Context) (struct{}, error) {
		<-gate
		return struct{}{}, ctx.Err()
	})

	cancel()
	close(gate)

	_, err := f.Wait(context.Background())
	assert.NoError(t, err)
}

func TestFuture_Error(t *testing.T) {
	t.Parallel()

	want := errors.New("nope")
	f := Go(context.Background(), func(context.Context) (int, error) { return 0, want })

	_, err := f.Wait(context.Background())
	assert.ErrorIs(t, err, want)
}
