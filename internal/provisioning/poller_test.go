package provisioning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/imamik/surfspot/internal/testing"
	"github.com/imamik/surfspot/internal/workspace"
)

func TestPoller_ReturnsFirstAddress(t *testing.T) {
	t.Parallel()
	trace := &testutil.Trace{}
	provider := testutil.NewScriptedProvider(trace).GetSequence(
		testutil.NewRecord("w-1").Build(),
		testutil.NewRecord("w-1").Build(),
		testutil.NewRecord("w-1").WithAddress("10.0.0.5").Build(),
	)

	p := NewPoller(provider, 3, 0)
	addr, err := p.WaitForAddress(testutil.TestContext(t), "w-1")

	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", addr)
	assert.Equal(t, 3, trace.Count("get w-1"))
}

func TestPoller_StopsAtFirstAddress(t *testing.T) {
	t.Parallel()
	trace := &testutil.Trace{}
	provider := testutil.NewScriptedProvider(trace).GetSequence(
		testutil.NewRecord("w-1").WithAddress("10.0.0.1").Build(),
		testutil.NewRecord("w-1").WithAddress("10.0.0.2").Build(),
	)

	rec, err := NewPoller(provider, 5, 0).WaitForRecord(testutil.TestContext(t), "w-1")

	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", rec.Address)
	assert.Equal(t, 1, trace.Count("get w-1"))
}

func TestPoller_NeverExceedsAttempts(t *testing.T) {
	t.Parallel()
	trace := &testutil.Trace{}
	provider := testutil.NewScriptedProvider(trace).GetSequence(testutil.NewRecord("w-1").Build())

	_, err := NewPoller(provider, 4, 0).WaitForAddress(testutil.TestContext(t), "w-1")

	require.Error(t, err)
	var timeout *workspace.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "w-1", timeout.ID)
	assert.Equal(t, 4, timeout.Attempts)
	assert.NoError(t, timeout.LastErr)
	assert.Equal(t, 4, trace.Count("get w-1"))
}

func TestPoller_ErrorsConsumeBudget(t *testing.T) {
	t.Parallel()
	boom := errors.New("502 bad gateway")

	t.Run("recovers within budget", func(t *testing.T) {
		t.Parallel()
		trace := &testutil.Trace{}
		provider := testutil.NewScriptedProvider(trace).
			GetFails(boom).
			GetSequence(testutil.NewRecord("w-1").WithAddress("10.0.0.5").Build())

		addr, err := NewPoller(provider, 2, 0).WaitForAddress(testutil.TestContext(t), "w-1")

		require.NoError(t, err)
		assert.Equal(t, "10.0.0.5", addr)
		assert.Equal(t, 2, trace.Count("get w-1"))
	})

	t.Run("exhausts budget", func(t *testing.T) {
		t.Parallel()
		trace := &testutil.Trace{}
		provider := testutil.NewScriptedProvider(trace).GetFails(boom)

		_, err := NewPoller(provider, 3, 0).WaitForAddress(testutil.TestContext(t), "w-1")

		require.True(t, workspace.IsTimeout(err))
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 3, trace.Count("get w-1"))
	})
}

func TestPoller_ContextCancelled(t *testing.T) {
	t.Parallel()
	trace := &testutil.Trace{}
	provider := testutil.NewScriptedProvider(trace).GetSequence(testutil.NewRecord("w-1").Build())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPoller(provider, 3, 0).WaitForAddress(ctx, "w-1")

	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, workspace.IsTimeout(err))
	assert.Equal(t, 0, trace.Count("get w-1"))
}

func TestNewPoller_Defaults(t *testing.T) {
	t.Parallel()
	p := NewPoller(testutil.NewScriptedProvider(nil), 0, -1)
	assert.Equal(t, DefaultPollAttempts, p.Attempts())
	assert.Equal(t, DefaultPollInterval, p.interval)
}
