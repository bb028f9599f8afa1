package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentpilot/core"
)

func collect(t *testing.T, e *Emitter) []core.Event {
	t.Helper()
	var events []core.Event
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-e.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("stream never closed")
		}
	}
}

func TestEmitterOrderedStream(t *testing.T) {
	ctx := context.Background()
	e := NewEmitter()

	require.NoError(t, e.Emit(ctx, core.NewMetadataEvent("start", "s1", "agent", core.ModeDirect)))
	require.NoError(t, e.Emit(ctx, core.NewTokenEvent("hello ")))
	require.NoError(t, e.Emit(ctx, core.NewTokenEvent("world")))
	e.Finish(ctx, "s1", "agent", core.ModeDirect, "hello world", nil)

	events := collect(t, e)
	require.Len(t, events, 5)
	assert.Equal(t, core.EventMetadata, events[0].Type)
	assert.Equal(t, "start", events[0].Stage)
	assert.Equal(t, core.EventToken, events[1].Type)
	assert.Equal(t, core.EventToken, events[2].Type)
	assert.Equal(t, core.EventMetadata, events[3].Type)
	assert.Equal(t, "done", events[3].Stage)
	assert.Equal(t, core.EventDone, events[4].Type)
}

func TestEmitterSyntheticTokenWhenNothingStreamed(t *testing.T) {
	ctx := context.Background()
	e := NewEmitter()

	require.NoError(t, e.Emit(ctx, core.NewMetadataEvent("start", "s1", "agent", core.ModeDirect)))
	e.Finish(ctx, "s1", "agent", core.ModeDirect, "full response", nil)

	events := collect(t, e)
	require.Len(t, events, 4)
	assert.Equal(t, core.EventToken, events[1].Type)
	assert.Equal(t, "full response", events[1].Text)
}

func TestEmitterNoSyntheticTokenAfterRealTokens(t *testing.T) {
	ctx := context.Background()
	e := NewEmitter()

	require.NoError(t, e.Emit(ctx, core.NewTokenEvent("streamed")))
	e.Finish(ctx, "s1", "agent", core.ModeDirect, "streamed", nil)

	events := collect(t, e)
	tokens := 0
	for _, ev := range events {
		if ev.Type == core.EventToken {
			tokens++
		}
	}
	assert.Equal(t, 1, tokens)
}

func TestEmitterStatusSuppressedByDefault(t *testing.T) {
	ctx := context.Background()
	e := NewEmitter()

	require.NoError(t, e.Emit(ctx, core.NewStatusEvent("working")))
	e.Finish(ctx, "s1", "agent", core.ModeDirect, "done", nil)

	for _, ev := range collect(t, e) {
		assert.NotEqual(t, core.EventStatus, ev.Type)
	}
}

func TestEmitterStatusPassedWithTraceTools(t *testing.T) {
	ctx := context.Background()
	e := NewEmitter(func(o *Options) { o.TraceTools = true })

	require.NoError(t, e.Emit(ctx, core.NewStatusEvent("working")))
	e.Finish(ctx, "s1", "agent", core.ModeDirect, "done", nil)

	found := false
	for _, ev := range collect(t, e) {
		if ev.Type == core.EventStatus {
			found = true
			assert.Equal(t, "working", ev.Message)
		}
	}
	assert.True(t, found)
}

func TestEmitterDoneLastOnFailure(t *testing.T) {
	ctx := context.Background()
	e := NewEmitter()

	require.NoError(t, e.Emit(ctx, core.NewMetadataEvent("start", "s1", "agent", core.ModeDirect)))
	e.Finish(ctx, "s1", "agent", core.ModeDirect, "", errors.New("routing failed"))

	events := collect(t, e)
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	assert.Equal(t, core.EventDone, last.Type)

	errMeta := events[len(events)-2]
	assert.Equal(t, core.EventMetadata, errMeta.Type)
	assert.Equal(t, "done", errMeta.Stage)
	assert.Equal(t, "routing failed", errMeta.Error)

	// No synthetic token on failed runs.
	for _, ev := range events {
		assert.NotEqual(t, core.EventToken, ev.Type)
	}
}

func TestEmitterFinishIdempotent(t *testing.T) {
	ctx := context.Background()
	e := NewEmitter()

	e.Finish(ctx, "s1", "agent", core.ModeDirect, "done", nil)
	e.Finish(ctx, "s1", "agent", core.ModeDirect, "done", nil)

	events := collect(t, e)
	doneCount := 0
	for _, ev := range events {
		if ev.Type == core.EventDone {
			doneCount++
		}
	}
	assert.Equal(t, 1, doneCount)
}

func TestEmitterBackpressureBlocksUntilConsumed(t *testing.T) {
	ctx := context.Background()
	e := NewEmitter(func(o *Options) { o.BufferSize = 1 })

	require.NoError(t, e.Emit(ctx, core.NewTokenEvent("one")))

	blocked := make(chan error, 1)
	go func() {
		blocked <- e.Emit(ctx, core.NewTokenEvent("two"))
	}()

	select {
	case <-blocked:
		t.Fatal("emit should block on a full channel")
	case <-time.After(50 * time.Millisecond):
	}

	<-e.Events()
	require.NoError(t, <-blocked)
}

func TestEmitterEmitCancelledContext(t *testing.T) {
	e := NewEmitter(func(o *Options) { o.BufferSize = 1 })
	require.NoError(t, e.Emit(context.Background(), core.NewTokenEvent("fill")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := e.Emit(ctx, core.NewTokenEvent("stuck"))
	assert.ErrorIs(t, err, context.Canceled)
}
