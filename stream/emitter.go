// Package stream implements the ordered event emission protocol for
// streaming runs: a single producer writes typed events onto a bounded
// channel and the consumer drains it until the terminal done event.
// Backpressure is the channel's natural blocking-on-full behavior, so the
// producer suspends exactly at event-emission boundaries and never inside
// step execution logic.
package stream

import (
	"context"

	"github.com/hupe1980/agentpilot/core"
)

// DefaultBufferSize is the event channel capacity used when none is given.
const DefaultBufferSize = 64

// Options configures an Emitter.
type Options struct {
	// BufferSize sets the bounded channel capacity.
	BufferSize int
	// TraceTools controls whether status events are delivered. Disabling it
	// suppresses status events only; token, plan, step_result and ui events
	// are never reordered or dropped.
	TraceTools bool
}

// Emitter sequences the events of one run. It must be driven by a single
// producer goroutine; ordering guarantees follow from that.
//
// Protocol per run: metadata first (always), then interleaved status/token
// events, then for plan mode one plan event and step_result events, an
// optional ui event, a final metadata event with stage "done" (carrying
// error info on failure), and the terminal done event. Done is emitted even
// on failure, always last.
type Emitter struct {
	ch         chan core.Event
	traceTools bool
	tokensSent bool
	finished   bool
}

// NewEmitter constructs an Emitter with a bounded event channel.
func NewEmitter(optFns ...func(o *Options)) *Emitter {
	opts := Options{BufferSize: DefaultBufferSize, TraceTools: true}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	return &Emitter{ch: make(chan core.Event, opts.BufferSize), traceTools: opts.TraceTools}
}

// Events returns the channel the consumer drains. It is closed after the
// terminal done event.
func (e *Emitter) Events() <-chan core.Event { return e.ch }

// Emit delivers one event, blocking while the transport is not ready to
// accept it. Status events are dropped when tool tracing is off. Returns the
// context error when the consumer went away.
func (e *Emitter) Emit(ctx context.Context, ev core.Event) error {
	if e.finished {
		return nil
	}
	if ev.Type == core.EventStatus && !e.traceTools {
		return nil
	}
	if ev.Type == core.EventToken {
		e.tokensSent = true
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case e.ch <- ev:
		return nil
	}
}

// Finish terminates the stream: when no token events were produced but a
// final text exists, exactly one synthetic token event equal to that text is
// emitted first, guaranteeing streaming and blocking modes return equivalent
// content. Then the final metadata event (stage "done", with error info when
// runErr is non-nil) and the terminal done event are sent and the channel is
// closed. Finish is idempotent.
func (e *Emitter) Finish(ctx context.Context, sessionID, agentID string, mode core.ExecutionMode, finalText string, runErr error) {
	if e.finished {
		return
	}

	if runErr == nil && !e.tokensSent && finalText != "" {
		e.send(ctx, core.NewTokenEvent(finalText))
	}

	var meta core.Event
	if runErr != nil {
		meta = core.NewErrorMetadataEvent(sessionID, runErr)
		meta.SelectedAgent = agentID
		meta.Mode = mode
	} else {
		meta = core.NewMetadataEvent("done", sessionID, agentID, mode)
	}
	e.send(ctx, meta)
	e.send(ctx, core.NewDoneEvent())

	e.finished = true
	close(e.ch)
}

// send delivers directly, bypassing the trace filter; used only for the
// terminal sequence. A cancelled consumer is tolerated: the events are
// dropped but the channel still closes.
func (e *Emitter) send(ctx context.Context, ev core.Event) {
	select {
	case <-ctx.Done():
	case e.ch <- ev:
	}
}
