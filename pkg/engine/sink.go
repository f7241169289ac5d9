package engine

import (
	"context"

	"github.com/jwebster45206/clocktower-engine/pkg/state"
)

// NarrationSink receives public announcement strings: phase changes,
// death reveals, vote tallies. The engine treats delivery as
// fire-and-forget; a sink error never blocks or fails a rule decision.
type NarrationSink interface {
	Announce(ctx context.Context, gameID string, message string)
}

// Recorder receives immutable snapshots of the event log for persistence
// and replay. The engine emits and moves on; it never depends on
// successful persistence to proceed.
type Recorder interface {
	Record(ctx context.Context, gs *state.GameState)
}

// NopSink discards narration. Used in tests and simulations.
type NopSink struct{}

func (NopSink) Announce(context.Context, string, string) {}

// NopRecorder discards snapshots.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, *state.GameState) {}
