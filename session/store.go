package session

import "github.com/hupe1980/agentpilot/core"

// DefaultHistoryLimit bounds the run history kept per session unless
// overridden via Options.
const DefaultHistoryLimit = 20

// Store is the shared contract for pluggable session persistence backends.
type Store interface {
	// Get returns the session record for the given id or a
	// *core.NotFoundError when the id is unknown.
	Get(sessionID string) (*core.Session, error)

	// Create allocates a fresh session with a generated unique id and
	// persists its empty record.
	Create() (*core.Session, error)

	// Update persists the given session snapshot atomically, refreshing its
	// UpdatedAt timestamp and bounding the run history. Concurrent updates
	// to the same session id are serialized; updates to different ids
	// proceed independently.
	Update(s *core.Session) error
}

// Options tunes backend behavior shared by all implementations.
type Options struct {
	// HistoryLimit bounds run_history to the N most recent entries, evicting
	// the oldest on overflow. Defaults to DefaultHistoryLimit.
	HistoryLimit int
}

func applyOptions(optFns []func(o *Options)) Options {
	opts := Options{HistoryLimit: DefaultHistoryLimit}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	return opts
}

// WithHistoryLimit overrides the run history bound.
func WithHistoryLimit(n int) func(o *Options) {
	return func(o *Options) { o.HistoryLimit = n }
}
