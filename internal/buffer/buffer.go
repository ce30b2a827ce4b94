// Package buffer stages serialized tick rows per instrument between
// ingestion and the scheduled flush.
package buffer

import "context"

// Buffer is an append-only, per-instrument ordered queue of serialized
// records. Producers push; the flusher drains. Implementations must be safe
// for concurrent push and drain: a push racing a drain lands in the current
// or the next drain, never lost and never duplicated.
type Buffer interface {
	// Push appends one serialized record to the instrument's queue. Once
	// Push returns nil the record must survive a process crash (for
	// durable backends).
	Push(ctx context.Context, symbol, row string) error

	// DrainAll atomically removes and returns every buffered record per
	// instrument, oldest first. Instruments with empty queues are
	// omitted.
	DrainAll(ctx context.Context) (map[string][]string, error)

	// Instruments lists every instrument ever pushed, whether or not its
	// queue currently holds records. The caller does not need to know
	// instrument ids in advance.
	Instruments(ctx context.Context) ([]string, error)
}
