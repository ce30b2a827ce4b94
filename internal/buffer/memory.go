package buffer

import (
	"context"
	"sort"
	"sync"
)

// Memory is an in-process Buffer used by tests and redis-less dry runs. It
// offers the same ordering and drain semantics as Redis but no crash
// durability.
type Memory struct {
	globalMu sync.RWMutex
	data     map[string]*symbolQueue
}

type symbolQueue struct {
	mu   sync.Mutex
	rows []string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]*symbolQueue)}
}

func (m *Memory) queue(symbol string) *symbolQueue {
	// Fast path: the symbol's queue already exists
	m.globalMu.RLock()
	q, ok := m.data[symbol]
	m.globalMu.RUnlock()
	if ok {
		return q
	}

	m.globalMu.Lock()
	defer m.globalMu.Unlock()
	if q, ok = m.data[symbol]; !ok {
		q = &symbolQueue{}
		m.data[symbol] = q
	}
	return q
}

func (m *Memory) Push(_ context.Context, symbol, row string) error {
	q := m.queue(symbol)
	q.mu.Lock()
	q.rows = append(q.rows, row)
	q.mu.Unlock()
	return nil
}

func (m *Memory) DrainAll(_ context.Context) (map[string][]string, error) {
	m.globalMu.RLock()
	queues := make(map[string]*symbolQueue, len(m.data))
	for symbol, q := range m.data {
		queues[symbol] = q
	}
	m.globalMu.RUnlock()

	out := make(map[string][]string)
	for symbol, q := range queues {
		q.mu.Lock()
		rows := q.rows
		q.rows = nil
		q.mu.Unlock()
		if len(rows) > 0 {
			out[symbol] = rows
		}
	}
	return out, nil
}

func (m *Memory) Instruments(_ context.Context) ([]string, error) {
	m.globalMu.RLock()
	defer m.globalMu.RUnlock()

	symbols := make([]string, 0, len(m.data))
	for symbol := range m.data {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols, nil
}
