// Package connectivity tracks whether the remote bridge API is reachable and
// notifies subscribers when that changes.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Probe reports reachability of the remote side; nil means online.
type Probe func(ctx context.Context) error

// Monitor holds the current online flag. It keeps no persisted state.
type Monitor struct {
	mu     sync.RWMutex
	online bool
	nextID int
	subs   map[int]func(bool)
	logger zerolog.Logger
}

func NewMonitor(initial bool) *Monitor {
	return &Monitor{
		online: initial,
		subs:   make(map[int]func(bool)),
		logger: zerolog.Nop(),
	}
}

// WithLogger sets the logger used for transition events and returns m.
func (m *Monitor) WithLogger(l zerolog.Logger) *Monitor {
	m.mu.Lock()
	m.logger = l
	m.mu.Unlock()
	return m
}

func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Set records the new state and reports whether it changed. Subscribers run
// only on a change, outside the lock, in no particular order.
func (m *Monitor) Set(online bool) bool {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return false
	}
	m.online = online
	subs := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	logger := m.logger
	m.mu.Unlock()

	logger.Info().Bool("online", online).Msg("connectivity changed")
	for _, fn := range subs {
		fn(online)
	}
	return true
}

// Subscribe registers fn for transitions. The returned func removes it.
func (m *Monitor) Subscribe(fn func(online bool)) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// Detect runs probe once and returns the resulting state without storing it.
func Detect(ctx context.Context, probe Probe) bool {
	if probe == nil {
		return false
	}
	return probe(ctx) == nil
}

// Watch polls probe every interval and feeds the result into Set until ctx
// is done. Each probe call is bounded by the interval.
func (m *Monitor) Watch(ctx context.Context, probe Probe, interval time.Duration) {
	if probe == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, interval)
			online := probe(pctx) == nil
			cancel()
			if ctx.Err() != nil {
				return
			}
			m.Set(online)
		}
	}
}
