// Package cache holds short-lived aggregate results keyed by selection.
package cache

import (
	"sync"
	"time"
)

type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Size() int
}

// Cleaner is implemented by caches whose entries expire.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs periodic expiry over the registered caches.
type Manager struct {
	mu        sync.Mutex
	caches    []Cleaner
	onCleaned func(removed int)
	stop      chan struct{}
	done      chan struct{}
	started   bool
}

func NewManager() *Manager {
	return &Manager{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (m *Manager) Register(caches ...Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, caches...)
}

// OnCleaned sets a callback invoked after each sweep that removed entries.
func (m *Manager) OnCleaned(fn func(removed int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCleaned = fn
}

// Sweep expires entries in every registered cache once.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	fn := m.onCleaned
	m.mu.Unlock()

	removed := 0
	for _, c := range caches {
		removed += c.CleanExpired()
	}
	if removed > 0 && fn != nil {
		fn(removed)
	}
	return removed
}

func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stop:
			return
		}
	}
}

// Stop ends the cleanup loop. Safe to call when it never started.
func (m *Manager) Stop() {
	m.mu.Lock()
	started := m.started
	m.started = false
	m.mu.Unlock()
	if !started {
		return
	}
	close(m.stop)
	<-m.done
}
