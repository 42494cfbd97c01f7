// Package stage provides a small atomic stage tracker. The engine uses two
// of them: one for the world lifecycle and one for the load executor's state
// machine.
package stage

import (
	"sync"
	"sync/atomic"
)

type Stage string

type Manager struct {
	current *atomic.Value

	mu      sync.Mutex
	waiters map[Stage][]chan struct{}
}

func NewManager(initial Stage) *Manager {
	m := &Manager{
		current: &atomic.Value{},
		waiters: make(map[Stage][]chan struct{}),
	}
	m.current.Store(initial)
	return m
}

func (m *Manager) Current() Stage {
	return m.current.Load().(Stage)
}

func (m *Manager) Store(val Stage) {
	m.current.Store(val)
	m.notify(val)
}

func (m *Manager) CompareAndSwap(oldStage, newStage Stage) (swapped bool) {
	swapped = m.current.CompareAndSwap(oldStage, newStage)
	if swapped {
		m.notify(newStage)
	}
	return swapped
}

func (m *Manager) Swap(newStage Stage) (oldStage Stage) {
	oldStage = m.current.Swap(newStage).(Stage)
	m.notify(newStage)
	return oldStage
}

// NotifyOnStage returns a channel that is closed when the manager reaches the
// given stage. If the manager is already at that stage, the returned channel
// is closed immediately.
func (m *Manager) NotifyOnStage(stage Stage) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{})
	if m.Current() == stage {
		close(ch)
		return ch
	}
	m.waiters[stage] = append(m.waiters[stage], ch)
	return ch
}

func (m *Manager) notify(stage Stage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.waiters[stage] {
		close(ch)
	}
	delete(m.waiters, stage)
}
