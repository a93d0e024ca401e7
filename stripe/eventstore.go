package stripe

import (
	"sync"
	"time"
)

// MemoryEventStore remembers the ids of the webhook events already handled,
// so a redelivered event is acknowledged without being applied twice.
// Entries expire after the configured TTL.
type MemoryEventStore struct {
	events map[string]time.Time
	mutex  sync.RWMutex
	ttl    time.Duration
	stop   chan struct{}
	once   sync.Once
}

// NewMemoryEventStore creates a new in-memory event store. A zero ttl means
// 24 hours, which covers Stripe's retry window for failed deliveries.
func NewMemoryEventStore(ttl time.Duration) *MemoryEventStore {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	store := &MemoryEventStore{
		events: make(map[string]time.Time),
		ttl:    ttl,
		stop:   make(chan struct{}),
	}

	go store.cleanupLoop(time.Hour)

	return store
}

// EventExists checks if an event has already been processed
func (m *MemoryEventStore) EventExists(eventID string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	_, exists := m.events[eventID]
	return exists
}

// MarkProcessed marks an event as processed
func (m *MemoryEventStore) MarkProcessed(eventID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.events[eventID] = time.Now()
}

// Size returns the number of stored events
func (m *MemoryEventStore) Size() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.events)
}

// Close stops the cleanup goroutine.
func (m *MemoryEventStore) Close() {
	m.once.Do(func() { close(m.stop) })
}

func (m *MemoryEventStore) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.expire(now)
		}
	}
}

// expire removes the events older than the TTL at the given instant.
func (m *MemoryEventStore) expire(now time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for eventID, timestamp := range m.events {
		if now.Sub(timestamp) > m.ttl {
			delete(m.events, eventID)
		}
	}
}
