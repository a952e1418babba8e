package services

import (
	"context"
	"sync"
	"time"

	"tripmate_server/logging"
	"tripmate_server/metrics"
)

// Channel is a live push channel supplied by the transport layer. The registry
// never looks inside it. Implementations must be comparable (pointer types).
type Channel interface {
	Push(ctx context.Context, event string, payload interface{}) error
}

// ConnectionHandle is the registered channel of one user.
type ConnectionHandle struct {
	UserID            string
	Channel           Channel
	ConnectedAt       time.Time
	ReconnectAttempts int
}

type departure struct {
	at       time.Time
	attempts int
}

// ConnectionRegistry maps users to their live channel. One handle per user; the
// last registration wins. It is in-process only and holds no durable state.
type ConnectionRegistry struct {
	mu       sync.RWMutex
	handles  map[string]*ConnectionHandle
	departed map[string]departure
	grace    time.Duration
	now      func() time.Time
}

// NewConnectionRegistry creates a registry. A registration within grace of the
// user's previous disconnect counts as a reconnect.
func NewConnectionRegistry(grace time.Duration) *ConnectionRegistry {
	return &ConnectionRegistry{
		handles:  make(map[string]*ConnectionHandle),
		departed: make(map[string]departure),
		grace:    grace,
		now:      time.Now,
	}
}

// Register installs ch as userID's channel, replacing any existing handle.
// ReconnectAttempts counts consecutive registrations that each followed a
// disconnect within the grace window; it is 0 for a fresh or replacing connection.
func (r *ConnectionRegistry) Register(userID string, ch Channel) ConnectionHandle {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	handle := &ConnectionHandle{UserID: userID, Channel: ch, ConnectedAt: now}

	// replacing a live handle (another tab, a re-register) is not a reconnect
	if _, ok := r.handles[userID]; !ok {
		metrics.LiveConnections.Inc()
		if d, ok := r.departed[userID]; ok && now.Sub(d.at) <= r.grace {
			handle.ReconnectAttempts = d.attempts + 1
		}
	}
	if handle.ReconnectAttempts > 0 {
		metrics.Reconnects.Inc()
	}

	delete(r.departed, userID)
	r.handles[userID] = handle
	r.pruneLocked(now)

	logging.Debug().Str("user_id", userID).Int("reconnect_attempts", handle.ReconnectAttempts).Msg("🔌 connection registered")
	return *handle
}

// Unregister drops userID's handle whatever channel it holds.
func (r *ConnectionRegistry) Unregister(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(userID)
}

// UnregisterChannel drops userID's handle only if ch is still the registered
// channel, so a late disconnect of a replaced channel does not evict its successor.
func (r *ConnectionRegistry) UnregisterChannel(userID string, ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	handle, ok := r.handles[userID]
	if !ok || handle.Channel != ch {
		return false
	}
	r.removeLocked(userID)
	return true
}

func (r *ConnectionRegistry) removeLocked(userID string) {
	handle, ok := r.handles[userID]
	if !ok {
		return
	}
	delete(r.handles, userID)
	r.departed[userID] = departure{at: r.now(), attempts: handle.ReconnectAttempts}
	metrics.LiveConnections.Dec()
	logging.Debug().Str("user_id", userID).Msg("🔌 connection unregistered")
}

func (r *ConnectionRegistry) pruneLocked(now time.Time) {
	for userID, d := range r.departed {
		if now.Sub(d.at) > r.grace {
			delete(r.departed, userID)
		}
	}
}

// Lookup returns userID's channel.
func (r *ConnectionRegistry) Lookup(userID string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handle, ok := r.handles[userID]
	if !ok {
		return nil, false
	}
	return handle.Channel, true
}

// Handle returns a copy of userID's handle.
func (r *ConnectionRegistry) Handle(userID string) (ConnectionHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handle, ok := r.handles[userID]
	if !ok {
		return ConnectionHandle{}, false
	}
	return *handle, true
}

func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
