package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/bkoseoglu/mallhub/internal/identity"
	"github.com/google/uuid"
)

// Client is one server-side client session: a provider instance bound to its
// resolver. Sessions are keyed by the sid claim carried in access tokens.
type Client struct {
	SID       uuid.UUID
	Provider  *identity.Provider
	Resolver  *Resolver
	ExpiresAt time.Time
}

// Registry tracks live client sessions with sliding TTL expiry.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Client
	ttl      time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

func NewRegistry(ttl time.Duration) *Registry {
	r := &Registry{
		sessions: make(map[uuid.UUID]*Client),
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go r.sweep()
	return r
}

func (r *Registry) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.expire(time.Now())
		case <-r.done:
			return
		}
	}
}

func (r *Registry) expire(now time.Time) {
	r.mu.Lock()
	var expired []*Client
	for sid, c := range r.sessions {
		if now.After(c.ExpiresAt) {
			delete(r.sessions, sid)
			expired = append(expired, c)
		}
	}
	r.mu.Unlock()

	for _, c := range expired {
		c.Resolver.Close()
	}
	if len(expired) > 0 {
		slog.Info("expired client sessions", "count", len(expired))
	}
}

// Create registers a new client session and returns it.
func (r *Registry) Create(provider *identity.Provider, resolver *Resolver) *Client {
	c := &Client{
		SID:       uuid.New(),
		Provider:  provider,
		Resolver:  resolver,
		ExpiresAt: time.Now().Add(r.ttl),
	}
	r.mu.Lock()
	r.sessions[c.SID] = c
	r.mu.Unlock()
	return c
}

// Get returns the session for sid, sliding its expiry, or nil when unknown
// or expired.
func (r *Registry) Get(sid uuid.UUID) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	if time.Now().After(c.ExpiresAt) {
		delete(r.sessions, sid)
		go c.Resolver.Close()
		return nil
	}
	c.ExpiresAt = time.Now().Add(r.ttl)
	return c
}

// Remove drops the session for sid and closes its resolver.
func (r *Registry) Remove(sid uuid.UUID) {
	r.mu.Lock()
	c, ok := r.sessions[sid]
	if ok {
		delete(r.sessions, sid)
	}
	r.mu.Unlock()
	if ok {
		c.Resolver.Close()
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Stop terminates the sweeper. Live sessions stay readable.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
}
