package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bkoseoglu/mallhub/internal/identity"
	"github.com/bkoseoglu/mallhub/internal/profiles"
)

// ErrNotReady is returned by WaitReady when the resolver does not settle in
// time.
var ErrNotReady = errors.New("session state did not settle")

// Resolver owns the identity → profile mapping for one client session. It
// consumes the provider's change events strictly in order on a single
// goroutine and publishes immutable State snapshots.
type Resolver struct {
	provider *identity.Provider
	profiles *profiles.Service

	state atomic.Pointer[State]

	// pubMu makes a generation bump and its snapshot publication one atomic
	// step; gen tags each transition so a profile resolution that is stale
	// by completion is discarded rather than overwriting a newer state.
	pubMu sync.Mutex
	gen   uint64

	events chan *identity.Identity

	initOnce    sync.Once
	closeOnce   sync.Once
	unsubscribe func()
	done        chan struct{}
	stopped     chan struct{}

	subsMu  sync.Mutex
	subs    map[int]chan State
	nextSub int
}

func NewResolver(provider *identity.Provider, profileSvc *profiles.Service) *Resolver {
	r := &Resolver{
		provider: provider,
		profiles: profileSvc,
		events:   make(chan *identity.Identity, 16),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		subs:     make(map[int]chan State),
	}
	initial := State{Loading: true}
	r.state.Store(&initial)
	return r
}

// Initialize subscribes to the provider change stream and starts the event
// loop. Safe to call more than once; only the first call has an effect.
func (r *Resolver) Initialize() {
	r.initOnce.Do(func() {
		r.unsubscribe = r.provider.OnChange(func(ident *identity.Identity) {
			select {
			case r.events <- ident:
			case <-r.done:
			}
		})
		go r.loop()
	})
}

// Close cancels the provider subscription and stops the loop. Already
// published state remains readable for existing consumers.
func (r *Resolver) Close() {
	r.closeOnce.Do(func() {
		if r.unsubscribe != nil {
			r.unsubscribe()
		}
		close(r.done)
	})
}

func (r *Resolver) loop() {
	defer close(r.stopped)
	for {
		select {
		case ident := <-r.events:
			r.handle(ident)
		case <-r.done:
			return
		}
	}
}

func (r *Resolver) handle(ident *identity.Identity) {
	if ident == nil {
		r.advance(State{})
		return
	}

	gen := r.advance(State{Identity: ident, Loading: true})

	profile, err := r.profiles.Resolve(context.Background(), ident)
	if err != nil {
		// Resolve absorbs fetch failures; an error here means even the
		// in-memory fallback could not be built, which cannot happen with
		// a well-formed identity. Guard the invariant anyway.
		slog.Error("profile resolution failed", "user_id", ident.ID, "error", err)
		profile = &profiles.Profile{ID: ident.ID, Email: ident.Email, DisplayName: ident.DisplayName, Role: profiles.RoleUser}
	}

	if !r.publishCurrent(gen, State{Identity: ident, Profile: profile, Loading: false}) {
		slog.Debug("discarding stale profile resolution", "user_id", ident.ID)
	}
}

// advance bumps the generation and publishes s as one step, returning the new
// generation.
func (r *Resolver) advance(s State) uint64 {
	r.pubMu.Lock()
	defer r.pubMu.Unlock()
	r.gen++
	r.publishLocked(s)
	return r.gen
}

// publishCurrent publishes s only if gen still names the latest transition.
func (r *Resolver) publishCurrent(gen uint64, s State) bool {
	r.pubMu.Lock()
	defer r.pubMu.Unlock()
	if r.gen != gen {
		return false
	}
	r.publishLocked(s)
	return true
}

func (r *Resolver) publishLocked(s State) {
	snapshot := s
	r.state.Store(&snapshot)

	r.subsMu.Lock()
	for _, ch := range r.subs {
		select {
		case ch <- snapshot:
		default:
			// Slow consumers miss intermediate snapshots, never the
			// ability to read the current one via Snapshot.
		}
	}
	r.subsMu.Unlock()
}

// Snapshot returns the current published state.
func (r *Resolver) Snapshot() State {
	return *r.state.Load()
}

// Subscribe returns a channel of state snapshots and a cancel function.
func (r *Resolver) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 16)
	r.subsMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	r.subsMu.Unlock()

	return ch, func() {
		r.subsMu.Lock()
		delete(r.subs, id)
		r.subsMu.Unlock()
	}
}

// WaitReady blocks until the published state has settled (Loading false) with
// a signed-in identity, or the context/timeout expires.
func (r *Resolver) WaitReady(ctx context.Context, timeout time.Duration) (State, error) {
	ch, cancel := r.Subscribe()
	defer cancel()

	if s := r.Snapshot(); s.SignedIn() {
		return s, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case s := <-ch:
			if s.SignedIn() {
				return s, nil
			}
		case <-timer.C:
			return r.Snapshot(), ErrNotReady
		case <-ctx.Done():
			return r.Snapshot(), ctx.Err()
		}
	}
}

// Login delegates to the provider; the resulting change event drives state.
// On failure the AuthError propagates and published state is untouched.
func (r *Resolver) Login(ctx context.Context, email, password string) error {
	_, err := r.provider.SignIn(ctx, email, password)
	return err
}

// Register creates the account, then explicitly builds and persists a profile
// from seed and publishes it eagerly, without waiting for the provider's own
// change notification. The role is always forced to user: registration must
// never self-grant elevation.
func (r *Resolver) Register(ctx context.Context, email, password string, seed profiles.UpdateParams) (*profiles.Profile, error) {
	ident, err := r.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	profile := &profiles.Profile{
		ID:        ident.ID,
		Email:     ident.Email,
		Role:      profiles.RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if seed.DisplayName != nil {
		profile.DisplayName = *seed.DisplayName
	}
	if seed.Business != nil {
		profile.Business = &profiles.BusinessInfo{Name: seed.Business.Name, Type: seed.Business.Type}
	}

	if err := r.profiles.Create(ctx, profile); err != nil {
		slog.Error("failed to persist profile at registration", "user_id", ident.ID, "error", err)
		return nil, err
	}

	r.advance(State{Identity: ident, Profile: profile, Loading: false})
	return profile, nil
}

// Logout eagerly clears the published state, then asks the provider to sign
// out. A provider failure propagates but never restores the cleared state;
// leaving the signed-in view is always honored locally.
func (r *Resolver) Logout(ctx context.Context) error {
	r.advance(State{})
	return r.provider.SignOut(ctx)
}
