package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bkoseoglu/mallhub/internal/docstore"
	"github.com/bkoseoglu/mallhub/internal/identity"
	"github.com/bkoseoglu/mallhub/internal/profiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, store docstore.Store) (*Resolver, identity.AccountStore) {
	t.Helper()
	accounts := identity.NewMemoryAccounts()
	provider := identity.NewProvider(accounts)
	r := NewResolver(provider, profiles.NewService(store, ""))
	r.Initialize()
	t.Cleanup(r.Close)
	return r, accounts
}

func seedAccount(t *testing.T, accounts identity.AccountStore, email, password string) {
	t.Helper()
	seeder := identity.NewProvider(accounts)
	_, err := seeder.SignUp(context.Background(), email, password)
	require.NoError(t, err)
}

func TestResolver_InitialStateIsLoading(t *testing.T) {
	r, _ := newTestResolver(t, docstore.NewMemory())

	// Before the provider's initial notification settles, consumers see a
	// loading snapshot, never a half-built signed-in one.
	s := r.Snapshot()
	assert.False(t, s.SignedIn())

	require.Eventually(t, func() bool {
		s := r.Snapshot()
		return !s.Loading && s.Identity == nil
	}, time.Second, 5*time.Millisecond, "signed-out state should settle")
}

func TestResolver_LoginPublishesProfileWithIdentity(t *testing.T) {
	r, accounts := newTestResolver(t, docstore.NewMemory())
	ctx := context.Background()
	seedAccount(t, accounts, "user@example.com", "password123")

	require.NoError(t, r.Login(ctx, "user@example.com", "password123"))

	state, err := r.WaitReady(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, state.Identity)
	require.NotNil(t, state.Profile, "a settled signed-in state always carries a profile")
	assert.Equal(t, state.Identity.ID, state.Profile.ID)
	assert.Equal(t, profiles.RoleUser, state.Profile.Role)
	assert.False(t, state.Loading)
}

func TestResolver_LoginFailureLeavesStateUntouched(t *testing.T) {
	r, accounts := newTestResolver(t, docstore.NewMemory())
	ctx := context.Background()
	seedAccount(t, accounts, "user@example.com", "password123")

	err := r.Login(ctx, "user@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, identity.CodeInvalidCredential, identity.AuthCode(err))

	require.Eventually(t, func() bool {
		s := r.Snapshot()
		return !s.Loading && s.Identity == nil
	}, time.Second, 5*time.Millisecond)
}

func TestResolver_RegisterForcesUserRole(t *testing.T) {
	store := docstore.NewMemory()
	r, _ := newTestResolver(t, store)
	ctx := context.Background()

	name := "Hopeful Admin"
	profile, err := r.Register(ctx, "newbie@example.com", "password123", profiles.UpdateParams{
		DisplayName: &name,
		Business:    &profiles.BusinessInfo{Name: "Bookworm", Type: "retail"},
	})
	require.NoError(t, err)
	assert.Equal(t, profiles.RoleUser, profile.Role)
	assert.Equal(t, "Hopeful Admin", profile.DisplayName)
	require.NotNil(t, profile.Business)

	// The published state settles on the seeded profile with the user role,
	// whichever order the eager publish and the provider event land in.
	require.Eventually(t, func() bool {
		s := r.Snapshot()
		return s.SignedIn() && s.Profile.ID == profile.ID && s.Profile.Role == profiles.RoleUser
	}, time.Second, 5*time.Millisecond)
}

func TestResolver_LogoutClearsEagerly(t *testing.T) {
	r, accounts := newTestResolver(t, docstore.NewMemory())
	ctx := context.Background()
	seedAccount(t, accounts, "user@example.com", "password123")

	require.NoError(t, r.Login(ctx, "user@example.com", "password123"))
	_, err := r.WaitReady(ctx, time.Second)
	require.NoError(t, err)

	require.NoError(t, r.Logout(ctx))

	s := r.Snapshot()
	assert.Nil(t, s.Identity)
	assert.Nil(t, s.Profile)
	assert.False(t, s.Loading)
}

// gateStore blocks profile reads until released, simulating a slow backend.
type gateStore struct {
	docstore.Store
	gate chan struct{}
}

func (g *gateStore) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	<-g.gate
	return g.Store.Get(ctx, collection, id)
}

func TestResolver_StaleResolutionIsDiscarded(t *testing.T) {
	gate := &gateStore{Store: docstore.NewMemory(), gate: make(chan struct{})}
	r, accounts := newTestResolver(t, gate)
	ctx := context.Background()
	seedAccount(t, accounts, "user@example.com", "password123")

	require.NoError(t, r.Login(ctx, "user@example.com", "password123"))

	// The loop is now blocked fetching the profile; the snapshot shows the
	// identity in its loading phase.
	require.Eventually(t, func() bool {
		s := r.Snapshot()
		return s.Identity != nil && s.Loading
	}, time.Second, 5*time.Millisecond)

	// Sign out while the fetch is in flight, then release it.
	require.NoError(t, r.Logout(ctx))
	close(gate.gate)

	// The late result must never resurrect the signed-in state.
	assert.Never(t, func() bool {
		return r.Snapshot().Identity != nil
	}, 200*time.Millisecond, 10*time.Millisecond)
}

func TestResolver_LogoutRacingResolutionNeverResurrects(t *testing.T) {
	gate := &gateStore{Store: docstore.NewMemory(), gate: make(chan struct{})}
	r, accounts := newTestResolver(t, gate)
	ctx := context.Background()
	seedAccount(t, accounts, "user@example.com", "password123")

	states, cancel := r.Subscribe()
	defer cancel()

	recv := func() State {
		t.Helper()
		select {
		case s := <-states:
			return s
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for a state snapshot")
			return State{}
		}
	}

	// Each round signs in, then releases the blocked profile read and signs
	// out at the same moment. Whichever wins, once the empty logout snapshot
	// is published no later snapshot may carry an identity again.
	for i := 0; i < 100; i++ {
		require.NoError(t, r.Login(ctx, "user@example.com", "password123"))

		s := recv()
		require.NotNil(t, s.Identity)
		require.True(t, s.Loading)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Logout(ctx))
		}()
		go func() {
			defer wg.Done()
			gate.gate <- struct{}{}
		}()
		wg.Wait()

		// Drain this round: the logout publishes one empty snapshot and the
		// provider's sign-out event a second. A completed resolution may
		// legally land before the first empty, never after it.
		empties := 0
		for empties < 2 {
			s := recv()
			if s.Identity == nil {
				empties++
				continue
			}
			require.Zero(t, empties, "round %d: signed-in snapshot published after logout", i)
		}
	}
}

func TestResolver_Subscribe(t *testing.T) {
	r, accounts := newTestResolver(t, docstore.NewMemory())
	ctx := context.Background()
	seedAccount(t, accounts, "user@example.com", "password123")

	ch, cancel := r.Subscribe()
	defer cancel()

	require.NoError(t, r.Login(ctx, "user@example.com", "password123"))

	deadline := time.After(time.Second)
	for {
		select {
		case s := <-ch:
			if s.SignedIn() {
				require.NotNil(t, s.Profile)
				return
			}
		case <-deadline:
			t.Fatal("never observed a signed-in snapshot")
		}
	}
}

func TestResolver_WaitReadyTimeout(t *testing.T) {
	r, _ := newTestResolver(t, docstore.NewMemory())

	_, err := r.WaitReady(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestRegistry_Lifecycle(t *testing.T) {
	registry := NewRegistry(time.Hour)
	defer registry.Stop()

	accounts := identity.NewMemoryAccounts()
	provider := identity.NewProvider(accounts)
	resolver := NewResolver(provider, profiles.NewService(docstore.NewMemory(), ""))
	resolver.Initialize()

	client := registry.Create(provider, resolver)
	require.NotNil(t, client)
	assert.Equal(t, 1, registry.Len())

	got := registry.Get(client.SID)
	require.NotNil(t, got)
	assert.Same(t, resolver, got.Resolver)

	registry.Remove(client.SID)
	assert.Nil(t, registry.Get(client.SID))
	assert.Equal(t, 0, registry.Len())
}

func TestRegistry_Expiry(t *testing.T) {
	registry := NewRegistry(10 * time.Millisecond)
	defer registry.Stop()

	accounts := identity.NewMemoryAccounts()
	provider := identity.NewProvider(accounts)
	resolver := NewResolver(provider, profiles.NewService(docstore.NewMemory(), ""))
	resolver.Initialize()

	client := registry.Create(provider, resolver)
	time.Sleep(30 * time.Millisecond)

	// Lazy expiry on read: the TTL has lapsed with no access in between.
	assert.Nil(t, registry.Get(client.SID))
}
