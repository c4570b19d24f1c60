package profiles

import (
	"context"
	"errors"
	"testing"

	"github.com/bkoseoglu/mallhub/internal/docstore"
	"github.com/bkoseoglu/mallhub/internal/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentity(email string) *identity.Identity {
	return &identity.Identity{ID: uuid.New(), Email: email, DisplayName: "Someone"}
}

func TestService_Resolve_SynthesizesMissingProfile(t *testing.T) {
	store := docstore.NewMemory()
	svc := NewService(store, "")
	ctx := context.Background()
	ident := newIdentity("fresh@example.com")

	p, err := svc.Resolve(ctx, ident)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, ident.ID, p.ID)
	assert.Equal(t, "fresh@example.com", p.Email)
	assert.Equal(t, RoleUser, p.Role)
	assert.Nil(t, p.Business)

	// The default was persisted: a direct read now succeeds.
	stored, err := svc.Get(ctx, ident.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Email, stored.Email)

	// Resolving again returns the stored record, not a second synthesis.
	again, err := svc.Resolve(ctx, ident)
	require.NoError(t, err)
	assert.Equal(t, stored.CreatedAt.Unix(), again.CreatedAt.Unix())
}

func TestService_Resolve_BootstrapAdmin(t *testing.T) {
	store := docstore.NewMemory()
	svc := NewService(store, "boss@example.com, second@example.com")
	ctx := context.Background()

	p, err := svc.Resolve(ctx, newIdentity("Boss@Example.com"))
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, p.Role)

	p, err = svc.Resolve(ctx, newIdentity("regular@example.com"))
	require.NoError(t, err)
	assert.Equal(t, RoleUser, p.Role)
}

func TestService_Resolve_ReadFailureDoesNotPersist(t *testing.T) {
	store := docstore.NewMemory()
	svc := NewService(store, "")
	ctx := context.Background()
	ident := newIdentity("flaky@example.com")

	store.FailNext(errors.New("connection reset"))
	p, err := svc.Resolve(ctx, ident)
	require.NoError(t, err, "a transient read error must not block sign-in")
	require.NotNil(t, p)
	assert.Equal(t, RoleUser, p.Role)

	// Nothing was written: the synthesized fallback stayed in memory only,
	// so a real stored record can never be clobbered by an outage.
	_, err = svc.Get(ctx, ident.ID)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestService_Resolve_NeverNilProfile(t *testing.T) {
	store := docstore.NewMemory()
	svc := NewService(store, "")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, err := svc.Resolve(ctx, newIdentity("any@example.com"))
		require.NoError(t, err)
		require.NotNil(t, p)
	}
}

func TestService_UpdateAndBusinessInfo(t *testing.T) {
	store := docstore.NewMemory()
	svc := NewService(store, "")
	ctx := context.Background()
	ident := newIdentity("shop@example.com")

	_, err := svc.Resolve(ctx, ident)
	require.NoError(t, err)

	name := "Shop Person"
	p, err := svc.Update(ctx, ident.ID, UpdateParams{
		DisplayName: &name,
		Business:    &BusinessInfo{Name: "Bookworm", Type: "retail"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Shop Person", p.DisplayName)
	require.NotNil(t, p.Business)
	assert.Equal(t, "Bookworm", p.Business.Name)
	assert.True(t, p.IsBusinessOwner())
	assert.False(t, p.IsAdmin())

	t.Run("unknown profile", func(t *testing.T) {
		_, err := svc.Update(ctx, uuid.New(), UpdateParams{DisplayName: &name})
		assert.ErrorIs(t, err, ErrProfileNotFound)
	})
}

func TestService_SetRole(t *testing.T) {
	store := docstore.NewMemory()
	svc := NewService(store, "")
	ctx := context.Background()
	ident := newIdentity("promote@example.com")

	_, err := svc.Resolve(ctx, ident)
	require.NoError(t, err)

	p, err := svc.SetRole(ctx, ident.ID, RoleAdmin)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())
	assert.False(t, p.IsBusinessOwner(), "admins are never business owners")

	_, err = svc.SetRole(ctx, ident.ID, Role("superuser"))
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.SetRole(ctx, uuid.New(), RoleUser)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestService_List(t *testing.T) {
	store := docstore.NewMemory()
	svc := NewService(store, "")
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := svc.Resolve(ctx, newIdentity(email))
		require.NoError(t, err)
	}

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	// Newest first.
	for i := 1; i < len(users); i++ {
		assert.False(t, users[i-1].CreatedAt.Before(users[i].CreatedAt))
	}
}
