package directory

import (
	"context"
	"testing"
	"time"

	"github.com/bkoseoglu/mallhub/internal/docstore"
	"github.com/bkoseoglu/mallhub/internal/dto"
	"github.com/bkoseoglu/mallhub/internal/profiles"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ownerProfile(id uuid.UUID) *profiles.Profile {
	return &profiles.Profile{
		ID:       id,
		Role:     profiles.RoleUser,
		Business: &profiles.BusinessInfo{Name: "Bookworm", Type: "retail"},
	}
}

func adminProfile() *profiles.Profile {
	return &profiles.Profile{ID: uuid.New(), Role: profiles.RoleAdmin}
}

func createShops(t *testing.T, svc *Service, ownerID uuid.UUID, names ...string) []*Shop {
	t.Helper()
	out := make([]*Shop, 0, len(names))
	for _, name := range names {
		shop, err := svc.CreateShop(context.Background(), ownerID, &dto.ShopRequest{
			Name: name, Address: "1 Mall Way", Category: "books",
		})
		require.NoError(t, err)
		out = append(out, shop)
		time.Sleep(2 * time.Millisecond) // distinct createdAt
	}
	return out
}

func TestCreateShop_Validation(t *testing.T) {
	svc := NewService(docstore.NewMemory())
	ctx := context.Background()
	ownerID := uuid.New()

	tests := []struct {
		name    string
		req     dto.ShopRequest
		wantErr error
	}{
		{"missing name", dto.ShopRequest{Address: "a", Category: "c"}, ErrNameRequired},
		{"missing address", dto.ShopRequest{Name: "n", Category: "c"}, ErrAddressRequired},
		{"missing category", dto.ShopRequest{Name: "n", Address: "a"}, ErrCategoryRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateShop(ctx, ownerID, &tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	shop, err := svc.CreateShop(ctx, ownerID, &dto.ShopRequest{Name: "Bookworm", Address: "1 Mall Way", Category: "books"})
	require.NoError(t, err)

	got, err := svc.GetShop(ctx, shop.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bookworm", got.Name)
	assert.Equal(t, ownerID, got.OwnerID)
}

func TestListOwnedShops_FallbackMatchesIndexedOrder(t *testing.T) {
	store := docstore.NewMemory()
	svc := NewService(store)
	ctx := context.Background()
	ownerID := uuid.New()
	otherID := uuid.New()

	createShops(t, svc, ownerID, "First", "Second", "Third")
	createShops(t, svc, otherID, "Elsewhere")

	// The composite index starts unprovisioned, so this read takes the
	// unordered fallback path and sorts in memory.
	fallback, err := svc.ListOwnedShops(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, fallback, 3)
	assert.Equal(t, "Third", fallback[0].Name)
	assert.Equal(t, "Second", fallback[1].Name)
	assert.Equal(t, "First", fallback[2].Name)

	// Provision the index the failed query registered, then read again via
	// the ordered path. Both paths must agree document for document.
	indexes, err := store.ListIndexes(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, indexes)
	for _, idx := range indexes {
		require.NoError(t, store.MarkReady(ctx, idx.ID))
	}

	indexed, err := svc.ListOwnedShops(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, indexed, len(fallback))
	for i := range indexed {
		assert.Equal(t, fallback[i].ID, indexed[i].ID)
	}
}

func TestListOwnedShops_RealErrorsPropagate(t *testing.T) {
	store := docstore.NewMemory()
	svc := NewService(store)
	ctx := context.Background()

	store.FailNext(assert.AnError)
	_, err := svc.ListOwnedShops(ctx, uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError, "non-index failures must not trigger the fallback")
}

func TestShopOwnership(t *testing.T) {
	svc := NewService(docstore.NewMemory())
	ctx := context.Background()
	ownerID := uuid.New()
	shop := createShops(t, svc, ownerID, "Bookworm")[0]

	name := "Renamed"

	t.Run("stranger cannot update", func(t *testing.T) {
		_, err := svc.UpdateShop(ctx, shop.ID, ownerProfile(uuid.New()), &dto.ShopUpdateRequest{Name: &name})
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("owner can update", func(t *testing.T) {
		got, err := svc.UpdateShop(ctx, shop.ID, ownerProfile(ownerID), &dto.ShopUpdateRequest{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
		assert.Equal(t, "1 Mall Way", got.Address, "unpatched fields survive")
	})

	t.Run("admin can update any shop", func(t *testing.T) {
		addr := "2 Mall Way"
		got, err := svc.UpdateShop(ctx, shop.ID, adminProfile(), &dto.ShopUpdateRequest{Address: &addr})
		require.NoError(t, err)
		assert.Equal(t, "2 Mall Way", got.Address)
	})

	t.Run("stranger cannot delete", func(t *testing.T) {
		assert.ErrorIs(t, svc.DeleteShop(ctx, shop.ID, ownerProfile(uuid.New())), ErrNotOwner)
	})
}

func TestOffers(t *testing.T) {
	svc := NewService(docstore.NewMemory())
	ctx := context.Background()
	ownerID := uuid.New()
	owner := ownerProfile(ownerID)
	shop := createShops(t, svc, ownerID, "Bookworm")[0]

	now := time.Now()

	t.Run("title required", func(t *testing.T) {
		_, err := svc.CreateOffer(ctx, owner, &dto.OfferRequest{ShopID: shop.ID.String()})
		assert.ErrorIs(t, err, ErrTitleRequired)
	})

	t.Run("validity window checked", func(t *testing.T) {
		_, err := svc.CreateOffer(ctx, owner, &dto.OfferRequest{
			ShopID: shop.ID.String(), Title: "Backwards",
			ValidFrom: now, ValidTo: now.Add(-time.Hour),
		})
		assert.ErrorIs(t, err, ErrInvalidValidity)
	})

	t.Run("cannot attach offer to someone else's shop", func(t *testing.T) {
		_, err := svc.CreateOffer(ctx, ownerProfile(uuid.New()), &dto.OfferRequest{
			ShopID: shop.ID.String(), Title: "Squatter",
			ValidFrom: now, ValidTo: now.Add(time.Hour),
		})
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	offer, err := svc.CreateOffer(ctx, owner, &dto.OfferRequest{
		ShopID: shop.ID.String(), Title: "Half price",
		DiscountPercentage: 50, IsActive: true,
		ValidFrom: now, ValidTo: now.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, ownerID, offer.OwnerID, "offer owner follows the shop owner")

	t.Run("listed under shop", func(t *testing.T) {
		offers, err := svc.ListShopOffers(ctx, shop.ID)
		require.NoError(t, err)
		require.Len(t, offers, 1)
		assert.Equal(t, offer.ID, offers[0].ID)
	})

	t.Run("deleting shop cascades to offers", func(t *testing.T) {
		require.NoError(t, svc.DeleteShop(ctx, shop.ID, owner))
		_, err := svc.GetShop(ctx, shop.ID)
		assert.ErrorIs(t, err, ErrShopNotFound)
		_, err = svc.GetOffer(ctx, offer.ID)
		assert.ErrorIs(t, err, ErrOfferNotFound)
	})
}

func TestStats(t *testing.T) {
	svc := NewService(docstore.NewMemory())
	ctx := context.Background()
	ownerID := uuid.New()
	owner := ownerProfile(ownerID)
	shops := createShops(t, svc, ownerID, "One", "Two")

	now := time.Now()
	mk := func(title string, active bool, validTo time.Time) {
		_, err := svc.CreateOffer(ctx, owner, &dto.OfferRequest{
			ShopID: shops[0].ID.String(), Title: title,
			IsActive:  active,
			ValidFrom: now.Add(-time.Hour), ValidTo: validTo,
		})
		require.NoError(t, err)
	}
	mk("live", true, now.Add(time.Hour))
	mk("expired", true, now.Add(-time.Minute))
	mk("disabled", false, now.Add(time.Hour))

	stats, err := svc.Stats(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalShops)
	assert.Equal(t, 3, stats.TotalOffers)
	// Active means both enabled and still within its validity window.
	assert.Equal(t, 1, stats.ActiveOffers)
}

func TestSearchShops(t *testing.T) {
	svc := NewService(docstore.NewMemory())
	ctx := context.Background()
	ownerID := uuid.New()

	_, err := svc.CreateShop(ctx, ownerID, &dto.ShopRequest{Name: "Bookworm", Address: "a", Category: "books", Description: "novels and comics"})
	require.NoError(t, err)
	_, err = svc.CreateShop(ctx, ownerID, &dto.ShopRequest{Name: "Brew Bar", Address: "a", Category: "cafe"})
	require.NoError(t, err)

	tests := []struct {
		term string
		want int
	}{
		{"book", 1},
		{"COMICS", 1},
		{"cafe", 1},
		{"", 2},
		{"shoes", 0},
	}
	for _, tt := range tests {
		got, err := svc.SearchShops(ctx, tt.term)
		require.NoError(t, err)
		assert.Len(t, got, tt.want, "term %q", tt.term)
	}
}

func TestCatalog(t *testing.T) {
	svc := NewService(docstore.NewMemory())
	ctx := context.Background()

	t.Run("categories require a name and list alphabetically", func(t *testing.T) {
		_, err := svc.CreateCategory(ctx, &dto.CategoryRequest{})
		assert.ErrorIs(t, err, ErrNameRequired)

		for _, name := range []string{"Fashion", "Books", "Electronics"} {
			_, err := svc.CreateCategory(ctx, &dto.CategoryRequest{Name: name})
			require.NoError(t, err)
		}
		categories, err := svc.ListCategories(ctx)
		require.NoError(t, err)
		require.Len(t, categories, 3)
		assert.Equal(t, "Books", categories[0].Name)
		assert.Equal(t, "Electronics", categories[1].Name)
		assert.Equal(t, "Fashion", categories[2].Name)
	})

	t.Run("floors list by order", func(t *testing.T) {
		for name, order := range map[string]int{"Roof": 2, "Ground": 0, "First": 1} {
			_, err := svc.CreateFloor(ctx, &dto.FloorRequest{Name: name, Order: order})
			require.NoError(t, err)
		}
		floors, err := svc.ListFloors(ctx)
		require.NoError(t, err)
		require.Len(t, floors, 3)
		assert.Equal(t, "Ground", floors[0].Name)
		assert.Equal(t, "First", floors[1].Name)
		assert.Equal(t, "Roof", floors[2].Name)
	})

	t.Run("delete missing", func(t *testing.T) {
		assert.ErrorIs(t, svc.DeleteCategory(ctx, uuid.New()), ErrCategoryNotFound)
		assert.ErrorIs(t, svc.DeleteFloor(ctx, uuid.New()), ErrFloorNotFound)
	})
}
