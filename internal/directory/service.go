package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/bkoseoglu/mallhub/internal/docstore"
	"github.com/bkoseoglu/mallhub/internal/dto"
	"github.com/bkoseoglu/mallhub/internal/profiles"
	"github.com/google/uuid"
)

var (
	ErrShopNotFound     = errors.New("shop not found")
	ErrOfferNotFound    = errors.New("offer not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrFloorNotFound    = errors.New("floor not found")
	ErrNotOwner         = errors.New("not the owner of this resource")
	ErrNameRequired     = errors.New("name is required")
	ErrAddressRequired  = errors.New("address is required")
	ErrCategoryRequired = errors.New("category is required")
	ErrTitleRequired    = errors.New("title is required")
	ErrInvalidValidity  = errors.New("validTo must not be before validFrom")
)

type Service struct {
	store docstore.Store
}

func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

// listOwned reads all documents where field == value ordered by creation time
// descending. The ordered compound query is attempted first; if the store
// reports its composite index as not ready, the read falls back to the
// unordered equality query and sorts in memory. Both paths return the same
// ordering for a consistent snapshot. Any other store error propagates.
func (s *Service) listOwned(ctx context.Context, collection, field, value string) ([]docstore.Document, error) {
	filters := []docstore.Filter{{Field: field, Value: value}}
	order := &docstore.Order{Field: "createdAt", Desc: true}

	docs, err := s.store.Query(ctx, collection, filters, order)
	if err == nil {
		return docs, nil
	}
	if !docstore.IsIndexError(err) {
		return nil, err
	}

	slog.Warn("ordered query unavailable, falling back to unordered read",
		"collection", collection, "field", field, "error", err)

	docs, err = s.store.Query(ctx, collection, filters, nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docstore.ParseTime(docs[i]["createdAt"]).After(docstore.ParseTime(docs[j]["createdAt"]))
	})
	return docs, nil
}

// --- Shops ---

func (s *Service) CreateShop(ctx context.Context, ownerID uuid.UUID, req *dto.ShopRequest) (*Shop, error) {
	if err := validateShopRequest(req); err != nil {
		return nil, err
	}
	now := time.Now()
	shop := &Shop{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        req.Name,
		Address:     req.Address,
		Category:    req.Category,
		Floor:       req.Floor,
		Phone:       req.Phone,
		Website:     req.Website,
		Description: req.Description,
		Image:       req.Image,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, CollectionShops, shop.ID.String(), shopToDoc(shop)); err != nil {
		return nil, fmt.Errorf("failed to create shop: %w", err)
	}
	return shop, nil
}

func (s *Service) GetShop(ctx context.Context, id uuid.UUID) (*Shop, error) {
	doc, err := s.store.Get(ctx, CollectionShops, id.String())
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, fmt.Errorf("failed to fetch shop: %w", err)
	}
	return shopFromDoc(doc)
}

// ListOwnedShops returns the owner's shops, newest first.
func (s *Service) ListOwnedShops(ctx context.Context, ownerID uuid.UUID) ([]*Shop, error) {
	docs, err := s.listOwned(ctx, CollectionShops, "ownerId", ownerID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}
	return decodeShops(docs)
}

// ListShops returns the public directory, newest first, optionally filtered
// by category.
func (s *Service) ListShops(ctx context.Context, category string) ([]*Shop, error) {
	var docs []docstore.Document
	var err error
	if category != "" {
		docs, err = s.listOwned(ctx, CollectionShops, "category", category)
	} else {
		docs, err = s.store.Query(ctx, CollectionShops, nil, &docstore.Order{Field: "createdAt", Desc: true})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}
	return decodeShops(docs)
}

// SearchShops matches the term against name, description, and category in
// memory; the store has no full-text search.
func (s *Service) SearchShops(ctx context.Context, term string) ([]*Shop, error) {
	shops, err := s.ListShops(ctx, "")
	if err != nil {
		return nil, err
	}
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return shops, nil
	}
	out := make([]*Shop, 0)
	for _, shop := range shops {
		if strings.Contains(strings.ToLower(shop.Name), term) ||
			strings.Contains(strings.ToLower(shop.Description), term) ||
			strings.Contains(strings.ToLower(shop.Category), term) {
			out = append(out, shop)
		}
	}
	return out, nil
}

func (s *Service) UpdateShop(ctx context.Context, id uuid.UUID, actor *profiles.Profile, req *dto.ShopUpdateRequest) (*Shop, error) {
	shop, err := s.GetShop(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(shop.OwnerID, actor); err != nil {
		return nil, err
	}

	patch := docstore.Document{"updatedAt": docstore.Now()}
	applyString(patch, "name", req.Name)
	applyString(patch, "address", req.Address)
	applyString(patch, "category", req.Category)
	applyString(patch, "floor", req.Floor)
	applyString(patch, "phone", req.Phone)
	applyString(patch, "website", req.Website)
	applyString(patch, "description", req.Description)
	applyString(patch, "image", req.Image)

	if err := s.store.Update(ctx, CollectionShops, id.String(), patch); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrShopNotFound
		}
		return nil, fmt.Errorf("failed to update shop: %w", err)
	}
	return s.GetShop(ctx, id)
}

func (s *Service) DeleteShop(ctx context.Context, id uuid.UUID, actor *profiles.Profile) error {
	shop, err := s.GetShop(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(shop.OwnerID, actor); err != nil {
		return err
	}

	// Offers belong to their shop; remove them with it.
	offers, err := s.listOwned(ctx, CollectionOffers, "shopId", id.String())
	if err != nil {
		return fmt.Errorf("failed to list shop offers: %w", err)
	}
	for _, doc := range offers {
		docID, _ := doc["id"].(string)
		if err := s.store.Delete(ctx, CollectionOffers, docID); err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("failed to delete shop offer: %w", err)
		}
	}

	if err := s.store.Delete(ctx, CollectionShops, id.String()); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrShopNotFound
		}
		return fmt.Errorf("failed to delete shop: %w", err)
	}
	return nil
}

// --- Offers ---

func (s *Service) CreateOffer(ctx context.Context, actor *profiles.Profile, req *dto.OfferRequest) (*Offer, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrTitleRequired
	}
	shopID, err := uuid.Parse(req.ShopID)
	if err != nil {
		return nil, ErrShopNotFound
	}
	shop, err := s.GetShop(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(shop.OwnerID, actor); err != nil {
		return nil, err
	}
	if req.ValidTo.Before(req.ValidFrom) {
		return nil, ErrInvalidValidity
	}

	now := time.Now()
	offer := &Offer{
		ID:                 uuid.New(),
		ShopID:             shopID,
		OwnerID:            shop.OwnerID,
		Title:              req.Title,
		Description:        req.Description,
		DiscountPercentage: req.DiscountPercentage,
		OriginalPrice:      req.OriginalPrice,
		DiscountedPrice:    req.DiscountedPrice,
		ValidFrom:          req.ValidFrom,
		ValidTo:            req.ValidTo,
		Category:           req.Category,
		Image:              req.Image,
		IsActive:           req.IsActive,
		Terms:              req.Terms,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.store.Create(ctx, CollectionOffers, offer.ID.String(), offerToDoc(offer)); err != nil {
		return nil, fmt.Errorf("failed to create offer: %w", err)
	}
	return offer, nil
}

func (s *Service) GetOffer(ctx context.Context, id uuid.UUID) (*Offer, error) {
	doc, err := s.store.Get(ctx, CollectionOffers, id.String())
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to fetch offer: %w", err)
	}
	return offerFromDoc(doc)
}

// ListOwnedOffers returns the owner's offers across all shops, newest first.
func (s *Service) ListOwnedOffers(ctx context.Context, ownerID uuid.UUID) ([]*Offer, error) {
	docs, err := s.listOwned(ctx, CollectionOffers, "ownerId", ownerID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	return decodeOffers(docs)
}

// ListShopOffers returns a shop's offers, newest first.
func (s *Service) ListShopOffers(ctx context.Context, shopID uuid.UUID) ([]*Offer, error) {
	docs, err := s.listOwned(ctx, CollectionOffers, "shopId", shopID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	return decodeOffers(docs)
}

func (s *Service) UpdateOffer(ctx context.Context, id uuid.UUID, actor *profiles.Profile, req *dto.OfferUpdateRequest) (*Offer, error) {
	offer, err := s.GetOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(offer.OwnerID, actor); err != nil {
		return nil, err
	}

	patch := docstore.Document{"updatedAt": docstore.Now()}
	applyString(patch, "title", req.Title)
	applyString(patch, "description", req.Description)
	applyString(patch, "category", req.Category)
	applyString(patch, "image", req.Image)
	applyString(patch, "terms", req.Terms)
	if req.DiscountPercentage != nil {
		patch["discountPercentage"] = *req.DiscountPercentage
	}
	if req.OriginalPrice != nil {
		patch["originalPrice"] = *req.OriginalPrice
	}
	if req.DiscountedPrice != nil {
		patch["discountedPrice"] = *req.DiscountedPrice
	}
	if req.ValidFrom != nil {
		patch["validFrom"] = docstore.FormatTime(*req.ValidFrom)
	}
	if req.ValidTo != nil {
		patch["validTo"] = docstore.FormatTime(*req.ValidTo)
	}
	if req.IsActive != nil {
		patch["isActive"] = *req.IsActive
	}

	if err := s.store.Update(ctx, CollectionOffers, id.String(), patch); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to update offer: %w", err)
	}
	return s.GetOffer(ctx, id)
}

func (s *Service) DeleteOffer(ctx context.Context, id uuid.UUID, actor *profiles.Profile) error {
	offer, err := s.GetOffer(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(offer.OwnerID, actor); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, CollectionOffers, id.String()); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrOfferNotFound
		}
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	return nil
}

// --- Stats ---

// Stats derives owner dashboard aggregates from the current offer set.
// Active-offer validity is time-dependent, so the count is recomputed on
// every call and never cached.
func (s *Service) Stats(ctx context.Context, ownerID uuid.UUID) (*Stats, error) {
	shops, err := s.ListOwnedShops(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	offers, err := s.ListOwnedOffers(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	active := 0
	for _, o := range offers {
		if o.Active(now) {
			active++
		}
	}
	return &Stats{
		TotalShops:   len(shops),
		TotalOffers:  len(offers),
		ActiveOffers: active,
	}, nil
}

func (s *Service) authorize(ownerID uuid.UUID, actor *profiles.Profile) error {
	if actor == nil {
		return ErrNotOwner
	}
	if actor.IsAdmin() || actor.ID == ownerID {
		return nil
	}
	return ErrNotOwner
}

func validateShopRequest(req *dto.ShopRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return ErrNameRequired
	}
	if strings.TrimSpace(req.Address) == "" {
		return ErrAddressRequired
	}
	if strings.TrimSpace(req.Category) == "" {
		return ErrCategoryRequired
	}
	return nil
}

func applyString(patch docstore.Document, key string, val *string) {
	if val != nil {
		patch[key] = *val
	}
}

func decodeShops(docs []docstore.Document) ([]*Shop, error) {
	out := make([]*Shop, 0, len(docs))
	for _, doc := range docs {
		shop, err := shopFromDoc(doc)
		if err != nil {
			slog.Warn("skipping malformed shop document", "error", err)
			continue
		}
		out = append(out, shop)
	}
	return out, nil
}

func decodeOffers(docs []docstore.Document) ([]*Offer, error) {
	out := make([]*Offer, 0, len(docs))
	for _, doc := range docs {
		offer, err := offerFromDoc(doc)
		if err != nil {
			slog.Warn("skipping malformed offer document", "error", err)
			continue
		}
		out = append(out, offer)
	}
	return out, nil
}
