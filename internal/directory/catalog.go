package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bkoseoglu/mallhub/internal/docstore"
	"github.com/bkoseoglu/mallhub/internal/dto"
	"github.com/google/uuid"
)

// Categories and floors are mall-wide reference data curated by
// administrators; reads are public.

func (s *Service) CreateCategory(ctx context.Context, req *dto.CategoryRequest) (*Category, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	now := time.Now()
	category := &Category{
		ID:          uuid.New(),
		Name:        req.Name,
		Icon:        req.Icon,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, CollectionCategories, category.ID.String(), categoryToDoc(category)); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

// ListCategories returns all categories sorted by name.
func (s *Service) ListCategories(ctx context.Context) ([]*Category, error) {
	docs, err := s.store.Query(ctx, CollectionCategories, nil, &docstore.Order{Field: "name"})
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	out := make([]*Category, 0, len(docs))
	for _, doc := range docs {
		c, err := categoryFromDoc(doc)
		if err != nil {
			slog.Warn("skipping malformed category document", "error", err)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id uuid.UUID, req *dto.CategoryRequest) (*Category, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	patch := docstore.Document{
		"name":        req.Name,
		"icon":        req.Icon,
		"description": req.Description,
		"updatedAt":   docstore.Now(),
	}
	if err := s.store.Update(ctx, CollectionCategories, id.String(), patch); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	doc, err := s.store.Get(ctx, CollectionCategories, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch category: %w", err)
	}
	return categoryFromDoc(doc)
}

func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, CollectionCategories, id.String()); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

func (s *Service) CreateFloor(ctx context.Context, req *dto.FloorRequest) (*Floor, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	now := time.Now()
	floor := &Floor{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		Order:       req.Order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, CollectionFloors, floor.ID.String(), floorToDoc(floor)); err != nil {
		return nil, fmt.Errorf("failed to create floor: %w", err)
	}
	return floor, nil
}

// ListFloors returns all floors sorted by display order.
func (s *Service) ListFloors(ctx context.Context) ([]*Floor, error) {
	docs, err := s.store.Query(ctx, CollectionFloors, nil, &docstore.Order{Field: "order"})
	if err != nil {
		return nil, fmt.Errorf("failed to list floors: %w", err)
	}
	out := make([]*Floor, 0, len(docs))
	for _, doc := range docs {
		f, err := floorFromDoc(doc)
		if err != nil {
			slog.Warn("skipping malformed floor document", "error", err)
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (s *Service) UpdateFloor(ctx context.Context, id uuid.UUID, req *dto.FloorRequest) (*Floor, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	patch := docstore.Document{
		"name":        req.Name,
		"description": req.Description,
		"order":       req.Order,
		"updatedAt":   docstore.Now(),
	}
	if err := s.store.Update(ctx, CollectionFloors, id.String(), patch); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrFloorNotFound
		}
		return nil, fmt.Errorf("failed to update floor: %w", err)
	}
	doc, err := s.store.Get(ctx, CollectionFloors, id.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch floor: %w", err)
	}
	return floorFromDoc(doc)
}

func (s *Service) DeleteFloor(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, CollectionFloors, id.String()); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrFloorNotFound
		}
		return fmt.Errorf("failed to delete floor: %w", err)
	}
	return nil
}
