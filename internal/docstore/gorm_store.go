package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/bkoseoglu/mallhub/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var fieldNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// GormStore persists documents as JSONB rows in PostgreSQL.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var row models.Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read document %s/%s: %w", collection, id, err)
	}
	return decodeRow(&row)
}

func (s *GormStore) Create(ctx context.Context, collection, id string, doc Document) error {
	data, err := encodeDoc(doc)
	if err != nil {
		return err
	}
	row := models.Document{
		ID:         uuid.New(),
		Collection: collection,
		DocID:      id,
		Data:       data,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%s/%s: %w", collection, id, ErrExists)
		}
		return fmt.Errorf("failed to create document %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *GormStore) Update(ctx context.Context, collection, id string, patch Document) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Document
		err := tx.Where("collection = ? AND doc_id = ?", collection, id).First(&row).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to read document %s/%s: %w", collection, id, err)
		}

		doc := make(Document)
		if len(row.Data) > 0 {
			if err := json.Unmarshal(row.Data, &doc); err != nil {
				return fmt.Errorf("corrupt document %s/%s: %w", collection, id, err)
			}
		}
		for k, v := range patch {
			if k == "id" {
				continue
			}
			doc[k] = v
		}

		data, err := encodeDoc(doc)
		if err != nil {
			return err
		}
		return tx.Model(&row).Updates(map[string]interface{}{
			"data":       data,
			"updated_at": time.Now(),
		}).Error
	})
}

func (s *GormStore) Delete(ctx context.Context, collection, id string) error {
	result := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Delete(&models.Document{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete document %s/%s: %w", collection, id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) Query(ctx context.Context, collection string, filters []Filter, order *Order) ([]Document, error) {
	for _, f := range filters {
		if !fieldNamePattern.MatchString(f.Field) {
			return nil, fmt.Errorf("invalid filter field %q", f.Field)
		}
	}
	if order != nil && !fieldNamePattern.MatchString(order.Field) {
		return nil, fmt.Errorf("invalid order field %q", order.Field)
	}

	// Compound queries need a provisioned composite index. First use
	// registers the index so an operator can mark it ready.
	if order != nil && len(filters) > 0 {
		ready, err := s.indexReady(ctx, collection, filters[0].Field, order.Field)
		if err != nil {
			return nil, err
		}
		if !ready {
			return nil, &IndexError{Collection: collection, FilterField: filters[0].Field, OrderField: order.Field}
		}
	}

	q := s.db.WithContext(ctx).Model(&models.Document{}).Where("collection = ?", collection)
	for _, f := range filters {
		q = q.Where("data ->> ? = ?", f.Field, textValue(f.Value))
	}
	if order != nil {
		dir := "ASC"
		if order.Desc {
			dir = "DESC"
		}
		// jsonb value ordering: numbers compare numerically, strings by
		// collation, which matches the in-memory comparison.
		q = q.Order(fmt.Sprintf("data -> '%s' %s", order.Field, dir))
	}

	var rows []models.Document
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}

	out := make([]Document, 0, len(rows))
	for i := range rows {
		doc, err := decodeRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *GormStore) indexReady(ctx context.Context, collection, filterField, orderField string) (bool, error) {
	var idx models.DocumentIndex
	err := s.db.WithContext(ctx).
		Where("collection = ? AND filter_field = ? AND order_field = ?", collection, filterField, orderField).
		First(&idx).Error
	if err == nil {
		return idx.Ready, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("failed to check index: %w", err)
	}

	idx = models.DocumentIndex{
		ID:          uuid.New(),
		Collection:  collection,
		FilterField: filterField,
		OrderField:  orderField,
	}
	if err := s.db.WithContext(ctx).Create(&idx).Error; err != nil {
		return false, fmt.Errorf("failed to register index: %w", err)
	}
	return false, nil
}

func (s *GormStore) ListIndexes(ctx context.Context) ([]IndexStatus, error) {
	var rows []models.DocumentIndex
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}
	out := make([]IndexStatus, 0, len(rows))
	for _, r := range rows {
		out = append(out, IndexStatus{
			ID:          r.ID,
			Collection:  r.Collection,
			FilterField: r.FilterField,
			OrderField:  r.OrderField,
			Ready:       r.Ready,
		})
	}
	return out, nil
}

func (s *GormStore) MarkReady(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.DocumentIndex{}).
		Where("id = ?", id).
		Update("ready", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark index ready: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func encodeDoc(doc Document) (datatypes.JSON, error) {
	clean := make(Document, len(doc))
	for k, v := range doc {
		if k == "id" {
			continue
		}
		clean[k] = v
	}
	b, err := json.Marshal(clean)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return datatypes.JSON(b), nil
}

func decodeRow(row *models.Document) (Document, error) {
	doc := make(Document)
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &doc); err != nil {
			return nil, fmt.Errorf("corrupt document %s/%s: %w", row.Collection, row.DocID, err)
		}
	}
	doc["id"] = row.DocID
	return doc, nil
}

// textValue renders a filter value the way JSONB ->> renders the stored field.
func textValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case uuid.UUID:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
