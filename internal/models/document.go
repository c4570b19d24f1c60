package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Document is one record in a document-store collection. The payload is
// schemaless JSONB; collection plus doc_id is the natural key.
type Document struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Collection string         `gorm:"size:100;not null;uniqueIndex:idx_documents_col_doc" json:"collection"`
	DocID      string         `gorm:"size:100;not null;uniqueIndex:idx_documents_col_doc" json:"doc_id"`
	Data       datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"data"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// DocumentIndex tracks composite (filter + order) indexes for a collection.
// A compound query is only served once its index row is marked ready,
// mirroring managed stores that build indexes asynchronously after first use.
type DocumentIndex struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Collection  string    `gorm:"size:100;not null;uniqueIndex:idx_doc_indexes_key" json:"collection"`
	FilterField string    `gorm:"size:100;not null;uniqueIndex:idx_doc_indexes_key" json:"filter_field"`
	OrderField  string    `gorm:"size:100;not null;uniqueIndex:idx_doc_indexes_key" json:"order_field"`
	Ready       bool      `gorm:"default:false" json:"ready"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
