package repository

import (
	"context"

	"docgen/internal/model"
)

// ListFilter narrows a listing. Zero values match everything.
type ListFilter struct {
	DocumentType model.DocumentType
	TemplateType model.TemplateType
	GeneratedBy  string
}

// DocumentRepository defines data access for document records using SQL queries only.
// Implementations hold no business logic. Records are never updated.
type DocumentRepository interface {
	// Create inserts a new record. The caller assigns ID and CreatedAt.
	// Returns the stored record as read back from the database.
	Create(ctx context.Context, rec *model.DocumentRecord) (*model.DocumentRecord, error)

	// FindByID returns a record by its ID, or sql.ErrNoRows.
	FindByID(ctx context.Context, id string) (*model.DocumentRecord, error)

	// List returns matching records, newest first, and the total count for the filter.
	List(ctx context.Context, filter ListFilter, pq PageQuery) (*PageResult[model.DocumentRecord], error)

	// Delete removes a record by ID. It returns sql.ErrNoRows when nothing was deleted.
	Delete(ctx context.Context, id string) error
}
