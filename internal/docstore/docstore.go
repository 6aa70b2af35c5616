// Package docstore is the gateway to the document database: collections of
// records with generated ids, field-level partial updates, and ordered
// sub-collections.
package docstore

import (
	"context"
	"errors"
)

// Document is one stored record. Seq and CreatedAt are assigned by the
// store; Seq only carries meaning inside a sub-collection, where it is
// strictly increasing in append order.
type Document struct {
	ID        string
	Seq       int64
	CreatedAt int64
	Fields    map[string]any
}

// ErrNotFound is returned when the addressed document does not exist.
var ErrNotFound = errors.New("document not found")

// Store is the document-store contract the workflows write through.
type Store interface {
	// Create adds a document with a store-generated id.
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	// Set writes a full document at a known id, replacing any existing one.
	Set(ctx context.Context, collection, id string, fields map[string]any) error
	// Update merges fields into an existing document. ErrNotFound if absent.
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	// Get reads a single document. ErrNotFound if absent.
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Append adds an entry to a document's sub-collection with a generated
	// id and the next sequence number. ErrNotFound if the parent is absent.
	Append(ctx context.Context, collection, id, sub string, fields map[string]any) (string, error)
	// ListSub returns a sub-collection in append order.
	ListSub(ctx context.Context, collection, id, sub string) ([]Document, error)
}
