package services

import "context"

// DocumentStore is the persistence seam used by the match store and profile provider.
// Every call on a single document id is atomic.
type DocumentStore interface {
	// GetDocument decodes the document into out. found is false when it does not exist.
	GetDocument(ctx context.Context, table, id string, out interface{}) (found bool, err error)

	// PutDocument creates or replaces the document.
	PutDocument(ctx context.Context, table, id string, doc interface{}) error

	// PutDocumentIfAbsent inserts the document only if no document with the id exists.
	PutDocumentIfAbsent(ctx context.Context, table, id string, doc interface{}) (created bool, err error)

	// UpdateFields sets top-level fields on an existing document. Returns ErrNotFound if absent.
	UpdateFields(ctx context.Context, table, id string, fields map[string]interface{}) error

	// QueryByAttribute decodes every document whose attribute equals value into out (a slice pointer).
	QueryByAttribute(ctx context.Context, table, attribute, value string, out interface{}) error

	// AddToSet adds value to a string-set attribute, creating the document if needed.
	AddToSet(ctx context.Context, table, id, attribute, value string) error

	// RemoveFromSet removes value from a string-set attribute. Missing documents are a no-op.
	RemoveFromSet(ctx context.Context, table, id, attribute, value string) error
}
