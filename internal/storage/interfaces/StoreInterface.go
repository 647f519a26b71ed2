package interfaces

import "context"

// Document is the unit of persistence: a schemaless map stored under a
// collection and key. Exists distinguishes an absent document from an
// empty one.
type Document struct {
	Exists bool
	Data   map[string]interface{}
}

// DocumentStoreInterface is the persistence contract shared by all
// drivers. Implementations return copies of stored data, never internal
// references, and must be safe for concurrent use.
type DocumentStoreInterface interface {
	GetDocument(ctx context.Context, collection, key string) (Document, error)
	// SetDocument writes a document. With merge, top-level and nested maps
	// are merged recursively; without it, the document is replaced.
	SetDocument(ctx context.Context, collection, key string, data map[string]interface{}, merge bool) error
	// UpdateField sets a single value at a dot-separated path, creating
	// the document and any intermediate maps as needed.
	UpdateField(ctx context.Context, collection, key, path string, value interface{}) error
	// AppendToArray appends values to an array field, creating it as needed.
	AppendToArray(ctx context.Context, collection, key, field string, values ...interface{}) error
	DeleteDocument(ctx context.Context, collection, key string) error
	// Persist flushes buffered state to durable storage where the driver
	// buffers writes; otherwise it is a no-op.
	Persist() error
	Close() error
}
