// Package assets coordinates binary objects held in a remote store with the
// metadata rows that reference them. It owns the upload path (batched,
// ordered, rolled back on partial failure) and the best-effort compensation
// path that reverses uploads when the relational write that should have
// referenced them fails.
package assets

import "context"

// Resource types understood by the remote store. Raw resources (PDFs) must
// be made publicly readable at upload time; the store defaults them to
// private.
const (
	ResourceImage = "image"
	ResourceRaw   = "raw"
)

// Delete result classification. NotFound is success-equivalent: deleting an
// already-deleted object must not error, so cascades can be retried.
type DeleteStatus string

const (
	DeleteOK       DeleteStatus = "ok"
	DeleteNotFound DeleteStatus = "not_found"
	DeleteOther    DeleteStatus = "other"
)

// Descriptor identifies one uploaded object. It is what gets persisted as an
// asset row and what compensation operates on.
type Descriptor struct {
	URL          string
	PublicID     string
	ResourceType string
	Role         string
}

// Store abstracts the remote object store.
type Store interface {
	// Upload stores content under folder and returns the resulting
	// descriptor fields. The resource type is decided by content type
	// first, file extension second, defaulting to image.
	Upload(ctx context.Context, content []byte, folder, filename, contentType string) (Descriptor, error)

	// Delete removes an object. Invoking it twice for the same public ID
	// yields DeleteOK then DeleteNotFound; callers treat both as success.
	Delete(ctx context.Context, publicID, resourceType string) (DeleteStatus, error)

	// Download fetches the object behind a public URL. Callers never
	// receive partial buffers: any transport failure surfaces as an error
	// with no bytes.
	Download(ctx context.Context, url string) ([]byte, error)

	// ResolveURL derives the public URL for an already-stored object.
	ResolveURL(publicID, resourceType string) string
}
