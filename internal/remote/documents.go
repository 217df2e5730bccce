// ABOUTME: Documents interface for the path-addressed remote document store
// ABOUTME: Defines read/write/collection/delete operations and document paths

package remote

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is the schemaless body of one remote document.
type Document = map[string]any

// Snapshot is a document together with its id within a collection.
type Snapshot struct {
	ID   string
	Data Document
}

// Documents is the remote document store surface the client consumes.
// Documents are addressed by slash-separated paths; collections hold
// documents ordered by a named field.
type Documents interface {
	// ReadDoc returns the document at path, or ErrNotFound.
	ReadDoc(ctx context.Context, path string) (Document, error)

	// WriteDoc writes doc at path. With merge set, fields in doc are merged
	// into the existing document; otherwise the document is replaced.
	WriteDoc(ctx context.Context, path string, doc Document, merge bool) error

	// ReadCollection returns the documents directly under path, ordered
	// ascending by orderField.
	ReadCollection(ctx context.Context, path, orderField string) ([]Snapshot, error)

	// DeleteDoc removes the document at path. Deleting a missing document
	// is not an error.
	DeleteDoc(ctx context.Context, path string) error
}

// Document paths, keyed by user id.

func profilePath(uid string) string { return fmt.Sprintf("users/%s", uid) }

func wizardPath(uid string) string { return fmt.Sprintf("users/%s/wizard/default", uid) }

func ideasPath(uid string) string { return fmt.Sprintf("users/%s/ideas", uid) }

func ideaPath(uid, ideaID string) string { return fmt.Sprintf("users/%s/ideas/%s", uid, ideaID) }
