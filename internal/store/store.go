// Package store defines the document store contract the repository is built
// on. Drivers live in the mongostore and pgstore subpackages.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/deppfellow/tareas/internal/model"
)

// ErrNoDocument is returned when no document matches the lookup.
var ErrNoDocument = errors.New("store: no document")

// Update lists the fields written by UpdateOne. Nil fields are left as stored.
type Update struct {
	Description *string
	Status      *model.Status
	Date        time.Time
}

// Store is a document database holding tareas.
//
// Save assigns the id and creation time. Ids passed to the lookup methods are
// already validated by model.ParseID.
type Store interface {
	// Save persists a new document and fills in its ID and CreatedAt.
	Save(ctx context.Context, tarea *model.Tarea) error
	// FindAll returns every document in store-defined order.
	FindAll(ctx context.Context) ([]model.Tarea, error)
	// FindByID returns the document with the given id or ErrNoDocument.
	FindByID(ctx context.Context, id string) (*model.Tarea, error)
	// Latest returns the most recently saved document or ErrNoDocument.
	Latest(ctx context.Context) (*model.Tarea, error)
	// UpdateOne applies update to the document and reports whether it matched.
	UpdateOne(ctx context.Context, id string, update Update) (bool, error)
	// Remove deletes the document and reports whether one existed.
	Remove(ctx context.Context, id string) (bool, error)
	// Ping checks connectivity.
	Ping(ctx context.Context) error
	// Close releases the connection.
	Close(ctx context.Context) error
}
