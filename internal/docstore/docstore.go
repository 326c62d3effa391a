// Package docstore keeps one favorites document per user in a hosted or
// local document store.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"streamfront/config"
	"streamfront/models"
)

// ErrNotFound is returned when the document for a uid does not exist.
var ErrNotFound = errors.New("document not found")

// Store is a per-uid document with an array field of favorites.
//
// AddToSet has union semantics: an entry equal in every field to one already
// stored is not added again. RemoveFromSet removes only entries equal in every
// field to the given value; anything else is left untouched without error.
type Store interface {
	Get(ctx context.Context, uid string) (models.FavoritesDocument, error)
	// Create stores an empty document for uid unless one already exists.
	Create(ctx context.Context, uid string) error
	AddToSet(ctx context.Context, uid string, entry models.FavoriteEntry) error
	RemoveFromSet(ctx context.Context, uid string, entry models.FavoriteEntry) error
	// Delete drops the document for uid. Deleting a missing document is not an error.
	Delete(ctx context.Context, uid string) error
	Close() error
}

// Open builds the backend selected in cfg.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	switch cfg.Backend {
	case config.StoreMemory:
		return NewMemory(), nil
	case config.StoreSQLite:
		return NewSQLite(cfg.SQLitePath)
	case config.StoreFirestore:
		return NewFirestore(ctx, cfg.FirestoreProject, cfg.FirestoreCredentials, cfg.FirestoreCollection)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
