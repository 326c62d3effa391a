package docstore

import (
	"context"
	"sync"

	"streamfront/models"
)

// Memory is an in-process Store. Contents are lost on exit.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]models.FavoriteEntry
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]models.FavoriteEntry)}
}

func (m *Memory) Get(ctx context.Context, uid string) (models.FavoritesDocument, error) {
	if err := ctx.Err(); err != nil {
		return models.FavoritesDocument{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries, ok := m.docs[uid]
	if !ok {
		return models.FavoritesDocument{}, ErrNotFound
	}
	favorites := make([]models.FavoriteEntry, len(entries))
	copy(favorites, entries)
	return models.FavoritesDocument{UID: uid, Favorites: favorites}, nil
}

func (m *Memory) Create(ctx context.Context, uid string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[uid]; !ok {
		m.docs[uid] = []models.FavoriteEntry{}
	}
	return nil
}

func (m *Memory) AddToSet(ctx context.Context, uid string, entry models.FavoriteEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, ok := m.docs[uid]
	if !ok {
		return ErrNotFound
	}
	for _, existing := range entries {
		if existing == entry {
			return nil
		}
	}
	m.docs[uid] = append(entries, entry)
	return nil
}

func (m *Memory) RemoveFromSet(ctx context.Context, uid string, entry models.FavoriteEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, ok := m.docs[uid]
	if !ok {
		return ErrNotFound
	}
	kept := entries[:0:0]
	for _, existing := range entries {
		if existing != entry {
			kept = append(kept, existing)
		}
	}
	m.docs[uid] = kept
	return nil
}

func (m *Memory) Delete(ctx context.Context, uid string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, uid)
	return nil
}

func (m *Memory) Close() error { return nil }
