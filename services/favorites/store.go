// Package favorites mirrors the signed-in user's favorites document in memory.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"streamfront/internal/docstore"
	"streamfront/models"
	"streamfront/services/authsession"
)

// ErrNotSignedIn is returned by mutations made without a session.
var ErrNotSignedIn = errors.New("not signed in")

// SessionSource delivers session changes; satisfied by *authsession.Provider.
type SessionSource interface {
	Subscribe(fn authsession.Listener) (unsubscribe func())
}

type loadState struct {
	done chan struct{}
	err  error
}

// Store keeps the local favorites list for whichever user is signed in.
// Mutations go to the document store first and touch the local list only on success.
type Store struct {
	docs docstore.Store

	mu       sync.Mutex
	uid      string
	signedIn bool
	entries  []models.FavoriteEntry
	load     *loadState
	cancel   context.CancelFunc

	// writeMu serializes mutations so the remote document never holds two
	// entries for one id.
	writeMu sync.Mutex

	unsubscribe func()
	closeOnce   sync.Once
}

// New creates a store and subscribes it to sessions. The initial session
// value is delivered during New, so a signed-in user starts loading at once.
func New(docs docstore.Store, sessions SessionSource) *Store {
	s := &Store{docs: docs, load: settled(nil)}
	s.unsubscribe = sessions.Subscribe(s.onSession)
	return s
}

func settled(err error) *loadState {
	st := &loadState{done: make(chan struct{}), err: err}
	close(st.done)
	return st
}

func (s *Store) onSession(user models.UserSession, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.entries = nil

	if !ok {
		s.uid, s.signedIn = "", false
		s.load = settled(nil)
		return
	}

	s.uid, s.signedIn = user.UID, true
	ctx, cancel := context.WithCancel(context.Background())
	st := &loadState{done: make(chan struct{})}
	s.cancel = cancel
	s.load = st

	go s.fetch(ctx, user.UID, st)
}

// fetch loads the document for uid, creating it empty when absent. Results
// from a superseded load are dropped.
func (s *Store) fetch(ctx context.Context, uid string, st *loadState) {
	defer close(st.done)

	entries, err := s.fetchEntries(ctx, uid)

	s.mu.Lock()
	defer s.mu.Unlock()

	st.err = err
	if s.load != st {
		return
	}
	if err != nil {
		log.Printf("[favorites] load failed uid=%s: %v", uid, err)
		return
	}
	s.entries = entries
}

func (s *Store) fetchEntries(ctx context.Context, uid string) ([]models.FavoriteEntry, error) {
	doc, err := s.docs.Get(ctx, uid)
	if errors.Is(err, docstore.ErrNotFound) {
		if err := s.docs.Create(ctx, uid); err != nil {
			return nil, fmt.Errorf("create favorites document: %w", err)
		}
		return []models.FavoriteEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get favorites document: %w", err)
	}
	return doc.Favorites, nil
}

// Wait blocks until the most recent load has finished and returns its error.
func (s *Store) Wait(ctx context.Context) error {
	for {
		s.mu.Lock()
		st := s.load
		s.mu.Unlock()

		select {
		case <-st.done:
		case <-ctx.Done():
			return ctx.Err()
		}

		s.mu.Lock()
		current := s.load == st
		s.mu.Unlock()
		if current {
			return st.err
		}
	}
}

// LoadErr reports the error of the most recent load if it has finished and
// failed. It does not block.
func (s *Store) LoadErr() error {
	s.mu.Lock()
	st := s.load
	s.mu.Unlock()

	select {
	case <-st.done:
	default:
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return st.err
}

// List returns a copy of the local favorites in insertion order.
func (s *Store) List() []models.FavoriteEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.FavoriteEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Contains reports whether id is in the local list.
func (s *Store) Contains(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.entries, id) >= 0
}

// Add stores item's projection remotely and then appends it locally. Adding
// an id that is already a favorite is a no-op.
func (s *Store) Add(ctx context.Context, item models.CatalogItem) error {
	uid, err := s.session(ctx)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.add(ctx, uid, item)
}

// Remove deletes the local entry for id from the remote document, then from
// the local list. It reports false when id was not a favorite.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	uid, err := s.session(ctx)
	if err != nil {
		return false, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.remove(ctx, uid, id)
}

// Toggle removes id when it is a favorite and otherwise adds the item load
// returns. load runs only on the add path. It reports whether id is a
// favorite afterwards.
func (s *Store) Toggle(ctx context.Context, id int64, load func(context.Context) (models.CatalogItem, error)) (bool, error) {
	uid, err := s.session(ctx)
	if err != nil {
		return false, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.Contains(id) {
		if _, err := s.remove(ctx, uid, id); err != nil {
			return true, err
		}
		return false, nil
	}

	item, err := load(ctx)
	if err != nil {
		return false, err
	}
	if item.ID != id {
		return false, fmt.Errorf("toggle favorite %d: loaded item %d", id, item.ID)
	}
	if err := s.add(ctx, uid, item); err != nil {
		return false, err
	}
	return true, nil
}

// add and remove expect writeMu held.
func (s *Store) add(ctx context.Context, uid string, item models.CatalogItem) error {
	entry := models.NewFavoriteEntry(item)

	s.mu.Lock()
	present := s.uid == uid && indexOf(s.entries, entry.ID) >= 0
	s.mu.Unlock()
	if present {
		return nil
	}

	if err := s.docs.AddToSet(ctx, uid, entry); err != nil {
		log.Printf("[favorites] add failed uid=%s id=%d: %v", uid, entry.ID, err)
		return fmt.Errorf("add favorite %d: %w", entry.ID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uid == uid && indexOf(s.entries, entry.ID) < 0 {
		s.entries = append(s.entries, entry)
	}
	return nil
}

func (s *Store) remove(ctx context.Context, uid string, id int64) (bool, error) {
	s.mu.Lock()
	idx := -1
	if s.uid == uid {
		idx = indexOf(s.entries, id)
	}
	var entry models.FavoriteEntry
	if idx >= 0 {
		entry = s.entries[idx]
	}
	s.mu.Unlock()
	if idx < 0 {
		return false, nil
	}

	if err := s.docs.RemoveFromSet(ctx, uid, entry); err != nil {
		log.Printf("[favorites] remove failed uid=%s id=%d: %v", uid, id, err)
		return false, fmt.Errorf("remove favorite %d: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uid == uid {
		kept := s.entries[:0:0]
		for _, e := range s.entries {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		s.entries = kept
	}
	return true, nil
}

// Close stops any in-flight load and detaches from the session source.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		s.mu.Lock()
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		s.mu.Unlock()
	})
}

// session waits for any in-flight load and returns the signed-in uid.
func (s *Store) session(ctx context.Context) (string, error) {
	s.mu.Lock()
	ok := s.signedIn
	s.mu.Unlock()
	if !ok {
		return "", ErrNotSignedIn
	}

	if err := s.Wait(ctx); err != nil && ctx.Err() != nil {
		return "", ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.signedIn {
		return "", ErrNotSignedIn
	}
	return s.uid, nil
}

func indexOf(entries []models.FavoriteEntry, id int64) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
