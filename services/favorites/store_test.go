package favorites

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamfront/internal/docstore"
	"streamfront/models"
	"streamfront/services/authsession"
)

type fakeSessions struct {
	listeners []authsession.Listener
	user      models.UserSession
	ok        bool
}

func (f *fakeSessions) Subscribe(fn authsession.Listener) func() {
	f.listeners = append(f.listeners, fn)
	fn(f.user, f.ok)
	return func() {}
}

func (f *fakeSessions) set(uid string) {
	f.user, f.ok = models.UserSession{UID: uid}, uid != ""
	for _, fn := range f.listeners {
		fn(f.user, f.ok)
	}
}

// recordingStore wraps the in-memory store with call tracking, error
// injection and optional gates that hold Get until released.
type recordingStore struct {
	*docstore.Memory

	mu        sync.Mutex
	calls     []string
	getErr    error
	addErr    error
	removeErr error
	gates     map[string]chan struct{}
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Memory: docstore.NewMemory(), gates: map[string]chan struct{}{}}
}

func (r *recordingStore) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recordingStore) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recordingStore) Get(ctx context.Context, uid string) (models.FavoritesDocument, error) {
	r.record("get:" + uid)
	r.mu.Lock()
	gate := r.gates[uid]
	getErr := r.getErr
	r.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if getErr != nil {
		return models.FavoritesDocument{}, getErr
	}
	return r.Memory.Get(ctx, uid)
}

func (r *recordingStore) Create(ctx context.Context, uid string) error {
	r.record("create:" + uid)
	return r.Memory.Create(ctx, uid)
}

func (r *recordingStore) AddToSet(ctx context.Context, uid string, entry models.FavoriteEntry) error {
	r.record("add:" + uid)
	if r.addErr != nil {
		return r.addErr
	}
	return r.Memory.AddToSet(ctx, uid, entry)
}

func (r *recordingStore) RemoveFromSet(ctx context.Context, uid string, entry models.FavoriteEntry) error {
	r.record("remove:" + uid)
	if r.removeErr != nil {
		return r.removeErr
	}
	return r.Memory.RemoveFromSet(ctx, uid, entry)
}

var movie42 = models.CatalogItem{ID: 42, Title: "The Answer", PosterPath: "/42.jpg", VoteAverage: 7.5}

func signedInStore(t *testing.T, uid string) (*Store, *recordingStore, *fakeSessions) {
	t.Helper()
	docs := newRecordingStore()
	sessions := &fakeSessions{}
	sessions.set(uid)
	store := New(docs, sessions)
	t.Cleanup(store.Close)
	require.NoError(t, store.Wait(context.Background()))
	return store, docs, sessions
}

func TestStore_LoadCreatesMissingDocument(t *testing.T) {
	store, docs, _ := signedInStore(t, "u1")

	assert.Equal(t, []string{"get:u1", "create:u1"}, docs.Calls())
	assert.Empty(t, store.List())

	doc, err := docs.Memory.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, doc.Favorites)
}

func TestStore_LoadExistingDocument(t *testing.T) {
	ctx := context.Background()
	docs := newRecordingStore()
	require.NoError(t, docs.Memory.Create(ctx, "u1"))
	require.NoError(t, docs.Memory.AddToSet(ctx, "u1", models.NewFavoriteEntry(movie42)))

	sessions := &fakeSessions{}
	sessions.set("u1")
	store := New(docs, sessions)
	defer store.Close()

	require.NoError(t, store.Wait(ctx))
	assert.Equal(t, []string{"get:u1"}, docs.Calls())
	assert.True(t, store.Contains(42))
}

func TestStore_AddThenRemove(t *testing.T) {
	ctx := context.Background()
	store, docs, _ := signedInStore(t, "u1")

	require.NoError(t, store.Add(ctx, movie42))
	doc, err := docs.Memory.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []models.FavoriteEntry{{ID: 42, Title: "The Answer", PosterPath: "/42.jpg", VoteAverage: 7.5}}, doc.Favorites)
	assert.Equal(t, doc.Favorites, store.List())

	removed, err := store.Remove(ctx, 42)
	require.NoError(t, err)
	assert.True(t, removed)

	doc, err = docs.Memory.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, doc.Favorites)
	assert.Empty(t, store.List())
}

func TestStore_AddIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, docs, _ := signedInStore(t, "u1")

	require.NoError(t, store.Add(ctx, movie42))
	require.NoError(t, store.Add(ctx, movie42))

	assert.Len(t, store.List(), 1)
	doc, err := docs.Memory.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, doc.Favorites, 1)
}

func TestStore_AddWithoutSession(t *testing.T) {
	docs := newRecordingStore()
	store := New(docs, &fakeSessions{})
	defer store.Close()

	err := store.Add(context.Background(), movie42)
	assert.ErrorIs(t, err, ErrNotSignedIn)
	assert.Empty(t, docs.Calls())
	assert.Empty(t, store.List())
}

func TestStore_AddRemoteFailureLeavesLocalUnchanged(t *testing.T) {
	store, docs, _ := signedInStore(t, "u1")
	docs.addErr = errors.New("unavailable")

	err := store.Add(context.Background(), movie42)
	assert.ErrorIs(t, err, docs.addErr)
	assert.Empty(t, store.List())
}

func TestStore_RemoveRemoteFailureLeavesLocalUnchanged(t *testing.T) {
	ctx := context.Background()
	store, docs, _ := signedInStore(t, "u1")
	require.NoError(t, store.Add(ctx, movie42))
	docs.removeErr = errors.New("unavailable")

	removed, err := store.Remove(ctx, 42)
	assert.ErrorIs(t, err, docs.removeErr)
	assert.False(t, removed)
	assert.True(t, store.Contains(42))
}

func TestStore_RemoveUnknownMakesNoRemoteCall(t *testing.T) {
	store, docs, _ := signedInStore(t, "u1")
	before := len(docs.Calls())

	removed, err := store.Remove(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Len(t, docs.Calls(), before)
}

func TestStore_SignOutClearsSynchronously(t *testing.T) {
	ctx := context.Background()
	store, docs, sessions := signedInStore(t, "u1")
	require.NoError(t, store.Add(ctx, movie42))
	before := len(docs.Calls())

	sessions.set("")

	assert.Empty(t, store.List())
	assert.Len(t, docs.Calls(), before)
	assert.ErrorIs(t, store.Add(ctx, movie42), ErrNotSignedIn)
}

func TestStore_NewerSessionSupersedesLoad(t *testing.T) {
	ctx := context.Background()
	docs := newRecordingStore()
	require.NoError(t, docs.Memory.Create(ctx, "u1"))
	require.NoError(t, docs.Memory.AddToSet(ctx, "u1", models.NewFavoriteEntry(movie42)))
	gate := make(chan struct{})
	docs.gates["u1"] = gate

	sessions := &fakeSessions{}
	sessions.set("u1")
	store := New(docs, sessions)
	defer store.Close()

	sessions.set("u2")
	require.NoError(t, store.Wait(ctx))
	close(gate)

	// give the stale load a chance to land
	time.Sleep(20 * time.Millisecond)
	assert.False(t, store.Contains(42))
	assert.Empty(t, store.List())
}

func loaderFor(item models.CatalogItem, calls *int) func(context.Context) (models.CatalogItem, error) {
	return func(context.Context) (models.CatalogItem, error) {
		*calls++
		return item, nil
	}
}

func TestStore_Toggle(t *testing.T) {
	ctx := context.Background()
	store, _, _ := signedInStore(t, "u1")
	var loads int

	added, err := store.Toggle(ctx, 42, loaderFor(movie42, &loads))
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, store.Contains(42))

	added, err = store.Toggle(ctx, 42, loaderFor(movie42, &loads))
	require.NoError(t, err)
	assert.False(t, added)
	assert.False(t, store.Contains(42))
	assert.Equal(t, 1, loads, "loader runs only when adding")
}

func TestStore_ToggleAfterRemoveStoresLoadedItem(t *testing.T) {
	ctx := context.Background()
	store, docs, _ := signedInStore(t, "u1")
	require.NoError(t, store.Add(ctx, movie42))

	// A removal lands before the toggle decides which way to go.
	removed, err := store.Remove(ctx, 42)
	require.NoError(t, err)
	require.True(t, removed)

	var loads int
	added, err := store.Toggle(ctx, 42, loaderFor(movie42, &loads))
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, loads)

	doc, err := docs.Memory.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []models.FavoriteEntry{models.NewFavoriteEntry(movie42)}, doc.Favorites)
}

func TestStore_ToggleLoaderFailureStoresNothing(t *testing.T) {
	ctx := context.Background()
	store, docs, _ := signedInStore(t, "u1")
	before := len(docs.Calls())
	boom := errors.New("lookup failed")

	added, err := store.Toggle(ctx, 42, func(context.Context) (models.CatalogItem, error) {
		return models.CatalogItem{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, added)
	assert.Len(t, docs.Calls(), before)
	assert.Empty(t, store.List())
}

func TestStore_ToggleRejectsMismatchedItem(t *testing.T) {
	store, docs, _ := signedInStore(t, "u1")
	before := len(docs.Calls())
	var loads int

	_, err := store.Toggle(context.Background(), 7, loaderFor(movie42, &loads))
	assert.Error(t, err)
	assert.Len(t, docs.Calls(), before)
	assert.False(t, store.Contains(7))
	assert.False(t, store.Contains(42))
}

func TestStore_AddKeepsOneEntryPerID(t *testing.T) {
	ctx := context.Background()
	store, docs, _ := signedInStore(t, "u1")

	drifted := movie42
	drifted.VoteAverage = 7.6
	require.NoError(t, store.Add(ctx, movie42))
	require.NoError(t, store.Add(ctx, drifted))

	doc, err := docs.Memory.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []models.FavoriteEntry{models.NewFavoriteEntry(movie42)}, doc.Favorites)
	assert.Equal(t, doc.Favorites, store.List())

	removed, err := store.Remove(ctx, 42)
	require.NoError(t, err)
	assert.True(t, removed)

	doc, err = docs.Memory.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, doc.Favorites, "no entry for 42 survives the removal")
}

func TestStore_ConcurrentAddsKeepOneEntryPerID(t *testing.T) {
	ctx := context.Background()
	store, docs, _ := signedInStore(t, "u1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		item := movie42
		item.VoteAverage = 7 + float64(i)/10
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Add(ctx, item))
		}()
	}
	wg.Wait()

	doc, err := docs.Memory.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, doc.Favorites, 1)
	assert.Len(t, store.List(), 1)
}

func TestStore_LoadErr(t *testing.T) {
	docs := newRecordingStore()
	docs.getErr = errors.New("unavailable")
	sessions := &fakeSessions{}
	sessions.set("u1")
	store := New(docs, sessions)
	defer store.Close()

	assert.ErrorIs(t, store.Wait(context.Background()), docs.getErr)
	assert.ErrorIs(t, store.LoadErr(), docs.getErr)

	docs.getErr = nil
	sessions.set("u1")
	require.NoError(t, store.Wait(context.Background()))
	assert.NoError(t, store.LoadErr())
}

func TestStore_LoadErrWhileLoading(t *testing.T) {
	docs := newRecordingStore()
	gate := make(chan struct{})
	defer close(gate)
	docs.gates["u1"] = gate

	sessions := &fakeSessions{}
	sessions.set("u1")
	store := New(docs, sessions)
	defer store.Close()

	assert.NoError(t, store.LoadErr())
}

func TestStore_WaitHonoursContext(t *testing.T) {
	docs := newRecordingStore()
	gate := make(chan struct{})
	defer close(gate)
	docs.gates["u1"] = gate

	sessions := &fakeSessions{}
	sessions.set("u1")
	store := New(docs, sessions)
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, store.Wait(ctx), context.DeadlineExceeded)
}
