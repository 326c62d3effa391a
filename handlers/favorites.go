package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"streamfront/api"
	"streamfront/internal/auth"
	"streamfront/models"
	"streamfront/services/catalog"
	"streamfront/services/favorites"
)

type itemFetcher interface {
	FetchByID(ctx context.Context, id int64) (models.CatalogItem, error)
}

type favoritesRenderer interface {
	Favorites(favorites catalog.FavoriteLister) catalog.FavoritesView
}

// FavoritesHandler serves the signed-in user's favorites. Routes are expected
// to sit behind api.RequireSession.
type FavoritesHandler struct {
	items itemFetcher
	views favoritesRenderer
}

func NewFavoritesHandler(items itemFetcher, views favoritesRenderer) *FavoritesHandler {
	return &FavoritesHandler{items: items, views: views}
}

// FavoriteRequest is the body of POST /api/favorites.
type FavoriteRequest struct {
	ID int64 `json:"id"`
}

// FavoriteResponse reports a movie's favorite state after a mutation.
type FavoriteResponse struct {
	ID       int64 `json:"id"`
	Favorite bool  `json:"favorite"`
}

func (h *FavoritesHandler) store(w http.ResponseWriter, r *http.Request) (*favorites.Store, bool) {
	inst, ok := auth.GetClient(r)
	if !ok {
		api.WriteUnauthorized(w)
		return nil, false
	}
	return inst.Favorites, true
}

func (h *FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	if err := store.Wait(r.Context()); err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.views.Favorites(store))
}

func (h *FavoritesHandler) Add(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	var req FavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.items.FetchByID(r.Context(), req.ID)
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	if err := store.Add(r.Context(), item); err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, FavoriteResponse{ID: item.ID, Favorite: true})
}

func (h *FavoritesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	id, ok := parseMovieID(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}

	removed, err := store.Remove(r.Context(), id)
	if err != nil {
		writeMutationError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "not in favorites")
		return
	}
	writeJSON(w, http.StatusOK, FavoriteResponse{ID: id, Favorite: false})
}

// Toggle flips a movie's favorite state. The movie is only fetched when it
// is being added.
func (h *FavoritesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	id, ok := parseMovieID(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}
	if err := store.Wait(r.Context()); err != nil {
		writeUpstreamError(w, err)
		return
	}

	favorite, err := store.Toggle(r.Context(), id, func(ctx context.Context) (models.CatalogItem, error) {
		return h.items.FetchByID(ctx, id)
	})
	if err != nil {
		writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FavoriteResponse{ID: id, Favorite: favorite})
}

func writeMutationError(w http.ResponseWriter, err error) {
	if errors.Is(err, favorites.ErrNotSignedIn) {
		api.WriteUnauthorized(w)
		return
	}
	writeUpstreamError(w, err)
}
