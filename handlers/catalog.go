package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"streamfront/internal/auth"
	"streamfront/models"
	"streamfront/services/catalog"
)

type catalogViews interface {
	Home(ctx context.Context, favorites catalog.FavoriteChecker) (catalog.HomeView, error)
	Details(ctx context.Context, id int64, favorites catalog.FavoriteChecker) (catalog.DetailsView, error)
	Search(ctx context.Context, query string, page int, favorites catalog.FavoriteChecker) (catalog.SearchView, error)
	Category(ctx context.Context, category models.Category, favorites catalog.FavoriteChecker) (catalog.CategoryView, error)
	Trailer(ctx context.Context, id int64) (catalog.Player, error)
	Favorites(favorites catalog.FavoriteLister) catalog.FavoritesView
}

var _ catalogViews = (*catalog.Service)(nil)

// CatalogHandler serves the browse pages. Card favorite flags are filled in
// when the request carries a session.
type CatalogHandler struct {
	views catalogViews
}

func NewCatalogHandler(views catalogViews) *CatalogHandler {
	return &CatalogHandler{views: views}
}

// favoritesFor returns the caller's favorites once loaded, or nil when anonymous.
func favoritesFor(r *http.Request) catalog.FavoriteChecker {
	inst, ok := auth.GetClient(r)
	if !ok {
		return nil
	}
	if err := inst.Favorites.Wait(r.Context()); err != nil {
		log.Printf("[catalog] favorites not loaded: %v", err)
	}
	return inst.Favorites
}

func (h *CatalogHandler) Home(w http.ResponseWriter, r *http.Request) {
	view, err := h.views.Home(r.Context(), favoritesFor(r))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CatalogHandler) Category(w http.ResponseWriter, r *http.Request) {
	category, ok := models.ParseCategory(mux.Vars(r)["category"])
	if !ok {
		writeError(w, http.StatusNotFound, "unknown category")
		return
	}

	view, err := h.views.Category(r.Context(), category, favoritesFor(r))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CatalogHandler) Details(w http.ResponseWriter, r *http.Request) {
	id, ok := parseMovieID(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}

	view, err := h.views.Details(r.Context(), id, favoritesFor(r))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	status := http.StatusOK
	if view.Status == catalog.StatusNotFound {
		status = http.StatusNotFound
	}
	writeJSON(w, status, view)
}

func (h *CatalogHandler) Trailer(w http.ResponseWriter, r *http.Request) {
	id, ok := parseMovieID(mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid movie id")
		return
	}

	player, err := h.views.Trailer(r.Context(), id)
	if errors.Is(err, catalog.ErrNoTrailer) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	view, err := h.views.Search(r.Context(), query.Get("q"), trimAndParseInt(query.Get("page")), favoritesFor(r))
	if err != nil {
		writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
