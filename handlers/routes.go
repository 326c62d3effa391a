package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"streamfront/api"
)

// Routes bundles the handlers mounted by Register.
type Routes struct {
	Auth        *AuthHandler
	Catalog     *CatalogHandler
	Favorites   *FavoritesHandler
	Version     *VersionHandler
	Sessions    mux.MiddlewareFunc
	AuthLimiter *api.IPRateLimiter
}

// Register mounts the JSON API on r.
func Register(r *mux.Router, routes Routes) {
	apiRouter := r.PathPrefix("/api").Subrouter()
	apiRouter.Use(routes.Sessions)

	limited := func(h http.HandlerFunc) http.HandlerFunc {
		if routes.AuthLimiter == nil {
			return h
		}
		return api.RateLimitHandlerFunc(routes.AuthLimiter, h)
	}

	if routes.Version != nil {
		apiRouter.HandleFunc("/version", routes.Version.GetVersion).Methods(http.MethodGet, http.MethodOptions)
	}

	apiRouter.HandleFunc("/auth/signup", limited(routes.Auth.SignUp)).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/auth/login", limited(routes.Auth.Login)).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/auth/logout", routes.Auth.Logout).Methods(http.MethodPost, http.MethodOptions)
	apiRouter.HandleFunc("/auth/me", routes.Auth.Me).Methods(http.MethodGet, http.MethodOptions)

	apiRouter.HandleFunc("/catalog/home", routes.Catalog.Home).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/catalog/categories/{category}", routes.Catalog.Category).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/catalog/movies/{id}", routes.Catalog.Details).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/catalog/movies/{id}/trailer", routes.Catalog.Trailer).Methods(http.MethodGet, http.MethodOptions)
	apiRouter.HandleFunc("/catalog/search", routes.Catalog.Search).Methods(http.MethodGet, http.MethodOptions)

	favoritesRouter := apiRouter.PathPrefix("/favorites").Subrouter()
	favoritesRouter.Use(api.RequireSession())
	favoritesRouter.HandleFunc("", routes.Favorites.List).Methods(http.MethodGet, http.MethodOptions)
	favoritesRouter.HandleFunc("", routes.Favorites.Add).Methods(http.MethodPost, http.MethodOptions)
	favoritesRouter.HandleFunc("/{id}", routes.Favorites.Remove).Methods(http.MethodDelete, http.MethodOptions)
	favoritesRouter.HandleFunc("/{id}/toggle", routes.Favorites.Toggle).Methods(http.MethodPost, http.MethodOptions)
}
