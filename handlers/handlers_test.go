package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"

	"streamfront/api"
	"streamfront/internal/docstore"
	"streamfront/models"
	"streamfront/services/accounts"
	"streamfront/services/catalog"
	"streamfront/services/clients"
	"streamfront/services/identity"
	"streamfront/services/metadata"
	"streamfront/services/sessions"
	"streamfront/utils"
)

type fakeMetadataService struct {
	items map[int64]models.CatalogItem
	rows  map[string][]models.CatalogItem
	err   error
}

func (f *fakeMetadataService) FetchByID(_ context.Context, id int64) (models.CatalogItem, error) {
	if f.err != nil {
		return models.CatalogItem{}, f.err
	}
	item, ok := f.items[id]
	if !ok {
		return models.CatalogItem{}, fmt.Errorf("movie %d: %w", id, metadata.ErrNotFound)
	}
	return item, nil
}

func (f *fakeMetadataService) FetchByCategory(_ context.Context, category models.Category) ([]models.CatalogItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[category.String()], nil
}

func (f *fakeMetadataService) FetchSimilar(context.Context, int64) ([]models.CatalogItem, error) {
	return nil, nil
}

func (f *fakeMetadataService) FetchTrailers(context.Context, int64) ([]models.Trailer, error) {
	return []models.Trailer{{Name: "Official Trailer", Key: "yt1", EmbedURL: "https://www.youtube.com/embed/yt1"}}, nil
}

func (f *fakeMetadataService) Search(_ context.Context, query string, page int) (models.CatalogPage, error) {
	return models.CatalogPage{Items: f.rows["trending"], Page: page, TotalPages: 1}, nil
}

type testServer struct {
	router   http.Handler
	registry *clients.Registry
	meta     *fakeMetadataService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	fs := afero.NewMemMapFs()
	accountsSvc, err := accounts.NewService(fs, "/data")
	if err != nil {
		t.Fatalf("accounts: %v", err)
	}
	sessionsSvc, err := sessions.NewService(fs, "/data", 0)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	t.Cleanup(sessionsSvc.Close)

	registry := clients.NewRegistry(identity.NewService(accountsSvc, sessionsSvc), docstore.NewMemory())
	t.Cleanup(registry.Close)

	meta := &fakeMetadataService{
		items: map[int64]models.CatalogItem{
			42:  {ID: 42, Title: "The Answer", PosterPath: "/42.jpg", VoteAverage: 7.5},
			550: {ID: 550, Title: "Fight Club", PosterPath: "/fc.jpg", VoteAverage: 8.4},
		},
		rows: map[string][]models.CatalogItem{
			"trending":  {{ID: 42, Title: "The Answer"}},
			"originals": {{ID: 7, Title: "Original"}},
		},
	}
	views := catalog.NewService(meta, "https://image.tmdb.org/t/p")

	router := utils.NewRouter()
	Register(router, Routes{
		Auth:      NewAuthHandler(registry),
		Catalog:   NewCatalogHandler(views),
		Favorites: NewFavoritesHandler(meta, views),
		Version:   NewVersionHandler(),
		Sessions:  api.SessionMiddleware(registry),
	})
	return &testServer{router: router, registry: registry, meta: meta}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.168.1.10:5555"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signUp(t *testing.T, username string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/auth/signup", "", CredentialsRequest{Username: username, Password: "password123"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode signup: %v", err)
	}
	if resp.Token == "" || resp.AccountID == "" {
		t.Fatalf("expected token and account id, got %+v", resp)
	}
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestAuth_SignUpLoginMeLogout(t *testing.T) {
	srv := newTestServer(t)
	srv.signUp(t, "alice")

	rec := srv.do(t, http.MethodPost, "/api/auth/signup", "", CredentialsRequest{Username: "alice", Password: "password123"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: expected 409, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodPost, "/api/auth/login", "", CredentialsRequest{Username: "alice", Password: "wrong-password"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: expected 401, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodPost, "/api/auth/login", "", CredentialsRequest{Username: "alice", Password: "password123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", rec.Code)
	}
	token := decode[SessionResponse](t, rec).Token

	rec = srv.do(t, http.MethodGet, "/api/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", rec.Code)
	}
	if me := decode[models.UserSession](t, rec); me.Username != "alice" {
		t.Errorf("expected alice, got %q", me.Username)
	}

	rec = srv.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodGet, "/api/auth/me", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: expected 401, got %d", rec.Code)
	}
}

func TestAuth_LogoutReleasesResolvedSession(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signUp(t, "alice")
	if srv.registry.Len() != 1 {
		t.Fatalf("expected one live client, got %d", srv.registry.Len())
	}

	rec := srv.do(t, http.MethodPost, "/api/auth/logout?token="+token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rec.Code)
	}
	if srv.registry.Len() != 0 {
		t.Fatalf("expected client to be released, got %d live", srv.registry.Len())
	}

	rec = srv.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stale logout: expected 200, got %d", rec.Code)
	}
	rec = srv.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("logout without token: expected 400, got %d", rec.Code)
	}
}

func TestAuth_SignUpValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/auth/signup", "", CredentialsRequest{Username: "bob", Password: "abc"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short password: expected 400, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewBufferString("{"))
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json: expected 400, got %d", rec.Code)
	}
}

func TestFavorites_RequireSession(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/favorites", "", FavoriteRequest{ID: 42})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	body := decode[map[string]string](t, rec)
	if body["redirect"] != api.SignInPath {
		t.Errorf("expected redirect to %s, got %q", api.SignInPath, body["redirect"])
	}

	rec = srv.do(t, http.MethodGet, "/api/favorites", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("invalid token: expected 401, got %d", rec.Code)
	}
}

func TestFavorites_AddListRemove(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signUp(t, "alice")

	rec := srv.do(t, http.MethodPost, "/api/favorites", token, FavoriteRequest{ID: 42})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodGet, "/api/favorites", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	view := decode[catalog.FavoritesView](t, rec)
	if len(view.Cards) != 1 || view.Cards[0].ID != 42 {
		t.Fatalf("expected one favorite 42, got %+v", view.Cards)
	}
	if view.Cards[0].PosterURL != "https://image.tmdb.org/t/p/w500/42.jpg" {
		t.Errorf("unexpected poster url %q", view.Cards[0].PosterURL)
	}

	rec = srv.do(t, http.MethodDelete, "/api/favorites/42", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove: expected 200, got %d", rec.Code)
	}

	rec = srv.do(t, http.MethodDelete, "/api/favorites/42", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second remove: expected 404, got %d", rec.Code)
	}
}

func TestFavorites_AddUnknownMovie(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signUp(t, "alice")

	rec := srv.do(t, http.MethodPost, "/api/favorites", token, FavoriteRequest{ID: 999})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestFavorites_Toggle(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signUp(t, "alice")

	rec := srv.do(t, http.MethodPost, "/api/favorites/550/toggle", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle on: expected 200, got %d", rec.Code)
	}
	if resp := decode[FavoriteResponse](t, rec); !resp.Favorite {
		t.Fatal("expected favorite after first toggle")
	}

	rec = srv.do(t, http.MethodGet, "/api/catalog/movies/550", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("details: expected 200, got %d", rec.Code)
	}
	if view := decode[catalog.DetailsView](t, rec); !view.IsFavorite {
		t.Error("expected details to show favorite")
	}

	rec = srv.do(t, http.MethodPost, "/api/favorites/550/toggle", token, nil)
	if resp := decode[FavoriteResponse](t, rec); resp.Favorite {
		t.Fatal("expected not favorite after second toggle")
	}
}

func TestFavorites_SurviveRegistryRestart(t *testing.T) {
	srv := newTestServer(t)
	token := srv.signUp(t, "alice")

	rec := srv.do(t, http.MethodPost, "/api/favorites", token, FavoriteRequest{ID: 42})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add: expected 201, got %d", rec.Code)
	}

	srv.registry.Close()

	rec = srv.do(t, http.MethodGet, "/api/favorites", token, nil)
	view := decode[catalog.FavoritesView](t, rec)
	if len(view.Cards) != 1 {
		t.Fatalf("expected favorites reloaded from store, got %+v", view.Cards)
	}
}

func TestCatalog_Home(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/catalog/home", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	view := decode[catalog.HomeView](t, rec)
	if len(view.Rows) != len(catalog.HomeRows) {
		t.Errorf("expected %d rows, got %d", len(catalog.HomeRows), len(view.Rows))
	}
	if view.Banner == nil || view.Banner.ID != 7 {
		t.Errorf("expected banner from originals, got %+v", view.Banner)
	}
}

func TestCatalog_Errors(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		path string
		want int
	}{
		{"/api/catalog/movies/abc", http.StatusBadRequest},
		{"/api/catalog/movies/999", http.StatusNotFound},
		{"/api/catalog/categories/bogus", http.StatusNotFound},
		{"/api/catalog/categories/genre:28", http.StatusOK},
		{"/api/catalog/movies/42/trailer", http.StatusOK},
		{"/api/catalog/search?q=answer", http.StatusOK},
	}
	for _, tc := range cases {
		rec := srv.do(t, http.MethodGet, tc.path, "", nil)
		if rec.Code != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.path, tc.want, rec.Code)
		}
	}

	srv.meta.err = &metadata.NetworkError{Op: "details", StatusCode: 503}
	rec := srv.do(t, http.MethodGet, "/api/catalog/categories/trending", "", nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("upstream failure: expected 502, got %d", rec.Code)
	}
}

func TestVersionEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodGet, "/api/version", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if resp := decode[VersionResponse](t, rec); resp.Version == "" {
		t.Fatal("expected a version string")
	}
}
