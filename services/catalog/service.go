// Package catalog assembles page view models from metadata queries.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"streamfront/models"
	"streamfront/services/metadata"
)

// Status reports how far a view got.
type Status string

const (
	StatusLoaded   Status = "loaded"
	StatusNotFound Status = "not_found"
)

const (
	similarLimit = 6
	bannerRow    = 1
)

// ErrNoTrailer is returned when a movie has no playable trailer.
var ErrNoTrailer = errors.New("no trailer available")

// MetadataSource is the subset of the metadata client the views use.
type MetadataSource interface {
	FetchByID(ctx context.Context, id int64) (models.CatalogItem, error)
	FetchByCategory(ctx context.Context, category models.Category) ([]models.CatalogItem, error)
	FetchSimilar(ctx context.Context, id int64) ([]models.CatalogItem, error)
	FetchTrailers(ctx context.Context, id int64) ([]models.Trailer, error)
	Search(ctx context.Context, query string, page int) (models.CatalogPage, error)
}

// FavoriteChecker answers whether a movie is in the viewer's favorites.
type FavoriteChecker interface {
	Contains(id int64) bool
}

// FavoriteLister exposes the viewer's favorites for the favorites page.
type FavoriteLister interface {
	List() []models.FavoriteEntry
}

type noFavorites struct{}

func (noFavorites) Contains(int64) bool { return false }

func checker(f FavoriteChecker) FavoriteChecker {
	if f == nil {
		return noFavorites{}
	}
	return f
}

// Row is one home page carousel definition.
type Row struct {
	Title    string
	Category models.Category
}

// HomeRows are the home page carousels, top to bottom.
var HomeRows = []Row{
	{Title: "Trending Now", Category: models.Category{Kind: models.CategoryTrending}},
	{Title: "Netflix Originals", Category: models.Category{Kind: models.CategoryOriginals}},
	{Title: "Top Rated", Category: models.Category{Kind: models.CategoryTopRated}},
	{Title: "Action Movies", Category: models.GenreCategory(28)},
	{Title: "Comedy Movies", Category: models.GenreCategory(35)},
}

// Service builds catalog views.
type Service struct {
	metadata MetadataSource
	images   Images
	pick     func(n int) int
}

func NewService(metadataSource MetadataSource, imageBaseURL string) *Service {
	return &Service{
		metadata: metadataSource,
		images:   Images{BaseURL: imageBaseURL},
		pick:     rand.IntN,
	}
}

// Images exposes the URL builder used for cards.
func (s *Service) Images() Images { return s.images }

type HomeView struct {
	Status Status     `json:"status"`
	Banner *Banner    `json:"banner,omitempty"`
	Rows   []Carousel `json:"rows"`
	Failed []string   `json:"failed,omitempty"`
}

// Home fetches every home row concurrently and waits for all of them. Rows
// whose fetch fails are listed in Failed and left out. The banner is a random
// pick from the originals row.
func (s *Service) Home(ctx context.Context, favorites FavoriteChecker) (HomeView, error) {
	favorites = checker(favorites)
	results := make([][]models.CatalogItem, len(HomeRows))
	errs := make([]error, len(HomeRows))

	start := time.Now()
	p := pool.New().WithContext(ctx).WithMaxGoroutines(len(HomeRows))
	for i, row := range HomeRows {
		p.Go(func(ctx context.Context) error {
			items, err := s.metadata.FetchByCategory(ctx, row.Category)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = p.Wait()
	log.Printf("[catalog timing] home rows: %dms", time.Since(start).Milliseconds())

	if err := ctx.Err(); err != nil {
		return HomeView{}, err
	}

	view := HomeView{Status: StatusLoaded, Rows: make([]Carousel, 0, len(HomeRows))}
	for i, row := range HomeRows {
		if errs[i] != nil {
			log.Printf("[catalog] home row %q failed: %v", row.Title, errs[i])
			view.Failed = append(view.Failed, row.Title)
			continue
		}
		view.Rows = append(view.Rows, Carousel{
			Title:    row.Title,
			Category: row.Category.String(),
			Cards:    s.images.Cards(results[i], favorites),
		})
	}

	if originals := results[bannerRow]; len(originals) > 0 {
		banner := s.images.Banner(originals[s.pick(len(originals))])
		view.Banner = &banner
	}
	return view, nil
}

// Movie is the full details block of the details page.
type Movie struct {
	Card
	Overview    string    `json:"overview"`
	ReleaseDate string    `json:"releaseDate,omitempty"`
	BackdropURL string    `json:"backdropUrl,omitempty"`
	Genres      []string  `json:"genres"`
	Companies   []Company `json:"companies"`
}

type DetailsView struct {
	Status     Status `json:"status"`
	Movie      *Movie `json:"movie,omitempty"`
	Similar    []Card `json:"similar"`
	IsFavorite bool   `json:"isFavorite"`
}

// Details fetches a movie and its similar titles concurrently. An unknown id
// yields a NotFound view rather than an error; a failed similar fetch leaves
// Similar empty.
func (s *Service) Details(ctx context.Context, id int64, favorites FavoriteChecker) (DetailsView, error) {
	favorites = checker(favorites)

	var (
		item       models.CatalogItem
		similar    []models.CatalogItem
		detailsErr error
		similarErr error
	)

	p := pool.New().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		start := time.Now()
		item, detailsErr = s.metadata.FetchByID(ctx, id)
		log.Printf("[catalog timing] details %d: %dms (err=%v)", id, time.Since(start).Milliseconds(), detailsErr)
		return nil
	})
	p.Go(func(ctx context.Context) error {
		similar, similarErr = s.metadata.FetchSimilar(ctx, id)
		return nil
	})
	_ = p.Wait()

	if err := ctx.Err(); err != nil {
		return DetailsView{}, err
	}
	if errors.Is(detailsErr, metadata.ErrNotFound) {
		return DetailsView{Status: StatusNotFound, Similar: []Card{}}, nil
	}
	if detailsErr != nil {
		return DetailsView{}, fmt.Errorf("movie %d: %w", id, detailsErr)
	}
	if similarErr != nil {
		log.Printf("[catalog] similar for %d failed: %v", id, similarErr)
		similar = nil
	}
	if len(similar) > similarLimit {
		similar = similar[:similarLimit]
	}

	isFavorite := favorites.Contains(item.ID)
	movie := s.movie(item, isFavorite)
	return DetailsView{
		Status:     StatusLoaded,
		Movie:      &movie,
		Similar:    s.images.Cards(similar, favorites),
		IsFavorite: isFavorite,
	}, nil
}

func (s *Service) movie(item models.CatalogItem, favorite bool) Movie {
	genres := make([]string, 0, len(item.Genres))
	for _, g := range item.Genres {
		genres = append(genres, g.Name)
	}
	var released string
	if item.ReleaseDate != nil {
		released = item.ReleaseDate.Format(time.DateOnly)
	}
	return Movie{
		Card:        s.images.Card(item, favorite),
		Overview:    item.Overview,
		ReleaseDate: released,
		BackdropURL: s.images.Backdrop(item.BackdropPath),
		Genres:      genres,
		Companies:   s.images.Companies(item.ProductionCompanies),
	}
}

type SearchView struct {
	Status       Status `json:"status"`
	Query        string `json:"query"`
	Page         int    `json:"page"`
	TotalPages   int    `json:"totalPages"`
	TotalResults int    `json:"totalResults"`
	Results      []Card `json:"results"`
}

// Search runs a title search. A blank query returns an empty view without
// calling the metadata service.
func (s *Service) Search(ctx context.Context, query string, page int, favorites FavoriteChecker) (SearchView, error) {
	query = strings.TrimSpace(query)
	if page < 1 {
		page = 1
	}
	if query == "" {
		return SearchView{Status: StatusLoaded, Page: page, Results: []Card{}}, nil
	}

	result, err := s.metadata.Search(ctx, query, page)
	if err != nil {
		return SearchView{}, fmt.Errorf("search %q: %w", query, err)
	}
	return SearchView{
		Status:       StatusLoaded,
		Query:        query,
		Page:         result.Page,
		TotalPages:   result.TotalPages,
		TotalResults: result.TotalResults,
		Results:      s.images.Cards(result.Items, checker(favorites)),
	}, nil
}

type CategoryView struct {
	Status Status   `json:"status"`
	Row    Carousel `json:"row"`
}

// Category lists one catalog slice as a single carousel.
func (s *Service) Category(ctx context.Context, category models.Category, favorites FavoriteChecker) (CategoryView, error) {
	items, err := s.metadata.FetchByCategory(ctx, category)
	if err != nil {
		return CategoryView{}, fmt.Errorf("category %s: %w", category, err)
	}
	return CategoryView{
		Status: StatusLoaded,
		Row: Carousel{
			Title:    categoryTitle(category),
			Category: category.String(),
			Cards:    s.images.Cards(items, checker(favorites)),
		},
	}, nil
}

func categoryTitle(category models.Category) string {
	for _, row := range HomeRows {
		if row.Category == category {
			return row.Title
		}
	}
	return category.String()
}

// Trailer picks the first trailer for a movie.
func (s *Service) Trailer(ctx context.Context, id int64) (Player, error) {
	trailers, err := s.metadata.FetchTrailers(ctx, id)
	if err != nil {
		return Player{}, fmt.Errorf("trailers for %d: %w", id, err)
	}
	if len(trailers) == 0 {
		return Player{}, ErrNoTrailer
	}
	return newPlayer(id, trailers[0]), nil
}

type FavoritesView struct {
	Status Status `json:"status"`
	Cards  []Card `json:"cards"`
}

// Favorites renders the viewer's favorites list. It makes no remote calls.
func (s *Service) Favorites(favorites FavoriteLister) FavoritesView {
	entries := favorites.List()
	cards := make([]Card, 0, len(entries))
	for _, entry := range entries {
		cards = append(cards, s.images.FavoriteCard(entry))
	}
	return FavoritesView{Status: StatusLoaded, Cards: cards}
}
