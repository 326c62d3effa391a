package models

import (
	"strconv"
	"strings"
	"time"
)

// Genre is a TMDB genre reference attached to a catalog item.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductionCompany is a studio credited on a catalog item.
type ProductionCompany struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	LogoPath string `json:"logoPath,omitempty"`
}

// CatalogItem is a normalized movie or show record from the metadata service.
// Values are treated as immutable once fetched.
type CatalogItem struct {
	ID                  int64               `json:"id"`
	Title               string              `json:"title"`
	PosterPath          string              `json:"posterPath,omitempty"`
	BackdropPath        string              `json:"backdropPath,omitempty"`
	Overview            string              `json:"overview"`
	ReleaseDate         *time.Time          `json:"releaseDate,omitempty"`
	RuntimeMinutes      *int                `json:"runtimeMinutes,omitempty"`
	VoteAverage         float64             `json:"voteAverage"`
	Genres              []Genre             `json:"genres"`
	ProductionCompanies []ProductionCompany `json:"productionCompanies"`
}

// ReleaseYear returns the release year or 0 when the date is unknown.
func (c CatalogItem) ReleaseYear() int {
	if c.ReleaseDate == nil {
		return 0
	}
	return c.ReleaseDate.Year()
}

// Trailer describes a playable video attached to a catalog item.
type Trailer struct {
	Name         string `json:"name"`
	Site         string `json:"site"`
	Key          string `json:"key"`
	Type         string `json:"type"`
	Official     bool   `json:"official"`
	EmbedURL     string `json:"embedUrl,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// CategoryKind enumerates the catalog slices the metadata service can rank.
type CategoryKind string

const (
	CategoryTrending  CategoryKind = "trending"
	CategoryOriginals CategoryKind = "originals"
	CategoryTopRated  CategoryKind = "top_rated"
	CategoryGenre     CategoryKind = "genre"
)

// Category selects one ranked catalog slice. GenreID is only used with CategoryGenre.
type Category struct {
	Kind    CategoryKind `json:"kind"`
	GenreID int64        `json:"genreId,omitempty"`
}

// GenreCategory is shorthand for a genre-filtered category.
func GenreCategory(genreID int64) Category {
	return Category{Kind: CategoryGenre, GenreID: genreID}
}

// String renders the selector in the same form ParseCategory accepts.
func (c Category) String() string {
	if c.Kind == CategoryGenre {
		return "genre:" + strconv.FormatInt(c.GenreID, 10)
	}
	return string(c.Kind)
}

// ParseCategory parses selectors such as "trending", "top_rated" or "genre:28".
func ParseCategory(value string) (Category, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	switch CategoryKind(value) {
	case CategoryTrending, CategoryOriginals, CategoryTopRated:
		return Category{Kind: CategoryKind(value)}, true
	}
	rest, ok := strings.CutPrefix(value, "genre:")
	if !ok {
		return Category{}, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return Category{}, false
	}
	return GenreCategory(id), true
}

// CatalogPage is one page of a paginated upstream listing such as search results.
type CatalogPage struct {
	Items        []CatalogItem `json:"items"`
	Page         int           `json:"page"`
	TotalPages   int           `json:"totalPages"`
	TotalResults int           `json:"totalResults"`
}
