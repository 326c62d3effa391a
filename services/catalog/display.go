package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"streamfront/models"
)

const (
	posterSize   = "w500"
	backdropSize = "original"
	logoSize     = "w200"

	bannerOverviewLimit = 150
)

// Images builds TMDB image URLs from stored paths.
type Images struct {
	BaseURL string
}

func (i Images) url(size, path string) string {
	if path == "" {
		return ""
	}
	return strings.TrimRight(i.BaseURL, "/") + "/" + size + path
}

func (i Images) Poster(path string) string   { return i.url(posterSize, path) }
func (i Images) Backdrop(path string) string { return i.url(backdropSize, path) }
func (i Images) Logo(path string) string     { return i.url(logoSize, path) }

// Card is a poster tile used in rows, grids and search results.
type Card struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	PosterURL string `json:"posterUrl,omitempty"`
	Year      int    `json:"year,omitempty"`
	Runtime   string `json:"runtime,omitempty"`
	Rating    string `json:"rating"`
	Favorite  bool   `json:"favorite"`
}

// Carousel is a titled horizontal row of cards.
type Carousel struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Cards    []Card `json:"cards"`
}

// Banner is the hero item at the top of the home page.
type Banner struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	BackdropURL string `json:"backdropUrl,omitempty"`
	Overview    string `json:"overview"`
}

// Player carries what the browser needs to embed a trailer.
type Player struct {
	MovieID      int64  `json:"movieId"`
	Name         string `json:"name"`
	Key          string `json:"key"`
	EmbedURL     string `json:"embedUrl"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// Company is a production company with its logo URL resolved.
type Company struct {
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// FormatRuntime renders minutes as "2h 5m". Unknown or zero runtimes render empty.
func FormatRuntime(minutes *int) string {
	if minutes == nil || *minutes <= 0 {
		return ""
	}
	return fmt.Sprintf("%dh %dm", *minutes/60, *minutes%60)
}

// FormatRating renders a vote average as "7.5/10".
func FormatRating(vote float64) string {
	return strconv.FormatFloat(vote, 'f', 1, 64) + "/10"
}

// Truncate shortens s to at most limit runes, ending with "..." when cut.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	cut := limit - 3
	if cut < 0 {
		cut = 0
	}
	return strings.TrimRight(string(runes[:cut]), " ") + "..."
}

func (i Images) Card(item models.CatalogItem, favorite bool) Card {
	return Card{
		ID:        item.ID,
		Title:     item.Title,
		PosterURL: i.Poster(item.PosterPath),
		Year:      item.ReleaseYear(),
		Runtime:   FormatRuntime(item.RuntimeMinutes),
		Rating:    FormatRating(item.VoteAverage),
		Favorite:  favorite,
	}
}

// FavoriteCard renders a stored favorites entry, which carries fewer fields than a catalog item.
func (i Images) FavoriteCard(entry models.FavoriteEntry) Card {
	return Card{
		ID:        entry.ID,
		Title:     entry.Title,
		PosterURL: i.Poster(entry.PosterPath),
		Rating:    FormatRating(entry.VoteAverage),
		Favorite:  true,
	}
}

func (i Images) Cards(items []models.CatalogItem, favorites FavoriteChecker) []Card {
	cards := make([]Card, 0, len(items))
	for _, item := range items {
		cards = append(cards, i.Card(item, favorites.Contains(item.ID)))
	}
	return cards
}

func (i Images) Banner(item models.CatalogItem) Banner {
	backdrop := item.BackdropPath
	if backdrop == "" {
		backdrop = item.PosterPath
	}
	return Banner{
		ID:          item.ID,
		Title:       item.Title,
		BackdropURL: i.Backdrop(backdrop),
		Overview:    Truncate(item.Overview, bannerOverviewLimit),
	}
}

func (i Images) Companies(companies []models.ProductionCompany) []Company {
	out := make([]Company, 0, len(companies))
	for _, c := range companies {
		out = append(out, Company{Name: c.Name, LogoURL: i.Logo(c.LogoPath)})
	}
	return out
}

func newPlayer(movieID int64, t models.Trailer) Player {
	return Player{
		MovieID:      movieID,
		Name:         t.Name,
		Key:          t.Key,
		EmbedURL:     t.EmbedURL,
		ThumbnailURL: t.ThumbnailURL,
	}
}
