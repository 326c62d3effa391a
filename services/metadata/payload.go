package metadata

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"streamfront/models"
)

const tmdbDateLayout = "2006-01-02"

type tmdbGenre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type tmdbCompany struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	LogoPath *string `json:"logo_path"`
}

// tmdbItem covers both the movie details payload and list entries. TV entries
// use name/first_air_date instead of title/release_date.
type tmdbItem struct {
	ID                  int64         `json:"id"`
	Title               string        `json:"title"`
	Name                string        `json:"name"`
	PosterPath          *string       `json:"poster_path"`
	BackdropPath        *string       `json:"backdrop_path"`
	Overview            string        `json:"overview"`
	ReleaseDate         string        `json:"release_date"`
	FirstAirDate        string        `json:"first_air_date"`
	Runtime             *int          `json:"runtime"`
	VoteAverage         float64       `json:"vote_average"`
	Genres              []tmdbGenre   `json:"genres"`
	ProductionCompanies []tmdbCompany `json:"production_companies"`
}

type tmdbList struct {
	Page         int        `json:"page"`
	Results      []tmdbItem `json:"results"`
	TotalPages   int        `json:"total_pages"`
	TotalResults int        `json:"total_results"`
}

type tmdbVideo struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

type tmdbVideos struct {
	Results []tmdbVideo `json:"results"`
}

type tmdbStatus struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// tmdbNotFoundCode is TMDB's status_code for an unknown resource.
const tmdbNotFoundCode = 34

// toCatalogItem validates a raw payload and converts it into the catalog schema.
func (raw tmdbItem) toCatalogItem(op string) (models.CatalogItem, error) {
	if raw.ID <= 0 {
		return models.CatalogItem{}, &ParseError{Op: op, Field: "id", Err: fmt.Errorf("invalid id %d", raw.ID)}
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = strings.TrimSpace(raw.Name)
	}
	if title == "" {
		return models.CatalogItem{}, &ParseError{Op: op, Field: "title", Err: errors.New("missing title")}
	}

	item := models.CatalogItem{
		ID:                  raw.ID,
		Title:               title,
		PosterPath:          deref(raw.PosterPath),
		BackdropPath:        deref(raw.BackdropPath),
		Overview:            raw.Overview,
		VoteAverage:         raw.VoteAverage,
		Genres:              make([]models.Genre, 0, len(raw.Genres)),
		ProductionCompanies: make([]models.ProductionCompany, 0, len(raw.ProductionCompanies)),
	}

	dateValue := strings.TrimSpace(raw.ReleaseDate)
	if dateValue == "" {
		dateValue = strings.TrimSpace(raw.FirstAirDate)
	}
	if dateValue != "" {
		released, err := time.Parse(tmdbDateLayout, dateValue)
		if err != nil {
			return models.CatalogItem{}, &ParseError{Op: op, Field: "release_date", Err: err}
		}
		item.ReleaseDate = &released
	}

	if raw.Runtime != nil {
		if *raw.Runtime < 0 {
			return models.CatalogItem{}, &ParseError{Op: op, Field: "runtime", Err: fmt.Errorf("negative runtime %d", *raw.Runtime)}
		}
		runtime := *raw.Runtime
		item.RuntimeMinutes = &runtime
	}

	for _, g := range raw.Genres {
		item.Genres = append(item.Genres, models.Genre{ID: g.ID, Name: g.Name})
	}
	for _, c := range raw.ProductionCompanies {
		item.ProductionCompanies = append(item.ProductionCompanies, models.ProductionCompany{
			ID:       c.ID,
			Name:     c.Name,
			LogoPath: deref(c.LogoPath),
		})
	}

	return item, nil
}

func (raw tmdbList) toCatalogItems(op string) ([]models.CatalogItem, error) {
	items := make([]models.CatalogItem, 0, len(raw.Results))
	for _, result := range raw.Results {
		item, err := result.toCatalogItem(op)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
