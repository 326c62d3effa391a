package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"streamfront/models"
)

const (
	// netflixNetworkID is TMDB's network id used for the "originals" row.
	netflixNetworkID = "213"

	defaultTimeout = 10 * time.Second
)

// Client is a stateless TMDB reader. It performs no caching and no retries;
// every failure is returned to the caller.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   normalizeLanguage(language),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// FetchByID returns the full record for a movie. Unknown ids fail with ErrNotFound.
func (c *Client) FetchByID(ctx context.Context, id int64) (models.CatalogItem, error) {
	if id <= 0 {
		return models.CatalogItem{}, fmt.Errorf("movie %d: %w", id, ErrNotFound)
	}
	op := "movie details"
	var raw tmdbItem
	if err := c.get(ctx, op, "/movie/"+strconv.FormatInt(id, 10), nil, &raw); err != nil {
		return models.CatalogItem{}, err
	}
	return raw.toCatalogItem(op)
}

// FetchByCategory returns a ranked slice in upstream order.
func (c *Client) FetchByCategory(ctx context.Context, category models.Category) ([]models.CatalogItem, error) {
	var (
		path   string
		params = url.Values{}
	)
	switch category.Kind {
	case models.CategoryTrending:
		path = "/trending/movie/week"
	case models.CategoryOriginals:
		path = "/discover/tv"
		params.Set("with_networks", netflixNetworkID)
	case models.CategoryTopRated:
		path = "/movie/top_rated"
	case models.CategoryGenre:
		if category.GenreID <= 0 {
			return nil, fmt.Errorf("category %s: %w", category, ErrNotFound)
		}
		path = "/discover/movie"
		params.Set("with_genres", strconv.FormatInt(category.GenreID, 10))
	default:
		return nil, fmt.Errorf("category %q: %w", category.Kind, ErrNotFound)
	}

	op := "category " + category.String()
	var raw tmdbList
	if err := c.get(ctx, op, path, params, &raw); err != nil {
		return nil, err
	}
	return raw.toCatalogItems(op)
}

// FetchByGenre returns movies for a TMDB genre id.
func (c *Client) FetchByGenre(ctx context.Context, genreID int64) ([]models.CatalogItem, error) {
	return c.FetchByCategory(ctx, models.GenreCategory(genreID))
}

// FetchSimilar returns movies TMDB considers related to id, in upstream order.
func (c *Client) FetchSimilar(ctx context.Context, id int64) ([]models.CatalogItem, error) {
	if id <= 0 {
		return nil, fmt.Errorf("movie %d: %w", id, ErrNotFound)
	}
	op := "similar"
	var raw tmdbList
	if err := c.get(ctx, op, "/movie/"+strconv.FormatInt(id, 10)+"/similar", nil, &raw); err != nil {
		return nil, err
	}
	return raw.toCatalogItems(op)
}

// Search runs a movie title search and returns one page of results.
func (c *Client) Search(ctx context.Context, query string, page int) (models.CatalogPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.CatalogPage{}, errors.New("query must not be empty")
	}
	if page <= 0 {
		page = 1
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("include_adult", "false")

	op := "search"
	var raw tmdbList
	if err := c.get(ctx, op, "/search/movie", params, &raw); err != nil {
		return models.CatalogPage{}, err
	}
	items, err := raw.toCatalogItems(op)
	if err != nil {
		return models.CatalogPage{}, err
	}
	return models.CatalogPage{
		Items:        items,
		Page:         raw.Page,
		TotalPages:   raw.TotalPages,
		TotalResults: raw.TotalResults,
	}, nil
}

// FetchTrailers returns the YouTube trailers and teasers for a movie, official
// trailers first, otherwise keeping upstream order.
func (c *Client) FetchTrailers(ctx context.Context, id int64) ([]models.Trailer, error) {
	if id <= 0 {
		return nil, fmt.Errorf("movie %d: %w", id, ErrNotFound)
	}
	var raw tmdbVideos
	if err := c.get(ctx, "videos", "/movie/"+strconv.FormatInt(id, 10)+"/videos", nil, &raw); err != nil {
		return nil, err
	}

	trailers := make([]models.Trailer, 0, len(raw.Results))
	for _, video := range raw.Results {
		if !strings.EqualFold(video.Site, "YouTube") || strings.TrimSpace(video.Key) == "" {
			continue
		}
		if video.Type != "Trailer" && video.Type != "Teaser" {
			continue
		}
		trailers = append(trailers, models.Trailer{
			Name:         video.Name,
			Site:         "YouTube",
			Key:          video.Key,
			Type:         video.Type,
			Official:     video.Official,
			EmbedURL:     fmt.Sprintf("https://www.youtube.com/embed/%s", video.Key),
			ThumbnailURL: fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", video.Key),
		})
	}
	sort.SliceStable(trailers, func(i, j int) bool {
		return trailerPriority(trailers[i]) < trailerPriority(trailers[j])
	})
	return trailers, nil
}

func trailerPriority(t models.Trailer) int {
	score := 0
	if t.Type != "Trailer" {
		score += 2
	}
	if !t.Official {
		score++
	}
	return score
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var status tmdbStatus
		if json.Unmarshal(body, &status) == nil && status.StatusCode == tmdbNotFoundCode {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		log.Printf("[metadata] %s returned %d (latency=%v)", op, resp.StatusCode, latency)
		return &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ParseError{Op: op, Err: err}
	}
	return nil
}
