package catalog

import (
	"strings"
	"testing"
	"unicode/utf8"

	"streamfront/models"
)

func TestFormatRuntime(t *testing.T) {
	cases := []struct {
		minutes *int
		want    string
	}{
		{nil, ""},
		{intPtr(0), ""},
		{intPtr(45), "0h 45m"},
		{intPtr(125), "2h 5m"},
		{intPtr(120), "2h 0m"},
	}
	for _, tc := range cases {
		if got := FormatRuntime(tc.minutes); got != tc.want {
			t.Errorf("FormatRuntime(%v) = %q, want %q", tc.minutes, got, tc.want)
		}
	}
}

func TestFormatRating(t *testing.T) {
	if got := FormatRating(7.456); got != "7.5/10" {
		t.Errorf("expected 7.5/10, got %q", got)
	}
	if got := FormatRating(0); got != "0.0/10" {
		t.Errorf("expected 0.0/10, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	short := "A short overview."
	if got := Truncate(short, 150); got != short {
		t.Errorf("expected unchanged, got %q", got)
	}

	long := strings.Repeat("é", 200)
	got := Truncate(long, 150)
	if utf8.RuneCountInString(got) != 150 {
		t.Errorf("expected 150 runes, got %d", utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected ellipsis, got %q", got)
	}
}

func TestImages(t *testing.T) {
	images := Images{BaseURL: "https://image.tmdb.org/t/p/"}

	if got := images.Poster("/p.jpg"); got != "https://image.tmdb.org/t/p/w500/p.jpg" {
		t.Errorf("unexpected poster url %q", got)
	}
	if got := images.Backdrop("/b.jpg"); got != "https://image.tmdb.org/t/p/original/b.jpg" {
		t.Errorf("unexpected backdrop url %q", got)
	}
	if got := images.Logo("/l.png"); got != "https://image.tmdb.org/t/p/w200/l.png" {
		t.Errorf("unexpected logo url %q", got)
	}
	if got := images.Poster(""); got != "" {
		t.Errorf("expected empty url for missing path, got %q", got)
	}
}

func TestBanner_FallsBackToPoster(t *testing.T) {
	images := Images{BaseURL: "https://img"}
	banner := images.Banner(models.CatalogItem{ID: 1, Title: "X", PosterPath: "/p.jpg", Overview: strings.Repeat("a", 300)})

	if banner.BackdropURL != "https://img/original/p.jpg" {
		t.Errorf("unexpected backdrop %q", banner.BackdropURL)
	}
	if len(banner.Overview) != 150 {
		t.Errorf("expected overview truncated to 150, got %d", len(banner.Overview))
	}
}

func intPtr(v int) *int { return &v }
