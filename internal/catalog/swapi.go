// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// DefaultSWAPIURL is the public Star Wars API.
const DefaultSWAPIURL = "https://swapi.dev/api"

// maxSWAPIPages bounds pagination in case the upstream loops.
const maxSWAPIPages = 20

// Film is a film record as served by SWAPI.
type Film struct {
	Title        string   `json:"title"`
	EpisodeID    int      `json:"episode_id"`
	OpeningCrawl string   `json:"opening_crawl"`
	Director     string   `json:"director"`
	Producer     string   `json:"producer"`
	ReleaseDate  string   `json:"release_date"`
	Characters   []string `json:"characters"`
	Planets      []string `json:"planets"`
	Starships    []string `json:"starships"`
	Vehicles     []string `json:"vehicles"`
	Species      []string `json:"species"`
	Created      string   `json:"created"`
	Edited       string   `json:"edited"`
	URL          string   `json:"url"`
}

type filmPage struct {
	Next    *string `json:"next"`
	Results []Film  `json:"results"`
}

// FilmSource lists films from an upstream catalog.
type FilmSource interface {
	Films(ctx context.Context) ([]Film, error)
}

// SWAPIOptions configures a SWAPIClient.
type SWAPIOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	// MaxRetries is the number of retries after the first attempt. Zero means 3.
	MaxRetries uint64
	// Backoff is the first retry delay, doubled per retry. Zero means 500ms.
	Backoff time.Duration
	Logger  *slog.Logger
}

// SWAPIClient fetches films over HTTP, retrying network errors and 5xx
// responses with exponential backoff.
type SWAPIClient struct {
	baseURL    string
	http       *http.Client
	maxRetries uint64
	backoff    time.Duration
	logger     *slog.Logger
}

// NewSWAPIClient creates a client for opts.BaseURL.
func NewSWAPIClient(opts SWAPIOptions) (*SWAPIClient, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultSWAPIURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("swapi_url", base).Wrap(err)
	}

	c := &SWAPIClient{
		baseURL:    base,
		http:       opts.HTTPClient,
		maxRetries: opts.MaxRetries,
		backoff:    opts.Backoff,
		logger:     opts.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 15 * time.Second}
	}
	if c.maxRetries == 0 {
		c.maxRetries = 3
	}
	if c.backoff <= 0 {
		c.backoff = 500 * time.Millisecond
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Films returns every film, following pagination links.
func (c *SWAPIClient) Films(ctx context.Context) ([]Film, error) {
	next := c.baseURL + "/films/"
	var films []Film
	for range maxSWAPIPages {
		page, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		films = append(films, page.Results...)
		if page.Next == nil || *page.Next == "" {
			return films, nil
		}
		next = *page.Next
	}
	return nil, oops.Code(CodeSyncFailed).With("pages", maxSWAPIPages).Errorf("too many SWAPI pages")
}

func (c *SWAPIClient) fetchPage(ctx context.Context, pageURL string) (*filmPage, error) {
	var page filmPage
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
		if err != nil {
			return oops.Code(CodeSyncFailed).With("url", pageURL).Wrap(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			c.logger.WarnContext(ctx, "swapi request failed", "url", pageURL, "error", err)
			return retry.RetryableError(err)
		}
		defer func() {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}()

		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			c.logger.WarnContext(ctx, "swapi unavailable", "url", pageURL, "status", resp.StatusCode)
			return retry.RetryableError(fmt.Errorf("swapi returned %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return oops.Code(CodeSyncFailed).
				With("url", pageURL).
				With("status", resp.StatusCode).
				Errorf("unexpected SWAPI status")
		}

		page = filmPage{}
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			return oops.Code(CodeSyncFailed).With("url", pageURL).Wrap(err)
		}
		return nil
	})
	if err != nil {
		return nil, oops.Code(CodeSyncFailed).With("url", pageURL).Wrap(err)
	}
	return &page, nil
}

// toMovie maps a SWAPI film onto a catalog movie.
func (f Film) toMovie() *Movie {
	episode := f.EpisodeID
	m := &Movie{
		Title:        strings.TrimSpace(f.Title),
		EpisodeID:    &episode,
		OpeningCrawl: f.OpeningCrawl,
		Director:     f.Director,
		Producer:     f.Producer,
		Characters:   f.Characters,
		Planets:      f.Planets,
		Starships:    f.Starships,
		Vehicles:     f.Vehicles,
		Species:      f.Species,
		URL:          f.URL,
	}
	if release, err := parseReleaseDate(f.ReleaseDate); err == nil {
		m.ReleaseDate = release
	}
	if t, err := time.Parse(time.RFC3339Nano, f.Created); err == nil {
		m.Created = t
	}
	if t, err := time.Parse(time.RFC3339Nano, f.Edited); err == nil {
		m.Edited = t
	}
	m.normalizeLists()
	return m
}
