// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

// Package catalog manages the movie catalog and its synchronization with SWAPI.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/reelvault/reelvault/pkg/errutil"
)

// Movie is a catalog entry.
type Movie struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	EpisodeID    *int       `json:"episodeId"`
	OpeningCrawl string     `json:"openingCrawl"`
	Director     string     `json:"director"`
	Producer     string     `json:"producer"`
	ReleaseDate  *time.Time `json:"releaseDate"`
	Characters   []string   `json:"characters"`
	Planets      []string   `json:"planets"`
	Starships    []string   `json:"starships"`
	Vehicles     []string   `json:"vehicles"`
	Species      []string   `json:"species"`
	URL          string     `json:"url"`
	Created      time.Time  `json:"created"`
	Edited       time.Time  `json:"edited"`
}

// normalizeLists replaces nil lists with empty ones so they serialize as [].
func (m *Movie) normalizeLists() {
	for _, list := range []*[]string{&m.Characters, &m.Planets, &m.Starships, &m.Vehicles, &m.Species} {
		if *list == nil {
			*list = []string{}
		}
	}
}

// MovieInput is the body of a create request.
type MovieInput struct {
	Title        string   `json:"title"`
	EpisodeID    *int     `json:"episodeId,omitempty"`
	OpeningCrawl string   `json:"openingCrawl"`
	Director     string   `json:"director"`
	Producer     string   `json:"producer"`
	ReleaseDate  string   `json:"releaseDate"`
	Characters   []string `json:"characters,omitempty"`
	Planets      []string `json:"planets,omitempty"`
	Starships    []string `json:"starships,omitempty"`
	Vehicles     []string `json:"vehicles,omitempty"`
	Species      []string `json:"species,omitempty"`
	URL          string   `json:"url,omitempty"`
}

// MovieUpdate is the body of an update request. Nil fields are left unchanged.
type MovieUpdate struct {
	Title        *string   `json:"title,omitempty"`
	EpisodeID    *int      `json:"episodeId,omitempty"`
	OpeningCrawl *string   `json:"openingCrawl,omitempty"`
	Director     *string   `json:"director,omitempty"`
	Producer     *string   `json:"producer,omitempty"`
	ReleaseDate  *string   `json:"releaseDate,omitempty"`
	Characters   *[]string `json:"characters,omitempty"`
	Planets      *[]string `json:"planets,omitempty"`
	Starships    *[]string `json:"starships,omitempty"`
	Vehicles     *[]string `json:"vehicles,omitempty"`
	Species      *[]string `json:"species,omitempty"`
	URL          *string   `json:"url,omitempty"`
}

// Repository persists movies.
type Repository interface {
	// List returns one page of movies matching f and the total match count.
	List(ctx context.Context, f Filter) ([]Movie, int, error)

	// Get returns the movie or an error wrapping ErrNotFound.
	Get(ctx context.Context, id int64) (*Movie, error)

	// Create inserts m and fills in its ID and timestamps.
	Create(ctx context.Context, m *Movie) error

	// Update overwrites m and refreshes its edited time.
	Update(ctx context.Context, m *Movie) error

	// Delete removes the movie or returns an error wrapping ErrNotFound.
	Delete(ctx context.Context, id int64) error

	// UpsertByEpisode inserts m or replaces the movie with the same episode
	// ID. It reports whether a new row was created.
	UpsertByEpisode(ctx context.Context, m *Movie) (bool, error)
}

func (in MovieInput) toMovie() (*Movie, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalidMovie("title", "title should not be empty")
	}
	if err := checkEpisode(in.EpisodeID); err != nil {
		return nil, err
	}
	release, err := parseReleaseDate(in.ReleaseDate)
	if err != nil {
		return nil, err
	}

	m := &Movie{
		Title:        title,
		EpisodeID:    in.EpisodeID,
		OpeningCrawl: in.OpeningCrawl,
		Director:     strings.TrimSpace(in.Director),
		Producer:     strings.TrimSpace(in.Producer),
		ReleaseDate:  release,
		Characters:   in.Characters,
		Planets:      in.Planets,
		Starships:    in.Starships,
		Vehicles:     in.Vehicles,
		Species:      in.Species,
		URL:          strings.TrimSpace(in.URL),
	}
	m.normalizeLists()
	return m, nil
}

func (u MovieUpdate) applyTo(m *Movie) error {
	if u.Title != nil {
		title := strings.TrimSpace(*u.Title)
		if title == "" {
			return invalidMovie("title", "title should not be empty")
		}
		m.Title = title
	}
	if u.EpisodeID != nil {
		if err := checkEpisode(u.EpisodeID); err != nil {
			return err
		}
		m.EpisodeID = u.EpisodeID
	}
	if u.ReleaseDate != nil {
		release, err := parseReleaseDate(*u.ReleaseDate)
		if err != nil {
			return err
		}
		m.ReleaseDate = release
	}
	setString(&m.OpeningCrawl, u.OpeningCrawl)
	setString(&m.Director, u.Director)
	setString(&m.Producer, u.Producer)
	setString(&m.URL, u.URL)
	setList(&m.Characters, u.Characters)
	setList(&m.Planets, u.Planets)
	setList(&m.Starships, u.Starships)
	setList(&m.Vehicles, u.Vehicles)
	setList(&m.Species, u.Species)
	m.normalizeLists()
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setList(dst *[]string, src *[]string) {
	if src != nil {
		*dst = *src
	}
}

func checkEpisode(ep *int) error {
	if ep != nil && *ep <= 0 {
		return invalidMovie("episodeId", "episodeId must be a positive number")
	}
	return nil
}

// parseReleaseDate accepts YYYY-MM-DD or RFC 3339. Empty means unknown.
func parseReleaseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d, nil
		}
	}
	return nil, invalidMovie("releaseDate", "releaseDate must be a valid ISO 8601 date string")
}

func invalidMovie(field, msg string) error {
	return errutil.Validation(CodeInvalidInput).In("catalog").
		With("field", field).
		Public(msg).
		Errorf("invalid %s", field)
}
