// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/oops"

	"github.com/reelvault/reelvault/pkg/errutil"
)

// Response messages.
const (
	MsgMovieUpdated = "Movie updated successfully"
	MsgEpisodeTaken = "A movie with this episode already exists"
)

// UpdateResult is the response to an update.
type UpdateResult struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Movie      *Movie `json:"movie"`
}

// DeleteResult is the response to a delete.
type DeleteResult struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// SyncResult reports what a SWAPI sync changed.
type SyncResult struct {
	Message string `json:"message"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
}

// Service implements catalog operations over a Repository.
type Service struct {
	repo   Repository
	source FilmSource
	logger *slog.Logger
}

// NewService creates a Service. source may be nil, in which case Sync fails.
func NewService(repo Repository, source FilmSource, logger *slog.Logger) (*Service, error) {
	if repo == nil {
		return nil, oops.Code("CATALOG_SERVICE_INVALID").Errorf("movie repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, source: source, logger: logger}, nil
}

// List returns a page of movies matching f.
func (s *Service) List(ctx context.Context, f Filter) (*Page, error) {
	f, err := f.Normalize()
	if err != nil {
		return nil, err
	}
	movies, count, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, oops.Code("CATALOG_LIST_FAILED").In("catalog").Wrap(err)
	}
	if movies == nil {
		movies = []Movie{}
	}
	return &Page{Results: movies, Page: f.PageNumber(), Count: count, Limit: f.Limit}, nil
}

// Get returns one movie.
func (s *Service) Get(ctx context.Context, id int64) (*Movie, error) {
	m, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, movieNotFound(id)
	}
	if err != nil {
		return nil, oops.Code("CATALOG_GET_FAILED").In("catalog").With("id", id).Wrap(err)
	}
	return m, nil
}

// Create validates in and stores a new movie.
func (s *Service) Create(ctx context.Context, in MovieInput) (*Movie, error) {
	m, err := in.toMovie()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		if errors.Is(err, ErrEpisodeTaken) {
			return nil, episodeTaken(m.EpisodeID)
		}
		return nil, oops.Code("CATALOG_CREATE_FAILED").In("catalog").Wrap(err)
	}
	s.logger.InfoContext(ctx, "movie created", "movie_id", m.ID, "title", m.Title)
	return m, nil
}

// Update applies u to an existing movie.
func (s *Service) Update(ctx context.Context, id int64, u MovieUpdate) (*UpdateResult, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := u.applyTo(m); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, m); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, movieNotFound(id)
		case errors.Is(err, ErrEpisodeTaken):
			return nil, episodeTaken(m.EpisodeID)
		}
		return nil, oops.Code("CATALOG_UPDATE_FAILED").In("catalog").With("id", id).Wrap(err)
	}
	return &UpdateResult{StatusCode: 200, Message: MsgMovieUpdated, Movie: m}, nil
}

// Delete removes a movie.
func (s *Service) Delete(ctx context.Context, id int64) (*DeleteResult, error) {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, movieNotFound(id)
	}
	if err != nil {
		return nil, oops.Code("CATALOG_DELETE_FAILED").In("catalog").With("id", id).Wrap(err)
	}
	s.logger.InfoContext(ctx, "movie deleted", "movie_id", id)
	return &DeleteResult{
		StatusCode: 200,
		Message:    fmt.Sprintf("Movie with ID %d deleted successfully.", id),
	}, nil
}

// Sync pulls every film from the source and upserts it by episode ID.
// Films without an episode ID or title are skipped.
func (s *Service) Sync(ctx context.Context) (*SyncResult, error) {
	if s.source == nil {
		return nil, oops.Code(CodeSyncFailed).In("catalog").Errorf("no film source configured")
	}
	films, err := s.source.Films(ctx)
	if err != nil {
		return nil, oops.Code(CodeSyncFailed).In("catalog").Wrap(err)
	}

	var res SyncResult
	for _, film := range films {
		if film.EpisodeID <= 0 || film.Title == "" {
			res.Skipped++
			continue
		}
		created, err := s.repo.UpsertByEpisode(ctx, film.toMovie())
		if err != nil {
			return nil, oops.Code(CodeSyncFailed).In("catalog").
				With("episode_id", film.EpisodeID).
				Wrap(err)
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	res.Message = fmt.Sprintf("Movies synced from SWAPI: %d created, %d updated", res.Created, res.Updated)
	s.logger.InfoContext(ctx, "catalog synced",
		"created", res.Created, "updated", res.Updated, "skipped", res.Skipped)
	return &res, nil
}

func movieNotFound(id int64) error {
	return errutil.NotFound(CodeMovieNotFound).In("catalog").
		With("id", id).
		Public(fmt.Sprintf("Movie with ID %d not found.", id)).
		Errorf("movie %d not found", id)
}

func episodeTaken(ep *int) error {
	b := errutil.Conflict(CodeEpisodeTaken).In("catalog").Public(MsgEpisodeTaken)
	if ep != nil {
		b = b.With("episode_id", *ep)
	}
	return b.Errorf("episode already exists")
}
