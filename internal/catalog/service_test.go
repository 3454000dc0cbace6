// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package catalog

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reelvault/reelvault/pkg/errutil"
)

// memoryRepo is an in-memory Repository for service tests.
type memoryRepo struct {
	mu     sync.Mutex
	movies map[int64]Movie
	nextID int64
	err    error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{movies: map[int64]Movie{}}
}

func (r *memoryRepo) List(_ context.Context, f Filter) ([]Movie, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, 0, r.err
	}
	var matched []Movie
	for _, m := range r.movies {
		if contains(m.Title, f.Title) && contains(m.Director, f.Director) && contains(m.Producer, f.Producer) {
			matched = append(matched, m)
		}
	}
	slices.SortFunc(matched, func(a, b Movie) int { return int(a.ID - b.ID) })
	total := len(matched)
	start := min(f.Offset, total)
	end := min(start+f.Limit, total)
	return matched[start:end], total, nil
}

func contains(value, sub string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(sub))
}

func (r *memoryRepo) Get(_ context.Context, id int64) (*Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	m, ok := r.movies[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (r *memoryRepo) episodeOwner(ep *int) (int64, bool) {
	if ep == nil {
		return 0, false
	}
	for id, m := range r.movies {
		if m.EpisodeID != nil && *m.EpisodeID == *ep {
			return id, true
		}
	}
	return 0, false
}

func (r *memoryRepo) Create(_ context.Context, m *Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.episodeOwner(m.EpisodeID); taken {
		return ErrEpisodeTaken
	}
	r.nextID++
	m.ID = r.nextID
	r.movies[m.ID] = *m
	return nil
}

func (r *memoryRepo) Update(_ context.Context, m *Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.movies[m.ID]; !ok {
		return ErrNotFound
	}
	if owner, taken := r.episodeOwner(m.EpisodeID); taken && owner != m.ID {
		return ErrEpisodeTaken
	}
	r.movies[m.ID] = *m
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.movies[id]; !ok {
		return ErrNotFound
	}
	delete(r.movies, id)
	return nil
}

func (r *memoryRepo) UpsertByEpisode(_ context.Context, m *Movie) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, ok := r.episodeOwner(m.EpisodeID); ok {
		m.ID = owner
		r.movies[owner] = *m
		return false, nil
	}
	r.nextID++
	m.ID = r.nextID
	r.movies[m.ID] = *m
	return true, nil
}

type stubSource struct {
	films []Film
	err   error
}

func (s stubSource) Films(context.Context) ([]Film, error) { return s.films, s.err }

func newTestService(t *testing.T, source FilmSource) (*Service, *memoryRepo) {
	t.Helper()
	repo := newMemoryRepo()
	svc, err := NewService(repo, source, nil)
	require.NoError(t, err)
	return svc, repo
}

func TestNewService_RequiresRepository(t *testing.T) {
	_, err := NewService(nil, nil, nil)
	errutil.AssertErrorCode(t, err, "CATALOG_SERVICE_INVALID")
}

func TestService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	created, err := svc.Create(ctx, MovieInput{Title: "A New Hope", EpisodeID: intPtr(4), ReleaseDate: "1977-05-25"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "A New Hope", got.Title)

	_, err = svc.Create(ctx, MovieInput{Title: "Duplicate", EpisodeID: intPtr(4)})
	errutil.AssertErrorKind(t, err, errutil.KindConflict)
	errutil.AssertErrorCode(t, err, CodeEpisodeTaken)
}

func TestService_GetMissing(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Get(context.Background(), 42)
	errutil.AssertErrorKind(t, err, errutil.KindNotFound)
	assert.Equal(t, "Movie with ID 42 not found.", errutil.PublicMessage(err, ""))
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	for i, title := range []string{"A New Hope", "The Empire Strikes Back", "Return of the Jedi", "The Phantom Menace"} {
		_, err := svc.Create(ctx, MovieInput{Title: title, EpisodeID: intPtr(i + 1)})
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 4, page.Count)
	assert.Equal(t, 10, page.Limit)
	assert.Len(t, page.Results, 4)

	page, err = svc.List(ctx, Filter{Title: "THE", Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 3, page.Count, "count is the total, not the page length")
	assert.Len(t, page.Results, 1)

	page, err = svc.List(ctx, Filter{Title: "nothing"})
	require.NoError(t, err)
	assert.NotNil(t, page.Results)
	assert.Empty(t, page.Results)

	_, err = svc.List(ctx, Filter{Limit: 500})
	errutil.AssertErrorKind(t, err, errutil.KindValidation)
}

func TestService_ListStorageFailure(t *testing.T) {
	svc, repo := newTestService(t, nil)
	repo.err = errors.New("connection reset")

	_, err := svc.List(context.Background(), Filter{})
	errutil.AssertErrorKind(t, err, errutil.KindInternal)
	errutil.AssertErrorCode(t, err, "CATALOG_LIST_FAILED")
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	first, err := svc.Create(ctx, MovieInput{Title: "Episode IV", EpisodeID: intPtr(4)})
	require.NoError(t, err)
	second, err := svc.Create(ctx, MovieInput{Title: "Episode V", EpisodeID: intPtr(5)})
	require.NoError(t, err)

	res, err := svc.Update(ctx, first.ID, MovieUpdate{Title: strPtr("A New Hope")})
	require.NoError(t, err)
	assert.Equal(t, MsgMovieUpdated, res.Message)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "A New Hope", res.Movie.Title)

	_, err = svc.Update(ctx, second.ID, MovieUpdate{EpisodeID: intPtr(4)})
	errutil.AssertErrorKind(t, err, errutil.KindConflict)

	_, err = svc.Update(ctx, 999, MovieUpdate{Title: strPtr("Ghost")})
	errutil.AssertErrorKind(t, err, errutil.KindNotFound)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)
	m, err := svc.Create(ctx, MovieInput{Title: "Solo"})
	require.NoError(t, err)

	res, err := svc.Delete(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Movie with ID 1 deleted successfully.", res.Message)

	_, err = svc.Delete(ctx, m.ID)
	errutil.AssertErrorKind(t, err, errutil.KindNotFound)
	assert.Equal(t, "Movie with ID 1 not found.", errutil.PublicMessage(err, ""))
}

func TestService_Sync(t *testing.T) {
	ctx := context.Background()
	source := stubSource{films: []Film{
		{Title: "A New Hope", EpisodeID: 4, Director: "George Lucas"},
		{Title: "The Empire Strikes Back", EpisodeID: 5},
		{Title: "", EpisodeID: 6},
		{Title: "Untitled", EpisodeID: 0},
	}}
	svc, repo := newTestService(t, source)

	_, err := svc.Create(ctx, MovieInput{Title: "Star Wars", EpisodeID: intPtr(4)})
	require.NoError(t, err)

	res, err := svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, "Movies synced from SWAPI: 1 created, 1 updated", res.Message)

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "A New Hope", got.Title, "existing episode is overwritten")

	res, err = svc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 2, res.Updated, "sync is idempotent")
}

func TestService_SyncFailures(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.Sync(context.Background())
	errutil.AssertErrorCode(t, err, CodeSyncFailed)

	svc, _ = newTestService(t, stubSource{err: errors.New("swapi down")})
	_, err = svc.Sync(context.Background())
	errutil.AssertErrorCode(t, err, CodeSyncFailed)
	errutil.AssertErrorKind(t, err, errutil.KindInternal)
}
