// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

// Package postgres stores the movie catalog in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/internal/store"
)

const movieColumns = `id, title, episode_id, opening_crawl, director, producer, release_date,
	characters, planets, starships, vehicles, species, url, created, edited`

const episodeConstraint = "movies_episode_id_key"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// MovieRepository implements catalog.Repository using PostgreSQL.
type MovieRepository struct {
	db store.DBTX
}

// NewMovieRepository creates a MovieRepository.
func NewMovieRepository(db store.DBTX) *MovieRepository {
	return &MovieRepository{db: db}
}

// List returns one page of matching movies ordered by episode, then ID,
// along with the total number of matches.
func (r *MovieRepository) List(ctx context.Context, f catalog.Filter) ([]catalog.Movie, int, error) {
	where, args := filterClause(f)

	var count int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM movies`+where, args...).Scan(&count); err != nil {
		return nil, 0, oops.Code("MOVIE_LIST_FAILED").
			With("operation", "count movies").
			Wrap(err)
	}

	n := len(args)
	query := `SELECT ` + movieColumns + ` FROM movies` + where +
		` ORDER BY episode_id NULLS LAST, id LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	rows, err := r.db.Query(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, oops.Code("MOVIE_LIST_FAILED").
			With("operation", "select movies").
			Wrap(err)
	}
	defer rows.Close()

	movies := []catalog.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, 0, oops.Code("MOVIE_LIST_FAILED").
				With("operation", "scan movie").
				Wrap(err)
		}
		movies = append(movies, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, oops.Code("MOVIE_LIST_FAILED").
			With("operation", "iterate movies").
			Wrap(err)
	}
	return movies, count, nil
}

// Get retrieves a movie by ID.
func (r *MovieRepository) Get(ctx context.Context, id int64) (*catalog.Movie, error) {
	row := r.db.QueryRow(ctx, `SELECT `+movieColumns+` FROM movies WHERE id = $1`, id)
	m, err := scanMovie(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("MOVIE_NOT_FOUND").With("id", id).Wrap(catalog.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("MOVIE_GET_FAILED").
			With("operation", "get movie").
			With("id", id).
			Wrap(err)
	}
	return m, nil
}

// Create inserts m and sets its ID.
func (r *MovieRepository) Create(ctx context.Context, m *catalog.Movie) error {
	stampNew(m)
	err := r.db.QueryRow(ctx, `
		INSERT INTO movies (title, episode_id, opening_crawl, director, producer, release_date,
			characters, planets, starships, vehicles, species, url, created, edited)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`, movieArgs(m)...).Scan(&m.ID)
	if err != nil {
		return mapWriteError(err, "insert movie", m)
	}
	return nil
}

// Update overwrites every column of m.
func (r *MovieRepository) Update(ctx context.Context, m *catalog.Movie) error {
	m.Edited = time.Now().UTC()
	tag, err := r.db.Exec(ctx, `
		UPDATE movies SET
			title = $1, episode_id = $2, opening_crawl = $3, director = $4, producer = $5,
			release_date = $6, characters = $7, planets = $8, starships = $9, vehicles = $10,
			species = $11, url = $12, created = $13, edited = $14
		WHERE id = $15
	`, append(movieArgs(m), m.ID)...)
	if err != nil {
		return mapWriteError(err, "update movie", m)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("MOVIE_NOT_FOUND").With("id", m.ID).Wrap(catalog.ErrNotFound)
	}
	return nil
}

// Delete removes a movie by ID.
func (r *MovieRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return oops.Code("MOVIE_DELETE_FAILED").
			With("operation", "delete movie").
			With("id", id).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("MOVIE_NOT_FOUND").With("id", id).Wrap(catalog.ErrNotFound)
	}
	return nil
}

// UpsertByEpisode inserts m or overwrites the movie holding its episode ID.
// xmax is zero only for freshly inserted rows.
func (r *MovieRepository) UpsertByEpisode(ctx context.Context, m *catalog.Movie) (bool, error) {
	if m.EpisodeID == nil {
		return false, oops.Code("MOVIE_UPSERT_FAILED").Errorf("episode id is required")
	}
	stampNew(m)

	var inserted bool
	err := r.db.QueryRow(ctx, `
		INSERT INTO movies (title, episode_id, opening_crawl, director, producer, release_date,
			characters, planets, starships, vehicles, species, url, created, edited)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (episode_id) DO UPDATE SET
			title = EXCLUDED.title,
			opening_crawl = EXCLUDED.opening_crawl,
			director = EXCLUDED.director,
			producer = EXCLUDED.producer,
			release_date = EXCLUDED.release_date,
			characters = EXCLUDED.characters,
			planets = EXCLUDED.planets,
			starships = EXCLUDED.starships,
			vehicles = EXCLUDED.vehicles,
			species = EXCLUDED.species,
			url = EXCLUDED.url,
			edited = EXCLUDED.edited
		RETURNING id, (xmax = 0)
	`, movieArgs(m)...).Scan(&m.ID, &inserted)
	if err != nil {
		return false, oops.Code("MOVIE_UPSERT_FAILED").
			With("episode_id", *m.EpisodeID).
			Wrap(err)
	}
	return inserted, nil
}

func filterClause(f catalog.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, "%"+likeEscaper.Replace(value)+"%")
		conds = append(conds, column+` ILIKE $`+strconv.Itoa(len(args)))
	}
	add("title", f.Title)
	add("director", f.Director)
	add("producer", f.Producer)

	if len(conds) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(conds, " AND "), args
}

func movieArgs(m *catalog.Movie) []any {
	return []any{
		m.Title,
		m.EpisodeID,
		m.OpeningCrawl,
		m.Director,
		m.Producer,
		m.ReleaseDate,
		nonNil(m.Characters),
		nonNil(m.Planets),
		nonNil(m.Starships),
		nonNil(m.Vehicles),
		nonNil(m.Species),
		m.URL,
		m.Created,
		m.Edited,
	}
}

func stampNew(m *catalog.Movie) {
	now := time.Now().UTC()
	if m.Created.IsZero() {
		m.Created = now
	}
	if m.Edited.IsZero() {
		m.Edited = now
	}
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func mapWriteError(err error, operation string, m *catalog.Movie) error {
	if constraint, ok := store.UniqueViolation(err); ok && constraint == episodeConstraint {
		b := oops.Code("MOVIE_EPISODE_EXISTS").With("constraint", constraint)
		if m.EpisodeID != nil {
			b = b.With("episode_id", *m.EpisodeID)
		}
		return b.Wrap(catalog.ErrEpisodeTaken)
	}
	return oops.Code("MOVIE_WRITE_FAILED").
		With("operation", operation).
		With("title", m.Title).
		Wrap(err)
}

func scanMovie(row pgx.Row) (*catalog.Movie, error) {
	var m catalog.Movie
	if err := row.Scan(
		&m.ID,
		&m.Title,
		&m.EpisodeID,
		&m.OpeningCrawl,
		&m.Director,
		&m.Producer,
		&m.ReleaseDate,
		&m.Characters,
		&m.Planets,
		&m.Starships,
		&m.Vehicles,
		&m.Species,
		&m.URL,
		&m.Created,
		&m.Edited,
	); err != nil {
		return nil, err //nolint:wrapcheck // callers classify ErrNoRows
	}
	m.Characters = nonNil(m.Characters)
	m.Planets = nonNil(m.Planets)
	m.Starships = nonNil(m.Starships)
	m.Vehicles = nonNil(m.Vehicles)
	m.Species = nonNil(m.Species)
	return &m, nil
}

var _ catalog.Repository = (*MovieRepository)(nil)
