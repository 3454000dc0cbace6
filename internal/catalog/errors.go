// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package catalog

import "errors"

// ErrNotFound is returned by repositories for missing movies.
var ErrNotFound = errors.New("movie not found")

// ErrEpisodeTaken is returned by repositories when another movie already
// holds the episode ID.
var ErrEpisodeTaken = errors.New("episode already exists")

// Error codes.
const (
	CodeInvalidInput  = "CATALOG_INVALID_INPUT"
	CodeMovieNotFound = "CATALOG_MOVIE_NOT_FOUND"
	CodeEpisodeTaken  = "CATALOG_EPISODE_TAKEN"
	CodeSyncFailed    = "CATALOG_SYNC_FAILED"
)
