// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package store

import (
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsFS_EmbeddedFiles(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, entry := range entries {
		names[entry.Name()] = true
	}

	for _, expected := range []string{
		"000001_create_identities.up.sql",
		"000001_create_identities.down.sql",
		"000002_create_credentials.up.sql",
		"000002_create_credentials.down.sql",
		"000003_create_movies.up.sql",
		"000003_create_movies.down.sql",
	} {
		assert.True(t, names[expected], "should contain %s", expected)
	}

	pattern := regexp.MustCompile(`^\d{6}_\w+\.(up|down)\.sql$`)
	for name := range names {
		assert.True(t, pattern.MatchString(name), "file %s should match NNNNNN_name.(up|down).sql", name)
	}
}

func TestMigrations_Ordered(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	assert.Equal(t, Migration{Version: 1, Name: "000001_create_identities"}, migrations[0])
	assert.Equal(t, Migration{Version: 2, Name: "000002_create_credentials"}, migrations[1])
	assert.Equal(t, Migration{Version: 3, Name: "000003_create_movies"}, migrations[2])

	migrations[0].Name = "mutated"
	again, err := Migrations()
	require.NoError(t, err)
	assert.Equal(t, "000001_create_identities", again[0].Name, "callers must not mutate the cache")
}

func TestLoadMigrations_SkipsUnexpectedFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/000010_later.up.sql":   {},
		"migrations/000002_first.up.sql":   {},
		"migrations/000002_first.down.sql": {},
		"migrations/README.md":             {},
		"migrations/notes.up.sql":          {},
	}

	migrations, err := loadMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []Migration{
		{Version: 2, Name: "000002_first"},
		{Version: 10, Name: "000010_later"},
	}, migrations)
}
