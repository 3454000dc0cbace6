// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Reelvault Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/reelvault/reelvault/internal/auth"
	authpg "github.com/reelvault/reelvault/internal/auth/postgres"
	"github.com/reelvault/reelvault/internal/catalog"
	"github.com/reelvault/reelvault/pkg/errutil"
)

// Default timeout for seed command.
const defaultSeedTimeout = 30 * time.Second

// seedFile is the YAML document read by the seed command.
type seedFile struct {
	Users  []seedUser  `yaml:"users"`
	Movies []seedMovie `yaml:"movies"`
}

type seedUser struct {
	FullName string `yaml:"full_name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type seedMovie struct {
	Title        string   `yaml:"title"`
	EpisodeID    *int     `yaml:"episode_id"`
	OpeningCrawl string   `yaml:"opening_crawl"`
	Director     string   `yaml:"director"`
	Producer     string   `yaml:"producer"`
	ReleaseDate  string   `yaml:"release_date"`
	Characters   []string `yaml:"characters"`
	Planets      []string `yaml:"planets"`
	Starships    []string `yaml:"starships"`
	Vehicles     []string `yaml:"vehicles"`
	Species      []string `yaml:"species"`
	URL          string   `yaml:"url"`
}

func (m seedMovie) input() catalog.MovieInput {
	return catalog.MovieInput{
		Title:        m.Title,
		EpisodeID:    m.EpisodeID,
		OpeningCrawl: m.OpeningCrawl,
		Director:     m.Director,
		Producer:     m.Producer,
		ReleaseDate:  m.ReleaseDate,
		Characters:   m.Characters,
		Planets:      m.Planets,
		Starships:    m.Starships,
		Vehicles:     m.Vehicles,
		Species:      m.Species,
		URL:          m.URL,
	}
}

// registrar creates accounts with the default role.
type registrar interface {
	RegisterUser(ctx context.Context, in auth.RegisterInput) (*auth.RegisterResult, error)
}

// roleAssigner promotes seeded accounts.
type roleAssigner interface {
	FindByEmail(ctx context.Context, email string) (*auth.Identity, error)
	SetRole(ctx context.Context, id ulid.ULID, role auth.Role) error
}

// movieCreator stores seeded movies.
type movieCreator interface {
	Create(ctx context.Context, in catalog.MovieInput) (*catalog.Movie, error)
}

// seeder applies a seedFile. Entries that already exist are skipped apart
// from their listed role, so running it twice is harmless.
type seeder struct {
	users  registrar
	roles  roleAssigner
	movies movieCreator
	out    io.Writer
}

// seedReport counts what a run changed.
type seedReport struct {
	UsersCreated  int
	UsersSkipped  int
	MoviesCreated int
	MoviesSkipped int
}

// NewSeedCmd creates the seed subcommand.
func NewSeedCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "seed FILE",
		Short: "Load users and movies from a YAML file",
		Long: `Creates the users and movies listed in FILE. Users go through the same
validation as public registration and are then given their listed role.
This command is idempotent - existing emails and episodes are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args[0], timeout)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", defaultSeedTimeout, "timeout for database operations (e.g., 30s, 1m)")
	return cmd
}

func runSeed(cmd *cobra.Command, path string, timeout time.Duration) error {
	file, err := loadSeedFile(path)
	if err != nil {
		return err
	}
	cfg, err := loadCommandConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := cfg.Logger(serviceName)
	if err != nil {
		return err
	}

	// Use cmd.Context() to respect SIGINT/SIGTERM signals
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	tokens, err := newTokenIssuer(cfg, logger)
	if err != nil {
		return err
	}
	authSvc, err := newAuthService(cfg, pool, tokens, logger)
	if err != nil {
		return err
	}
	catalogSvc, err := newCatalogService(cfg, pool, logger)
	if err != nil {
		return err
	}

	s := &seeder{
		users:  authSvc,
		roles:  authpg.NewIdentityRepository(pool),
		movies: catalogSvc,
		out:    cmd.OutOrStdout(),
	}
	report, err := s.apply(ctx, file)
	if err != nil {
		return err
	}
	cmd.Printf("Seed complete: %d users created, %d skipped; %d movies created, %d skipped\n",
		report.UsersCreated, report.UsersSkipped, report.MoviesCreated, report.MoviesSkipped)
	return nil
}

// loadSeedFile reads and parses a seed document.
func loadSeedFile(path string) (*seedFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, oops.Code("SEED_READ_FAILED").With("path", path).Wrap(err)
	}
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, oops.Code("SEED_PARSE_FAILED").With("path", path).Wrap(err)
	}
	for i, u := range file.Users {
		if u.Role == "" {
			continue
		}
		if _, err := auth.ParseRole(u.Role); err != nil {
			return nil, oops.Code("SEED_PARSE_FAILED").With("path", path).With("user", i).Wrap(err)
		}
	}
	return &file, nil
}

func (s *seeder) apply(ctx context.Context, file *seedFile) (seedReport, error) {
	var report seedReport

	for _, u := range file.Users {
		created, err := s.seedUser(ctx, u)
		if err != nil {
			return report, err
		}
		if created {
			report.UsersCreated++
		} else {
			report.UsersSkipped++
		}
	}

	for _, m := range file.Movies {
		_, err := s.movies.Create(ctx, m.input())
		switch {
		case err == nil:
			report.MoviesCreated++
			s.printf("created movie %q\n", m.Title)
		case errutil.KindOf(err) == errutil.KindConflict:
			report.MoviesSkipped++
			s.printf("movie %q already exists, skipping\n", m.Title)
		default:
			return report, oops.Code("SEED_FAILED").With("title", m.Title).Wrap(err)
		}
	}
	return report, nil
}

// seedUser registers u and applies its role. It reports false when the
// email is already registered; a listed role is still reconciled then, so a
// run that failed after registration is repaired by the next one.
func (s *seeder) seedUser(ctx context.Context, u seedUser) (bool, error) {
	role := auth.DefaultRole
	if u.Role != "" {
		var err error
		role, err = auth.ParseRole(u.Role)
		if err != nil {
			return false, err
		}
	}

	_, err := s.users.RegisterUser(ctx, auth.RegisterInput{
		FullName: u.FullName,
		Email:    u.Email,
		Password: u.Password,
	})
	if errutil.KindOf(err) == errutil.KindConflict {
		if u.Role == "" {
			s.printf("user %s already exists, skipping\n", u.Email)
			return false, nil
		}
		changed, err := s.applyRole(ctx, u.Email, role)
		if err != nil {
			return false, err
		}
		if changed {
			s.printf("user %s already exists, role set to %s\n", u.Email, role)
		} else {
			s.printf("user %s already exists, skipping\n", u.Email)
		}
		return false, nil
	}
	if err != nil {
		return false, oops.Code("SEED_FAILED").With("email", u.Email).Wrap(err)
	}

	if role != auth.DefaultRole {
		if _, err := s.applyRole(ctx, u.Email, role); err != nil {
			return false, err
		}
	}
	s.printf("created user %s (%s)\n", u.Email, role)
	return true, nil
}

// applyRole sets role on the account registered under email unless it
// already has it.
func (s *seeder) applyRole(ctx context.Context, email string, role auth.Role) (bool, error) {
	identity, err := s.roles.FindByEmail(ctx, auth.NormalizeEmail(email))
	if err != nil {
		return false, oops.Code("SEED_FAILED").With("email", email).Wrap(err)
	}
	if identity.Role == role {
		return false, nil
	}
	if err := s.roles.SetRole(ctx, identity.ID, role); err != nil {
		return false, oops.Code("SEED_FAILED").With("email", email).Wrap(err)
	}
	return true, nil
}

func (s *seeder) printf(format string, args ...any) {
	if s.out == nil {
		return
	}
	_, _ = fmt.Fprintf(s.out, format, args...)
}
