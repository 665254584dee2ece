package main

import (
	"context"
	"fmt"

	"github.com/ocelot/tunesd/internal/repositories"
	"github.com/ocelot/tunesd/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) openCache() (*repositories.LookupCacheRepository, func(), error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return repositories.NewLookupCacheRepository(db), func() { db.Close() }, nil
}

// CacheStats prints the lookup cache entry counts.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.openCache()
	if err != nil {
		return err
	}
	defer closeDB()

	recordings, releases, err := repo.Stats()
	if err != nil {
		return err
	}

	r.writePlain("Lookup cache: %s\n", r.config.Database.Path)
	r.writePlain("  Recordings: %d\n", recordings)
	r.writePlain("  Releases:   %d\n", releases)
	return nil
}

// CacheClear removes every cached directory lookup.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.openCache()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := repo.Clear(); err != nil {
		return err
	}

	r.logger.Info("lookup cache cleared", "path", r.config.Database.Path)
	r.writePlain("✓ Lookup cache cleared\n")
	return nil
}

// cacheCommand inspects and clears the directory lookup cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the metadata lookup cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cached lookup counts",
				Action: r.CacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Delete all cached lookups",
				Action: r.CacheClear,
			},
		},
	}
}
