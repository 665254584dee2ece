package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ocelot/tunesd/internal/acquire"
	"github.com/ocelot/tunesd/internal/enrich"
	"github.com/ocelot/tunesd/internal/jobs"
	"github.com/ocelot/tunesd/internal/providers"
	"github.com/ocelot/tunesd/internal/repositories"
	"github.com/ocelot/tunesd/internal/search"
	"github.com/ocelot/tunesd/internal/shared"
	"github.com/ocelot/tunesd/internal/tracklist"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Components are wired lazily: only commands that drive downloads pay the
// cost of opening the lookup-cache database.
type Runner struct {
	config     *shared.Config
	logger     *log.Logger
	output     io.Writer
	httpClient *http.Client

	db          *sql.DB
	cache       *repositories.LookupCacheRepository
	manager     *jobs.Manager
	tracks      *tracklist.Resolver
	videoSearch *search.VideoSearcher
	albumSearch *search.AlbumSearcher
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Logger     *log.Logger
	Output     io.Writer
	HTTPClient *http.Client
}

// NewRunner creates a new Runner with the provided configuration.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		logger:     opts.Logger,
		output:     opts.Output,
		httpClient: opts.HTTPClient,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, downloadCommand, statusCommand, cancelCommand, playlistCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// components wires the provider clients, enrichment, ladder, tracklist
// resolver, and job manager. Idempotent.
func (r *Runner) components() error {
	if r.manager != nil {
		return nil
	}

	cfg := r.config
	providerTimeout := time.Duration(cfg.Providers.TimeoutSec) * time.Second

	musicBrainz := providers.NewMusicBrainzService(providers.MusicBrainzOpts{
		BaseURL:        cfg.Providers.MusicBrainzURL,
		UserAgent:      cfg.Providers.UserAgent,
		Timeout:        providerTimeout,
		RequestsPerSec: cfg.Providers.RequestsPerSec,
	})
	var directory providers.Directory = musicBrainz

	if cfg.Database.Path != "" {
		db, err := shared.NewDatabase(cfg.Database.Path)
		if err != nil {
			r.logger.Warnf("lookup cache unavailable, continuing without it: %v", err)
		} else {
			shared.ConfigureDatabase(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
			if err := shared.RunMigrations(db); err != nil {
				db.Close()
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			r.db = db
			r.cache = repositories.NewLookupCacheRepository(db)
			directory = repositories.NewCachingDirectory(directory, r.cache, r.logger)
		}
	}

	coverArt := providers.NewCoverArtService(cfg.Providers.CoverArtURL, cfg.Providers.UserAgent, providerTimeout)
	lyricSources := []providers.LyricsSource{
		providers.NewLyricsOvhService(cfg.Providers.LyricsOvhURL, providerTimeout),
		providers.NewLrclibService(cfg.Providers.LrclibURL, providerTimeout),
	}

	resolver := enrich.NewResolver(directory, coverArt, lyricSources, r.logger)

	ladder := acquire.NewLadder(acquire.LadderOpts{
		Fetcher: acquire.NewYTDLPFetcher(cfg.Tools.YTDLPPath, cfg.Tools.AudioQuality,
			time.Duration(cfg.Tools.FetchTimeoutSec)*time.Second),
		Tagger: acquire.NewFFmpegTagger(cfg.Tools.FFmpegPath,
			time.Duration(cfg.Tools.TagTimeoutSec)*time.Second, r.logger),
		Enricher:         resolver,
		Logger:           r.logger,
		InterQueryDelay:  time.Duration(cfg.Tools.InterQueryDelaySec) * time.Second,
		RateLimitBackoff: time.Duration(cfg.Tools.RateLimitBackoffSec) * time.Second,
	})

	r.tracks = tracklist.NewResolver(directory, r.logger)
	r.videoSearch = search.NewVideoSearcher(cfg.Tools.YTDLPPath, 0, r.logger)
	r.albumSearch = search.NewAlbumSearcher(musicBrainz, coverArt, r.logger)
	r.manager = jobs.NewManager(jobs.ManagerOpts{
		Acquirer:       ladder,
		Logger:         r.logger,
		OutputDir:      cfg.Downloads.OutputDir,
		MaxSongs:       cfg.Downloads.MaxSongs,
		MaxActiveJobs:  cfg.Downloads.MaxActiveJobs,
		InterSongDelay: time.Duration(cfg.Downloads.InterSongDelaySec) * time.Second,
	})

	return nil
}

func (r *Runner) close() {
	if r.db != nil {
		r.db.Close()
		r.db = nil
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
