// package acquire implements the resilient acquisition ladder: the ordered
// fallback sequence of search formulations tried against the external
// acquisition tool for one song.
//
// Every failure along the way is swallowed into a failed SongOutcome; nothing
// here is fatal to the surrounding job.
package acquire

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ocelot/tunesd/internal/models"
	"github.com/ocelot/tunesd/internal/shared"
)

// MediaFetcher invokes the external acquisition tool for one search query.
// Success means the tool exited 0; the ladder still verifies the output file.
type MediaFetcher interface {
	Fetch(ctx context.Context, query, outputPath string) error
}

// Tagger finalizes container tags on an acquired file.
type Tagger interface {
	WriteTags(ctx context.Context, path string, song models.SongRecord) error
}

// Enricher augments a song record before tags are finalized.
// Satisfied by the enrich package's Resolver.
type Enricher interface {
	Enrich(ctx context.Context, song models.SongRecord) models.SongRecord
}

// Ladder drives one song through the fallback search queries.
type Ladder struct {
	fetcher  MediaFetcher
	tagger   Tagger
	enricher Enricher
	logger   *log.Logger

	interQueryDelay  time.Duration // Between queries, not after the last
	rateLimitBackoff time.Duration // Extra wait after a rate-limit/forbidden error
}

// LadderOpts configures a [Ladder].
type LadderOpts struct {
	Fetcher          MediaFetcher
	Tagger           Tagger
	Enricher         Enricher
	Logger           *log.Logger
	InterQueryDelay  time.Duration
	RateLimitBackoff time.Duration
}

// NewLadder creates a Ladder with the provided collaborators.
func NewLadder(opts LadderOpts) *Ladder {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Ladder{
		fetcher:          opts.Fetcher,
		tagger:           opts.Tagger,
		enricher:         opts.Enricher,
		logger:           opts.Logger,
		interQueryDelay:  opts.InterQueryDelay,
		rateLimitBackoff: opts.RateLimitBackoff,
	}
}

// BuildQueries returns the ordered search-query ladder for a song.
//
// An explicit query override is the sole entry. Otherwise the queries run
// from most specific phrasing to broadest recall; the first formulation most
// often lands the canonical upload.
func BuildQueries(song models.SongRecord) []string {
	song = song.Normalized()
	if song.Query != "" {
		return []string{song.Query}
	}

	return []string{
		fmt.Sprintf("%s %s official", song.Artist, song.Title),
		fmt.Sprintf("%s %s", song.Artist, song.Title),
		fmt.Sprintf("%s %s", song.Title, song.Artist),
		fmt.Sprintf("%s %s audio", song.Artist, song.Title),
		fmt.Sprintf("%s %s official audio lyrics", song.Artist, song.Title),
	}
}

// Acquire runs one song through the ladder and reports the outcome.
// The first query yielding a non-empty output file wins; exhausting every
// query yields a failed outcome naming the number of strategies tried and
// the last observed error.
func (l *Ladder) Acquire(ctx context.Context, song models.SongRecord, outputDir string) models.SongOutcome {
	song = song.Normalized()
	outputPath := filepath.Join(outputDir, song.Filename())

	l.logger.Infof("starting download: '%s - %s' -> %s", song.Artist, song.Title, outputPath)

	queries := BuildQueries(song)
	lastError := "no search queries succeeded"

	for i, query := range queries {
		l.logger.Infof("trying search query %d/%d: '%s'", i+1, len(queries), query)

		err := l.fetcher.Fetch(ctx, query, outputPath)
		if err == nil {
			if info, statErr := os.Stat(outputPath); statErr == nil && info.Size() > 0 {
				l.logger.Infof("download succeeded with query: '%s'", query)
				return l.finalize(ctx, song, outputPath)
			} else if statErr == nil {
				l.logger.Warnf("download appeared to succeed but file is empty")
				lastError = "download produced an empty file"
			} else {
				lastError = "tool reported success but produced no output file"
			}
		} else {
			lastError = truncate(err.Error(), 300)
			l.logger.Warnf("search query %d failed: %s", i+1, lastError)

			if isRateLimited(lastError) {
				l.logger.Warn("rate limit detected, backing off before next attempt")
				waitCtx(ctx, l.rateLimitBackoff)
			}
		}

		// Partial output must not leak into the next attempt.
		removeIfExists(outputPath)

		if i < len(queries)-1 {
			waitCtx(ctx, l.interQueryDelay)
		}
	}

	l.logger.Errorf("all search strategies failed, last error: %s", lastError)
	return models.SongOutcome{
		Title:  song.Title,
		Artist: song.Artist,
		Album:  song.Album,
		Status: models.OutcomeFailed,
		Error: fmt.Sprintf("No suitable video found after trying %d different search queries. Last error: %s",
			len(queries), lastError),
	}
}

// finalize enriches the record and writes tags. A file without correct tags
// is not an acceptable deliverable, so a tagging failure degrades the whole
// acquisition to a recorded failure even though the file is materialized.
func (l *Ladder) finalize(ctx context.Context, song models.SongRecord, outputPath string) models.SongOutcome {
	enhanced := song
	if l.enricher != nil {
		enhanced = l.enricher.Enrich(ctx, song)
	}

	if l.tagger != nil {
		if err := l.tagger.WriteTags(ctx, outputPath, enhanced); err != nil {
			l.logger.Errorf("metadata fix failed for %s: %v", outputPath, err)
			return models.SongOutcome{
				Title:  song.Title,
				Artist: song.Artist,
				Album:  song.Album,
				Status: models.OutcomeFailed,
				Error:  "Metadata fix failed",
			}
		}
	}

	return models.SongOutcome{
		Title:    song.Title,
		Artist:   song.Artist,
		Album:    song.Album,
		Status:   models.OutcomeCompleted,
		FilePath: outputPath,
	}
}

// isRateLimited matches the error text the acquisition tool emits on
// 403/forbidden responses.
func isRateLimited(errText string) bool {
	return strings.Contains(errText, "403") || strings.Contains(errText, "Forbidden")
}

func removeIfExists(path string) {
	if _, err := os.Stat(path); err == nil {
		os.Remove(path)
	}
}

// waitCtx sleeps for d or until the context is done, whichever comes first.
func waitCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
