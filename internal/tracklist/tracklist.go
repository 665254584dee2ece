// package tracklist turns an (artist, album) pair into an ordered list of
// song records, degrading through two fallbacks when the metadata directory
// cannot supply a canonical tracklist.
package tracklist

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/ocelot/tunesd/internal/models"
	"github.com/ocelot/tunesd/internal/providers"
	"github.com/ocelot/tunesd/internal/shared"
)

// maxSyntheticTracks bounds the degraded-mode tracklist; a typical album
// carries 10-15 tracks.
const maxSyntheticTracks = 12

// Resolver resolves album tracklists against the metadata directory.
type Resolver struct {
	directory providers.Directory
	logger    *log.Logger
}

// NewResolver creates a tracklist resolver.
func NewResolver(directory providers.Directory, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Resolver{directory: directory, logger: logger}
}

// ResolveTracks returns at least one SongRecord for the album, or
// [shared.ErrTracklistNotFound] when artist/album are blank and nothing can
// be synthesized.
//
// Resolution order: directory tracklist → synthetic numbered placeholders →
// a single whole-album record. The synthetic placeholders are a best-effort
// degraded mode; their generic titles are unlikely to resolve to the correct
// songs, which is inherent to the fallback.
func (r *Resolver) ResolveTracks(ctx context.Context, artist, album string) ([]models.SongRecord, error) {
	record := models.SongRecord{Artist: artist, Album: album}.Normalized()
	artist, album = record.Artist, record.Album

	if artist == "" || album == "" {
		return nil, fmt.Errorf("%w: artist and album are required", shared.ErrTracklistNotFound)
	}

	if tracks, ok := r.directoryTracks(ctx, artist, album); ok {
		return tracks, nil
	}

	r.logger.Warnf("no directory match for '%s' by '%s', using individual track fallback", album, artist)
	if tracks := syntheticTracks(artist, album); len(tracks) > 0 {
		return tracks, nil
	}

	// Whole-album emergency fallback: one record, one download attempt.
	return []models.SongRecord{{
		Title:  album,
		Artist: artist,
		Album:  album,
		Query:  fmt.Sprintf("%s %s full album official", artist, album),
	}}, nil
}

// directoryTracks fetches the canonical tracklist. Each record carries a
// disambiguating query override to bias acquisition away from full-album
// videos.
func (r *Resolver) directoryTracks(ctx context.Context, artist, album string) ([]models.SongRecord, bool) {
	release, err := r.directory.SearchRelease(ctx, artist, album)
	if err != nil {
		r.logger.Warnf("release search failed for '%s' by '%s': %v", album, artist, err)
		return nil, false
	}
	if release == nil {
		return nil, false
	}

	releaseTracks, err := r.directory.ReleaseTracks(ctx, release.ID)
	if err != nil {
		r.logger.Warnf("release tracklist fetch failed for %s: %v", release.ID, err)
		return nil, false
	}
	if len(releaseTracks) == 0 {
		return nil, false
	}

	records := make([]models.SongRecord, 0, len(releaseTracks))
	for _, track := range releaseTracks {
		records = append(records, models.SongRecord{
			Title:       track.Title,
			Artist:      artist,
			Album:       album,
			Query:       fmt.Sprintf(`%s "%s" song official audio`, artist, track.Title),
			TrackNumber: track.Number,
		})
	}

	return records, true
}

// syntheticTracks generates up to maxSyntheticTracks placeholder records with
// generic numbered titles, each searching for an individual track.
func syntheticTracks(artist, album string) []models.SongRecord {
	prefixes := []string{"Track", "Song"}
	suffixes := []string{"", " (part 1)", " (part 2)"}

	var tracks []models.SongRecord
	for i := 1; i <= maxSyntheticTracks; i++ {
		for _, prefix := range prefixes {
			for _, suffix := range suffixes {
				tracks = append(tracks, models.SongRecord{
					Title:  fmt.Sprintf("%s %d%s", prefix, i, suffix),
					Artist: artist,
					Album:  album,
					Query:  fmt.Sprintf(`%s "%s" song %d -individual track-`, artist, album, i),
				})
				if len(tracks) >= maxSyntheticTracks {
					return tracks
				}
			}
		}
	}
	return tracks
}
