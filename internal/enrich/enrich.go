// package enrich implements the metadata enrichment resolver.
//
// A SongRecord is augmented field by field from the metadata directory, the
// cover-art archive, and the lyric sources. Enrichment is strictly additive:
// a provider timeout or error leaves the affected fields untouched and never
// fails the caller. The resolver never narrows a record.
package enrich

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/ocelot/tunesd/internal/models"
	"github.com/ocelot/tunesd/internal/providers"
	"github.com/ocelot/tunesd/internal/shared"
)

// Resolver merges third-party metadata into song records.
type Resolver struct {
	directory providers.Directory
	coverArt  providers.CoverArtSource
	lyrics    []providers.LyricsSource
	logger    *log.Logger
}

// NewResolver creates a Resolver. The lyric sources are tried in the order
// given; the first source returning non-trivial text wins.
func NewResolver(directory providers.Directory, coverArt providers.CoverArtSource, lyrics []providers.LyricsSource, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Resolver{
		directory: directory,
		coverArt:  coverArt,
		lyrics:    lyrics,
		logger:    logger,
	}
}

// Enrich returns a copy of song with any fields the providers could supply.
// Missing providers and provider failures leave the record unchanged.
func (r *Resolver) Enrich(ctx context.Context, song models.SongRecord) models.SongRecord {
	enhanced := song

	if r.directory != nil {
		match, err := r.directory.LookupRecording(ctx, song.Artist, song.Title)
		switch {
		case err != nil:
			r.logger.Warnf("metadata lookup failed for '%s - %s': %v", song.Artist, song.Title, err)
		case match != nil:
			enhanced = applyMatch(enhanced, match)
			if match.ReleaseID != "" && r.coverArt != nil {
				cover, err := r.coverArt.FrontCoverURL(ctx, match.ReleaseID)
				if err != nil {
					r.logger.Warnf("cover art lookup failed for release %s: %v", match.ReleaseID, err)
				} else if cover != "" {
					enhanced.CoverURL = cover
				}
			}
			r.logger.Infof("enhanced metadata: '%s' by %s (%s)", enhanced.Title, enhanced.Artist, orNA(enhanced.Album))
		}
	}

	if enhanced.Lyrics == "" {
		if lyrics := r.lookupLyrics(ctx, enhanced.Artist, enhanced.Title); lyrics != "" {
			enhanced.Lyrics = lyrics
		}
	}

	return enhanced
}

// applyMatch merges directory fields, first-applicable-wins per field.
func applyMatch(song models.SongRecord, match *providers.RecordingMatch) models.SongRecord {
	if match.Title != "" {
		song.Title = match.Title
	}
	if match.Artist != "" {
		song.Artist = match.Artist
	}
	if match.Album != "" {
		song.Album = match.Album
	}
	if match.Genre != "" {
		song.Genre = match.Genre
	}
	if match.TrackNumber != "" {
		song.TrackNumber = match.TrackNumber
	}
	if match.DurationMS > 0 {
		song.DurationMS = match.DurationMS
	}
	return song
}

// lookupLyrics tries each source in priority order; the first non-trivial
// text wins. No match from any source returns "".
func (r *Resolver) lookupLyrics(ctx context.Context, artist, title string) string {
	for _, source := range r.lyrics {
		lyrics, err := source.Lyrics(ctx, artist, title)
		if err != nil {
			r.logger.Warnf("%s lyrics lookup failed: %v", source.Name(), err)
			continue
		}
		if lyrics != "" {
			r.logger.Infof("got lyrics from %s (%d chars)", source.Name(), len(lyrics))
			return lyrics
		}
	}
	return ""
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
