package search

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/ocelot/tunesd/internal/providers"
	"github.com/ocelot/tunesd/internal/shared"
)

// ReleaseDirectory is the slice of the metadata directory album search uses.
// Satisfied by the MusicBrainz client.
type ReleaseDirectory interface {
	SearchReleases(ctx context.Context, query string, limit int) ([]providers.ReleaseSearchResult, error)
	ReleaseTracks(ctx context.Context, releaseID string) ([]providers.ReleaseTrack, error)
}

// AlbumSearcher turns free-text queries into album results with tracklists
// and cover art.
type AlbumSearcher struct {
	directory ReleaseDirectory
	coverArt  providers.CoverArtSource
	logger    *log.Logger
}

// NewAlbumSearcher creates an album searcher.
func NewAlbumSearcher(directory ReleaseDirectory, coverArt providers.CoverArtSource, logger *log.Logger) *AlbumSearcher {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &AlbumSearcher{directory: directory, coverArt: coverArt, logger: logger}
}

// SearchAlbums returns up to limit albums for the query. Per-album tracklist
// or cover-art failures degrade that entry, never the whole search.
func (s *AlbumSearcher) SearchAlbums(ctx context.Context, query string, limit int) ([]AlbumResult, error) {
	releases, err := s.directory.SearchReleases(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	results := make([]AlbumResult, 0, len(releases))
	for _, release := range releases {
		result := AlbumResult{
			Artist:      release.Artist,
			Album:       release.Title,
			TrackCount:  release.TrackCount,
			ReleaseYear: releaseYear(release.Date),
		}

		if release.ID != "" {
			if tracks, err := s.directory.ReleaseTracks(ctx, release.ID); err != nil {
				s.logger.Warnf("tracklist fetch failed for release %s: %v", release.ID, err)
			} else {
				for _, track := range tracks {
					result.Tracks = append(result.Tracks, AlbumTrack{
						Title:  track.Title,
						Artist: release.Artist,
						Album:  release.Title,
					})
				}
				result.TrackCount = len(result.Tracks)
			}

			if s.coverArt != nil {
				if coverURL, err := s.coverArt.FrontCoverURL(ctx, release.ID); err != nil {
					s.logger.Warnf("cover art lookup failed for release %s: %v", release.ID, err)
				} else {
					result.CoverURL = coverURL
				}
			}
		}

		results = append(results, result)
	}

	return results, nil
}

// releaseYear extracts the year from a directory release date.
func releaseYear(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return ""
}
