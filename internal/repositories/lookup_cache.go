package repositories

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/ocelot/tunesd/internal/providers"
	"github.com/ocelot/tunesd/internal/shared"
)

// CachingDirectory wraps a [providers.Directory] with the lookup cache.
//
// Only positive results are cached; a miss in the directory stays a miss so
// that newly-published metadata can appear later. Cache read/write failures
// degrade to a direct directory call and never surface to the caller.
type CachingDirectory struct {
	inner  providers.Directory
	repo   *LookupCacheRepository
	logger *log.Logger
}

// NewCachingDirectory creates a caching decorator around the given directory.
func NewCachingDirectory(inner providers.Directory, repo *LookupCacheRepository, logger *log.Logger) *CachingDirectory {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CachingDirectory{inner: inner, repo: repo, logger: logger}
}

// LookupRecording consults the cache before the directory.
func (c *CachingDirectory) LookupRecording(ctx context.Context, artist, title string) (*providers.RecordingMatch, error) {
	key := shared.NormalizeLookupKey(artist, title)

	if match, ok, err := c.repo.GetRecording(key); err != nil {
		c.logger.Warnf("recording cache read failed: %v", err)
	} else if ok {
		return match, nil
	}

	match, err := c.inner.LookupRecording(ctx, artist, title)
	if err != nil {
		return nil, err
	}

	if match != nil {
		if err := c.repo.PutRecording(key, match); err != nil {
			c.logger.Warnf("recording cache write failed: %v", err)
		}
	}

	return match, nil
}

// SearchRelease passes through; release searches are one-shot per album job.
func (c *CachingDirectory) SearchRelease(ctx context.Context, artist, album string) (*providers.ReleaseMatch, error) {
	return c.inner.SearchRelease(ctx, artist, album)
}

// ReleaseTracks consults the cache before the directory, keyed by release id.
func (c *CachingDirectory) ReleaseTracks(ctx context.Context, releaseID string) ([]providers.ReleaseTrack, error) {
	if tracks, ok, err := c.repo.GetReleaseTracks(releaseID); err != nil {
		c.logger.Warnf("release cache read failed: %v", err)
	} else if ok {
		return tracks, nil
	}

	tracks, err := c.inner.ReleaseTracks(ctx, releaseID)
	if err != nil {
		return nil, err
	}

	if len(tracks) > 0 {
		if err := c.repo.PutReleaseTracks(releaseID, tracks); err != nil {
			c.logger.Warnf("release cache write failed: %v", err)
		}
	}

	return tracks, nil
}
