package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/ocelot/tunesd/internal/providers"
	internaltesting "github.com/ocelot/tunesd/internal/testing"
)

// countingDirectory is a test double for [providers.Directory] that counts calls.
type countingDirectory struct {
	recordingCalls int
	releaseCalls   int
	trackCalls     int

	match  *providers.RecordingMatch
	tracks []providers.ReleaseTrack
	err    error
}

func (d *countingDirectory) LookupRecording(ctx context.Context, artist, title string) (*providers.RecordingMatch, error) {
	d.recordingCalls++
	return d.match, d.err
}

func (d *countingDirectory) SearchRelease(ctx context.Context, artist, album string) (*providers.ReleaseMatch, error) {
	d.releaseCalls++
	return &providers.ReleaseMatch{ID: "rel-1"}, d.err
}

func (d *countingDirectory) ReleaseTracks(ctx context.Context, releaseID string) ([]providers.ReleaseTrack, error) {
	d.trackCalls++
	return d.tracks, d.err
}

func TestCachingDirectoryLookupRecording(t *testing.T) {
	t.Run("second lookup is a cache hit", func(t *testing.T) {
		inner := &countingDirectory{match: &providers.RecordingMatch{Title: "Song", Artist: "Artist"}}
		dir := NewCachingDirectory(inner, NewLookupCacheRepository(internaltesting.MustOpenDB(t)), nil)

		for i := 0; i < 2; i++ {
			match, err := dir.LookupRecording(context.Background(), "Artist", "Song")
			if err != nil {
				t.Fatalf("LookupRecording() error = %v", err)
			}
			if match == nil || match.Title != "Song" {
				t.Fatalf("LookupRecording() = %+v", match)
			}
		}

		if inner.recordingCalls != 1 {
			t.Errorf("directory called %d times, want 1", inner.recordingCalls)
		}
	})

	t.Run("key variants share an entry", func(t *testing.T) {
		inner := &countingDirectory{match: &providers.RecordingMatch{Title: "Song"}}
		dir := NewCachingDirectory(inner, NewLookupCacheRepository(internaltesting.MustOpenDB(t)), nil)

		if _, err := dir.LookupRecording(context.Background(), "Artist", "Song"); err != nil {
			t.Fatalf("LookupRecording() error = %v", err)
		}
		if _, err := dir.LookupRecording(context.Background(), "ARTIST", "  Song  "); err != nil {
			t.Fatalf("LookupRecording() error = %v", err)
		}

		if inner.recordingCalls != 1 {
			t.Errorf("directory called %d times, want 1", inner.recordingCalls)
		}
	})

	t.Run("misses are not cached", func(t *testing.T) {
		inner := &countingDirectory{}
		dir := NewCachingDirectory(inner, NewLookupCacheRepository(internaltesting.MustOpenDB(t)), nil)

		for i := 0; i < 2; i++ {
			match, err := dir.LookupRecording(context.Background(), "Nobody", "Nothing")
			if err != nil {
				t.Fatalf("LookupRecording() error = %v", err)
			}
			if match != nil {
				t.Fatalf("expected miss, got %+v", match)
			}
		}

		if inner.recordingCalls != 2 {
			t.Errorf("directory called %d times, want 2", inner.recordingCalls)
		}
	})

	t.Run("directory error propagates", func(t *testing.T) {
		inner := &countingDirectory{err: errors.New("directory down")}
		dir := NewCachingDirectory(inner, NewLookupCacheRepository(internaltesting.MustOpenDB(t)), nil)

		if _, err := dir.LookupRecording(context.Background(), "a", "b"); err == nil {
			t.Error("expected error from directory")
		}
	})
}

func TestCachingDirectoryReleaseTracks(t *testing.T) {
	inner := &countingDirectory{tracks: []providers.ReleaseTrack{{Title: "Track", Number: "1"}}}
	dir := NewCachingDirectory(inner, NewLookupCacheRepository(internaltesting.MustOpenDB(t)), nil)

	for i := 0; i < 2; i++ {
		tracks, err := dir.ReleaseTracks(context.Background(), "rel-1")
		if err != nil {
			t.Fatalf("ReleaseTracks() error = %v", err)
		}
		if len(tracks) != 1 {
			t.Fatalf("len(tracks) = %d", len(tracks))
		}
	}

	if inner.trackCalls != 1 {
		t.Errorf("directory called %d times, want 1", inner.trackCalls)
	}
}

func TestCachingDirectorySearchReleasePassthrough(t *testing.T) {
	inner := &countingDirectory{}
	dir := NewCachingDirectory(inner, NewLookupCacheRepository(internaltesting.MustOpenDB(t)), nil)

	for i := 0; i < 2; i++ {
		if _, err := dir.SearchRelease(context.Background(), "Artist", "Album"); err != nil {
			t.Fatalf("SearchRelease() error = %v", err)
		}
	}

	if inner.releaseCalls != 2 {
		t.Errorf("directory called %d times, want 2 (no caching)", inner.releaseCalls)
	}
}
