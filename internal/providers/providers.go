// package providers defines clients for the read-only HTTP collaborators:
// the structured metadata directory, the cover-art archive, and the lyric sources.
//
// Every call is bounded by the client timeout. Absence of data is returned as
// a nil match, not an error; errors are reserved for transport failures and
// non-2xx responses. Callers treat both the same way ("no data").
package providers

import (
	"context"
	"net/http"
	"time"
)

// RecordingMatch is a canonical recording entry from the metadata directory.
type RecordingMatch struct {
	Title       string
	Artist      string
	Album       string
	Genre       string
	TrackNumber string
	DurationMS  int
	ReleaseID   string
}

// ReleaseMatch is a release (album) entry from the metadata directory.
type ReleaseMatch struct {
	ID     string
	Title  string
	Artist string
}

// ReleaseSearchResult is one release from a free-text release search.
type ReleaseSearchResult struct {
	ID         string
	Title      string
	Artist     string
	Date       string
	Country    string
	TrackCount int
}

// ReleaseTrack is one track of a release's detailed listing.
type ReleaseTrack struct {
	Title  string
	Number string
}

// Directory is the structured metadata directory used for enrichment and
// tracklist resolution.
type Directory interface {
	// LookupRecording finds the canonical recording for artist+title.
	// Returns (nil, nil) when the directory has no match.
	LookupRecording(ctx context.Context, artist, title string) (*RecordingMatch, error)

	// SearchRelease finds a release matching artist+album.
	// Returns (nil, nil) when the directory has no match.
	SearchRelease(ctx context.Context, artist, album string) (*ReleaseMatch, error)

	// ReleaseTracks fetches the ordered track listing for a release.
	ReleaseTracks(ctx context.Context, releaseID string) ([]ReleaseTrack, error)
}

// CoverArtSource resolves cover-art URLs from a release identifier.
type CoverArtSource interface {
	// FrontCoverURL returns an image URL for the release, preferring an image
	// flagged "front". Returns "" when the archive has nothing.
	FrontCoverURL(ctx context.Context, releaseID string) (string, error)
}

// LyricsSource fetches plain lyrics text for a song.
type LyricsSource interface {
	// Lyrics returns the lyrics text, or "" when the source has no usable match.
	Lyrics(ctx context.Context, artist, title string) (string, error)

	// Name identifies the source in logs.
	Name() string
}

// newHTTPClient builds the bounded http.Client shared by provider implementations.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
