package search

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ocelot/tunesd/internal/providers"
)

func TestParseVideoResults(t *testing.T) {
	output := strings.Join([]string{
		`{"id":"abc123def45","title":"Artist - Song","uploader":"ArtistVEVO","view_count":1000,"upload_date":"20200101","duration":200}`,
		`not json`,
		`{"id":"zzz999xxx11","title":"Official Audio - Something","duration":65}`,
		``,
		`{"id":"qqq000www22","title":"Plain Title"}`,
	}, "\n")

	results := parseVideoResults(output, 10)
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}

	first := results[0]
	if first.Artist != "Artist" || first.Title != "Song" {
		t.Errorf("split = %q / %q", first.Artist, first.Title)
	}
	if first.Duration != "3:20" || first.DurationSeconds != 200 {
		t.Errorf("duration = %q (%d)", first.Duration, first.DurationSeconds)
	}
	if first.VideoID != "abc123def45" {
		t.Errorf("video id = %q", first.VideoID)
	}
	if !strings.Contains(first.ThumbnailURL, "abc123def45") {
		t.Errorf("thumbnail = %q", first.ThumbnailURL)
	}
	if first.Uploader != "ArtistVEVO" || first.ViewCount != 1000 {
		t.Errorf("uploader = %q, views = %d", first.Uploader, first.ViewCount)
	}

	// Boilerplate left half stays part of the title.
	second := results[1]
	if second.Artist != "Unknown Artist" || second.Title != "Official Audio - Something" {
		t.Errorf("boilerplate split = %q / %q", second.Artist, second.Title)
	}
	if second.Duration != "1:05" {
		t.Errorf("duration = %q", second.Duration)
	}

	third := results[2]
	if third.Artist != "Unknown Artist" || third.Title != "Plain Title" {
		t.Errorf("plain title = %q / %q", third.Artist, third.Title)
	}
	if third.Duration != "0:00" || third.Uploader != "Unknown" {
		t.Errorf("defaults = %q / %q", third.Duration, third.Uploader)
	}
}

func TestParseVideoResultsLimit(t *testing.T) {
	var lines []string
	for i := 0; i < 5; i++ {
		lines = append(lines, fmt.Sprintf(`{"id":"video%06d0","title":"Song %d"}`, i, i))
	}

	results := parseVideoResults(strings.Join(lines, "\n"), 2)
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
}

func TestSplitUploadTitle(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		artist string
		song   string
		ok     bool
	}{
		{"simple", "Queen - Bohemian Rhapsody", "Queen", "Bohemian Rhapsody", true},
		{"first separator only", "A - B - C", "A", "B - C", true},
		{"no separator", "Bohemian Rhapsody", "", "", false},
		{"official left half", "Official Video - Song", "", "", false},
		{"lyrics left half", "Lyrics Channel - Song", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artist, song, ok := splitUploadTitle(tt.title)
			if artist != tt.artist || song != tt.song || ok != tt.ok {
				t.Errorf("splitUploadTitle(%q) = (%q, %q, %v)", tt.title, artist, song, ok)
			}
		})
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"embed url", "youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"v url", "www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"padded", "  https://youtu.be/dQw4w9WgXcQ  ", "dQw4w9WgXcQ"},
		{"plain query", "rick astley never gonna give you up", ""},
		{"short id", "https://youtu.be/tooshort", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractVideoID(tt.query); got != tt.want {
				t.Errorf("extractVideoID(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

// stubReleaseDirectory is a test double for [ReleaseDirectory].
type stubReleaseDirectory struct {
	releases    []providers.ReleaseSearchResult
	searchErr   error
	tracks      map[string][]providers.ReleaseTrack
	tracksErr   error
	trackCalls  int
	searchCalls int
}

func (d *stubReleaseDirectory) SearchReleases(ctx context.Context, query string, limit int) ([]providers.ReleaseSearchResult, error) {
	d.searchCalls++
	return d.releases, d.searchErr
}

func (d *stubReleaseDirectory) ReleaseTracks(ctx context.Context, releaseID string) ([]providers.ReleaseTrack, error) {
	d.trackCalls++
	if d.tracksErr != nil {
		return nil, d.tracksErr
	}
	return d.tracks[releaseID], nil
}

// stubCoverSource is a test double for [providers.CoverArtSource].
type stubCoverSource struct {
	url string
	err error
}

func (s *stubCoverSource) FrontCoverURL(ctx context.Context, releaseID string) (string, error) {
	return s.url, s.err
}

func TestSearchAlbums(t *testing.T) {
	directory := &stubReleaseDirectory{
		releases: []providers.ReleaseSearchResult{
			{ID: "rel-1", Title: "Album", Artist: "Artist", Date: "1999-10-12", Country: "GB", TrackCount: 3},
		},
		tracks: map[string][]providers.ReleaseTrack{
			"rel-1": {{Title: "One", Number: "1"}, {Title: "Two", Number: "2"}},
		},
	}
	searcher := NewAlbumSearcher(directory, &stubCoverSource{url: "http://images.example/front.jpg"}, nil)

	albums, err := searcher.SearchAlbums(context.Background(), "artist album", 5)
	if err != nil {
		t.Fatalf("SearchAlbums() error = %v", err)
	}
	if len(albums) != 1 {
		t.Fatalf("len(albums) = %d", len(albums))
	}

	album := albums[0]
	if album.Artist != "Artist" || album.Album != "Album" {
		t.Errorf("album = %+v", album)
	}
	if album.ReleaseYear != "1999" {
		t.Errorf("release year = %q", album.ReleaseYear)
	}
	if album.CoverURL != "http://images.example/front.jpg" {
		t.Errorf("cover = %q", album.CoverURL)
	}
	// The detailed tracklist wins over the search result's track count.
	if album.TrackCount != 2 || len(album.Tracks) != 2 {
		t.Fatalf("tracks = %d (%+v)", album.TrackCount, album.Tracks)
	}
	if album.Tracks[0].Title != "One" || album.Tracks[0].Artist != "Artist" || album.Tracks[0].Album != "Album" {
		t.Errorf("first track = %+v", album.Tracks[0])
	}
}

func TestSearchAlbumsDegrades(t *testing.T) {
	t.Run("tracklist failure keeps the entry", func(t *testing.T) {
		directory := &stubReleaseDirectory{
			releases:  []providers.ReleaseSearchResult{{ID: "rel-1", Title: "Album", Artist: "Artist", TrackCount: 9}},
			tracksErr: fmt.Errorf("directory down"),
		}
		searcher := NewAlbumSearcher(directory, &stubCoverSource{}, nil)

		albums, err := searcher.SearchAlbums(context.Background(), "artist album", 5)
		if err != nil {
			t.Fatalf("SearchAlbums() error = %v", err)
		}
		if len(albums) != 1 || len(albums[0].Tracks) != 0 {
			t.Fatalf("albums = %+v", albums)
		}
		if albums[0].TrackCount != 9 {
			t.Errorf("track count = %d, want the search result's", albums[0].TrackCount)
		}
	})

	t.Run("cover art failure keeps the entry", func(t *testing.T) {
		directory := &stubReleaseDirectory{
			releases: []providers.ReleaseSearchResult{{ID: "rel-1", Title: "Album", Artist: "Artist"}},
		}
		searcher := NewAlbumSearcher(directory, &stubCoverSource{err: fmt.Errorf("archive down")}, nil)

		albums, err := searcher.SearchAlbums(context.Background(), "artist album", 5)
		if err != nil {
			t.Fatalf("SearchAlbums() error = %v", err)
		}
		if len(albums) != 1 || albums[0].CoverURL != "" {
			t.Errorf("albums = %+v", albums)
		}
	})

	t.Run("blank release id skips lookups", func(t *testing.T) {
		directory := &stubReleaseDirectory{
			releases: []providers.ReleaseSearchResult{{Title: "Album", Artist: "Artist"}},
		}
		searcher := NewAlbumSearcher(directory, &stubCoverSource{url: "unused"}, nil)

		albums, err := searcher.SearchAlbums(context.Background(), "artist album", 5)
		if err != nil {
			t.Fatalf("SearchAlbums() error = %v", err)
		}
		if directory.trackCalls != 0 {
			t.Errorf("trackCalls = %d, want 0", directory.trackCalls)
		}
		if albums[0].CoverURL != "" {
			t.Errorf("cover = %q, want none", albums[0].CoverURL)
		}
	})

	t.Run("directory error propagates", func(t *testing.T) {
		directory := &stubReleaseDirectory{searchErr: fmt.Errorf("directory down")}
		searcher := NewAlbumSearcher(directory, &stubCoverSource{}, nil)

		if _, err := searcher.SearchAlbums(context.Background(), "artist album", 5); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestReleaseYear(t *testing.T) {
	if got := releaseYear("1999-10-12"); got != "1999" {
		t.Errorf("releaseYear = %q", got)
	}
	if got := releaseYear(""); got != "" {
		t.Errorf("releaseYear(empty) = %q", got)
	}
	if got := releaseYear("99"); got != "" {
		t.Errorf("releaseYear(short) = %q", got)
	}
}
