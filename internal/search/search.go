// package search implements the catalogue browse surface: non-downloading
// video searches against the acquisition source and album searches against
// the metadata directory.
package search

// VideoResult is one entry from a video search.
type VideoResult struct {
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	Duration        string `json:"duration"`
	VideoID         string `json:"video_id"`
	ThumbnailURL    string `json:"thumbnail_url"`
	Uploader        string `json:"uploader"`
	ViewCount       int64  `json:"view_count"`
	UploadDate      string `json:"upload_date"`
	DurationSeconds int    `json:"duration_seconds"`
}

// AlbumTrack is one tracklist entry of an album search result.
type AlbumTrack struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
}

// AlbumResult is one album from a directory album search.
type AlbumResult struct {
	Artist      string       `json:"artist"`
	Album       string       `json:"album"`
	TrackCount  int          `json:"track_count"`
	Tracks      []AlbumTrack `json:"tracks"`
	ReleaseYear string       `json:"release_year,omitempty"`
	CoverURL    string       `json:"cover_url,omitempty"`
}
