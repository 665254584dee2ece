// package models defines the data model for the song download service
package models

import (
	"fmt"
	"strings"
	"time"
)

// JobStatus enumerates the lifecycle states of a download job.
//
// completed, error, and cancelled are terminal: no transition leaves them.
type JobStatus string

const (
	StatusStarting        JobStatus = "starting"
	StatusSearchingTracks JobStatus = "searching_tracks"
	StatusDownloading     JobStatus = "downloading"
	StatusCompleted       JobStatus = "completed"
	StatusError           JobStatus = "error"
	StatusCancelled       JobStatus = "cancelled"
)

// Terminal reports whether no further transition may leave this status.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError || s == StatusCancelled
}

// Cancellable reports whether a job in this status may be cancelled.
func (s JobStatus) Cancellable() bool {
	return s == StatusStarting || s == StatusDownloading
}

// SongRecord describes one song to be acquired, independent of whether
// acquisition succeeds. Title and Artist are required; everything else is an
// additive enrichment field that may be absent.
type SongRecord struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album,omitempty"`

	// Query overrides the generated search ladder when set.
	Query string `json:"query,omitempty"`

	Genre       string `json:"genre,omitempty"`
	Lyrics      string `json:"lyrics,omitempty"`
	CoverURL    string `json:"cover_url,omitempty"`
	TrackNumber string `json:"track_number,omitempty"`
	DurationMS  int    `json:"duration_ms,omitempty"`
}

// Normalized returns a copy with title, artist, and album trimmed.
func (s SongRecord) Normalized() SongRecord {
	s.Title = strings.TrimSpace(s.Title)
	s.Artist = strings.TrimSpace(s.Artist)
	s.Album = strings.TrimSpace(s.Album)
	return s
}

// Validate checks the record invariant: non-empty title and artist after normalization.
func (s SongRecord) Validate() error {
	n := s.Normalized()
	if n.Title == "" {
		return fmt.Errorf("song title is required")
	}
	if n.Artist == "" {
		return fmt.Errorf("song artist is required")
	}
	return nil
}

// Filename returns the canonical output filename for the record.
func (s SongRecord) Filename() string {
	n := s.Normalized()
	return fmt.Sprintf("%s - %s.mp3", n.Artist, n.Title)
}

// OutcomeStatus is the per-song result status.
type OutcomeStatus string

const (
	OutcomeCompleted OutcomeStatus = "completed"
	OutcomeFailed    OutcomeStatus = "failed"
)

// SongOutcome records the result of running one SongRecord through the
// acquisition ladder.
type SongOutcome struct {
	Title    string        `json:"title"`
	Artist   string        `json:"artist"`
	Album    string        `json:"album,omitempty"`
	Status   OutcomeStatus `json:"status"`
	FilePath string        `json:"filepath,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Job tracks one user-initiated download request and its lifecycle.
//
// Jobs are value-snapshots: the store replaces whole records and readers
// receive copies, so a status read never observes a partially-updated set of
// counters.
type Job struct {
	ID             string        `json:"download_id"`
	Status         JobStatus     `json:"status"`
	TotalSongs     int           `json:"total_songs"`
	CompletedSongs int           `json:"completed_songs"`
	FailedSongs    int           `json:"failed_songs"`
	Progress       int           `json:"progress"`
	Songs          []SongOutcome `json:"songs,omitempty"`
	PlaylistPath   string        `json:"playlist_path,omitempty"`
	Error          string        `json:"error,omitempty"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// Clone returns a deep copy, detaching the outcome slice from the original.
func (j Job) Clone() Job {
	if j.Songs != nil {
		songs := make([]SongOutcome, len(j.Songs))
		copy(songs, j.Songs)
		j.Songs = songs
	}
	return j
}
