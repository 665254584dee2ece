// package repositories implements the SQLite-backed lookup cache for
// metadata directory responses.
//
// The directory is rate limited, so repeated jobs for the same songs should
// not re-hit it. Cached entries are stored as JSON payloads keyed by the
// normalized lookup key; the caching decorator in this package makes the
// cache transparent to enrichment and tracklist resolution.
package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ocelot/tunesd/internal/providers"
)

// LookupCacheRepository provides access to cached directory lookups.
type LookupCacheRepository struct {
	db *sql.DB
}

// NewLookupCacheRepository creates a repository backed by the given database.
func NewLookupCacheRepository(db *sql.DB) *LookupCacheRepository {
	return &LookupCacheRepository{db: db}
}

// GetRecording retrieves a cached recording match by lookup key.
// The second return value reports whether the key was present.
func (r *LookupCacheRepository) GetRecording(key string) (*providers.RecordingMatch, bool, error) {
	var payload string
	err := r.db.QueryRow("SELECT payload FROM recording_lookups WHERE lookup_key = ?", key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query recording cache: %w", err)
	}

	var match providers.RecordingMatch
	if err := json.Unmarshal([]byte(payload), &match); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached recording: %w", err)
	}
	return &match, true, nil
}

// PutRecording caches a recording match under the lookup key.
// A concurrent insert of the same key is silently ignored.
func (r *LookupCacheRepository) PutRecording(key string, match *providers.RecordingMatch) error {
	payload, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("failed to encode recording: %w", err)
	}

	_, err = r.db.Exec("INSERT INTO recording_lookups (lookup_key, payload) VALUES (?, ?)", key, string(payload))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache recording: %w", err)
	}
	return nil
}

// GetReleaseTracks retrieves a cached release track listing by lookup key.
func (r *LookupCacheRepository) GetReleaseTracks(key string) ([]providers.ReleaseTrack, bool, error) {
	var payload string
	err := r.db.QueryRow("SELECT payload FROM release_lookups WHERE lookup_key = ?", key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query release cache: %w", err)
	}

	var tracks []providers.ReleaseTrack
	if err := json.Unmarshal([]byte(payload), &tracks); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached tracks: %w", err)
	}
	return tracks, true, nil
}

// PutReleaseTracks caches a release track listing under the lookup key.
func (r *LookupCacheRepository) PutReleaseTracks(key string, tracks []providers.ReleaseTrack) error {
	payload, err := json.Marshal(tracks)
	if err != nil {
		return fmt.Errorf("failed to encode tracks: %w", err)
	}

	_, err = r.db.Exec("INSERT INTO release_lookups (lookup_key, payload) VALUES (?, ?)", key, string(payload))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache tracks: %w", err)
	}
	return nil
}

// Stats returns the number of cached recording and release entries.
func (r *LookupCacheRepository) Stats() (recordings, releases int, err error) {
	if err = r.db.QueryRow("SELECT COUNT(*) FROM recording_lookups").Scan(&recordings); err != nil {
		return 0, 0, fmt.Errorf("failed to count recording cache: %w", err)
	}
	if err = r.db.QueryRow("SELECT COUNT(*) FROM release_lookups").Scan(&releases); err != nil {
		return 0, 0, fmt.Errorf("failed to count release cache: %w", err)
	}
	return recordings, releases, nil
}

// Clear removes every cached lookup.
func (r *LookupCacheRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM recording_lookups"); err != nil {
		return fmt.Errorf("failed to clear recording cache: %w", err)
	}
	if _, err := r.db.Exec("DELETE FROM release_lookups"); err != nil {
		return fmt.Errorf("failed to clear release cache: %w", err)
	}
	return nil
}
