// MusicBrainz [Directory] implementation.
//
// Queries the /ws/2 recording and release endpoints with JSON formatting.
// Requests are paced by a rate limiter; MusicBrainz throttles clients that
// exceed one request per second.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultMusicBrainzURL = "http://musicbrainz.org/ws/2"

// MusicBrainzService implements [Directory] against the MusicBrainz web service.
type MusicBrainzService struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// MusicBrainzOpts configures a [MusicBrainzService].
type MusicBrainzOpts struct {
	BaseURL        string
	UserAgent      string
	Timeout        time.Duration
	RequestsPerSec float64
	HTTPClient     *http.Client
}

// NewMusicBrainzService creates a new MusicBrainz directory client.
func NewMusicBrainzService(opts MusicBrainzOpts) *MusicBrainzService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultMusicBrainzURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "tunesd/1.0"
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 1.0
	}
	client := opts.HTTPClient
	if client == nil {
		client = newHTTPClient(opts.Timeout)
	}

	return &MusicBrainzService{
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSec), 1),
	}
}

func (m *MusicBrainzService) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	apiURL := m.baseURL + endpoint
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", m.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("metadata directory error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

type mbArtistCredit struct {
	Name string `json:"name"`
}

type mbTag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type mbTrack struct {
	Number    string `json:"number"`
	Length    int    `json:"length"`
	Recording *struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"recording"`
}

type mbMedium struct {
	Tracks []mbTrack `json:"tracks"`
}

type mbRelease struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Media []mbMedium `json:"media"`
}

// LookupRecording finds the canonical recording entry for artist+title.
//
// Calls GET /recording with a Lucene query, limit 1.
func (m *MusicBrainzService) LookupRecording(ctx context.Context, artist, title string) (*RecordingMatch, error) {
	params := url.Values{}
	params.Set("query", fmt.Sprintf(`artist:"%s" AND recording:"%s"`, cleanArtist(artist), cleanTitle(title)))
	params.Set("fmt", "json")
	params.Set("limit", "1")

	var result struct {
		Recordings []struct {
			ID           string           `json:"id"`
			Title        string           `json:"title"`
			ArtistCredit []mbArtistCredit `json:"artist-credit"`
			Releases     []mbRelease      `json:"releases"`
			Tags         []mbTag          `json:"tags"`
		} `json:"recordings"`
	}

	if err := m.doRequest(ctx, "/recording/", params, &result); err != nil {
		return nil, err
	}
	if len(result.Recordings) == 0 {
		return nil, nil
	}

	recording := result.Recordings[0]
	match := &RecordingMatch{Title: recording.Title}

	if len(recording.ArtistCredit) > 0 {
		match.Artist = recording.ArtistCredit[0].Name
	}

	if len(recording.Releases) > 0 {
		release := recording.Releases[0]
		match.Album = release.Title
		match.ReleaseID = release.ID
	}

	var genres []string
	for _, tag := range recording.Tags {
		if tag.Count > 0 {
			genres = append(genres, tag.Name)
		}
	}
	if len(genres) > 3 {
		genres = genres[:3]
	}
	match.Genre = strings.Join(genres, ", ")

	// Track number and length come from the release media listing that
	// references this recording.
	for _, release := range recording.Releases {
		for _, medium := range release.Media {
			for _, track := range medium.Tracks {
				if track.Recording != nil && track.Recording.ID == recording.ID {
					match.TrackNumber = track.Number
					match.DurationMS = track.Length
					return match, nil
				}
			}
		}
	}

	return match, nil
}

// SearchRelease finds a release matching artist+album.
//
// Calls GET /release with a Lucene query, limit 1.
func (m *MusicBrainzService) SearchRelease(ctx context.Context, artist, album string) (*ReleaseMatch, error) {
	params := url.Values{}
	params.Set("query", fmt.Sprintf(`artist:"%s" AND release:"%s"`, strings.TrimSpace(artist), strings.TrimSpace(album)))
	params.Set("fmt", "json")
	params.Set("limit", "1")

	var result struct {
		Releases []struct {
			ID           string           `json:"id"`
			Title        string           `json:"title"`
			ArtistCredit []mbArtistCredit `json:"artist-credit"`
		} `json:"releases"`
	}

	if err := m.doRequest(ctx, "/release/", params, &result); err != nil {
		return nil, err
	}
	if len(result.Releases) == 0 {
		return nil, nil
	}

	release := result.Releases[0]
	match := &ReleaseMatch{ID: release.ID, Title: release.Title}
	if len(release.ArtistCredit) > 0 {
		match.Artist = release.ArtistCredit[0].Name
	}

	return match, nil
}

// SearchReleases runs a free-text release search.
//
// Calls GET /release with the query verbatim. The caller composes tracklists
// and cover art per release.
func (m *MusicBrainzService) SearchReleases(ctx context.Context, query string, limit int) ([]ReleaseSearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	params := url.Values{}
	params.Set("query", strings.TrimSpace(query))
	params.Set("fmt", "json")
	params.Set("limit", strconv.Itoa(limit))

	var result struct {
		Releases []struct {
			ID           string           `json:"id"`
			Title        string           `json:"title"`
			ArtistCredit []mbArtistCredit `json:"artist-credit"`
			Date         string           `json:"date"`
			Country      string           `json:"country"`
			TrackCount   int              `json:"track-count"`
		} `json:"releases"`
	}

	if err := m.doRequest(ctx, "/release/", params, &result); err != nil {
		return nil, err
	}

	releases := make([]ReleaseSearchResult, 0, len(result.Releases))
	for _, release := range result.Releases {
		entry := ReleaseSearchResult{
			ID:         release.ID,
			Title:      release.Title,
			Artist:     "Unknown Artist",
			Date:       release.Date,
			Country:    release.Country,
			TrackCount: release.TrackCount,
		}
		if len(release.ArtistCredit) > 0 {
			entry.Artist = release.ArtistCredit[0].Name
		}
		releases = append(releases, entry)
	}

	return releases, nil
}

// ReleaseTracks fetches the ordered track listing for a release.
//
// Calls GET /release/{id}?inc=recordings.
func (m *MusicBrainzService) ReleaseTracks(ctx context.Context, releaseID string) ([]ReleaseTrack, error) {
	params := url.Values{}
	params.Set("inc", "recordings")
	params.Set("fmt", "json")

	var result struct {
		Media []mbMedium `json:"media"`
	}

	if err := m.doRequest(ctx, "/release/"+url.PathEscape(releaseID), params, &result); err != nil {
		return nil, err
	}

	var tracks []ReleaseTrack
	for _, medium := range result.Media {
		for _, track := range medium.Tracks {
			if track.Recording == nil {
				continue
			}
			tracks = append(tracks, ReleaseTrack{
				Title:  track.Recording.Title,
				Number: track.Number,
			})
		}
	}

	return tracks, nil
}

// cleanArtist strips featuring credits before a directory query.
func cleanArtist(artist string) string {
	a := strings.ReplaceAll(artist, " ft.", "")
	a = strings.ReplaceAll(a, " feat.", "")
	a = strings.ReplaceAll(a, " & ", "")
	return strings.TrimSpace(a)
}

// cleanTitle strips live markers before a directory query.
func cleanTitle(title string) string {
	t := strings.ReplaceAll(title, " - live", "")
	t = strings.ReplaceAll(t, " (live)", "")
	return strings.TrimSpace(t)
}
