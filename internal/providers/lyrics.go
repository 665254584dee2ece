// Lyric provider [LyricsSource] implementations.
//
// Two independent sources are supported: lyrics.ovh (strong for common
// songs) and lrclib.net (better for newer releases). The enrichment resolver
// tries them in that priority order.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultLyricsOvhURL = "https://api.lyrics.ovh/v1"
	defaultLrclibURL    = "https://lrclib.net/api"

	// Anything shorter is treated as a junk response, not lyrics.
	minOvhLyricsLen    = 10
	minLrclibLyricsLen = 20
)

// LyricsOvhService implements [LyricsSource] against the lyrics.ovh API.
type LyricsOvhService struct {
	baseURL    string
	httpClient *http.Client
}

// NewLyricsOvhService creates a new lyrics.ovh client.
func NewLyricsOvhService(baseURL string, timeout time.Duration) *LyricsOvhService {
	if baseURL == "" {
		baseURL = defaultLyricsOvhURL
	}
	return &LyricsOvhService{baseURL: baseURL, httpClient: newHTTPClient(timeout)}
}

func (l *LyricsOvhService) Name() string { return "lyrics.ovh" }

// Lyrics fetches lyrics via GET /{artist}/{title}.
func (l *LyricsOvhService) Lyrics(ctx context.Context, artist, title string) (string, error) {
	apiURL := fmt.Sprintf("%s/%s/%s", l.baseURL,
		url.PathEscape(cleanLyricsArtist(artist)), url.PathEscape(cleanLyricsTitle(title)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	var result struct {
		Lyrics string `json:"lyrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	lyrics := strings.TrimSpace(result.Lyrics)
	if len(lyrics) <= minOvhLyricsLen {
		return "", nil
	}
	return lyrics, nil
}

// LrclibService implements [LyricsSource] against the lrclib.net search API.
type LrclibService struct {
	baseURL    string
	httpClient *http.Client
}

// NewLrclibService creates a new lrclib.net client.
func NewLrclibService(baseURL string, timeout time.Duration) *LrclibService {
	if baseURL == "" {
		baseURL = defaultLrclibURL
	}
	return &LrclibService{baseURL: baseURL, httpClient: newHTTPClient(timeout)}
}

func (l *LrclibService) Name() string { return "lrclib.net" }

// Lyrics searches GET /search?q={artist} {title} and picks the first result
// that passes a fuzzy artist/title containment check, guarding against
// mismatched search hits.
func (l *LrclibService) Lyrics(ctx context.Context, artist, title string) (string, error) {
	artistClean := cleanLyricsArtist(artist)
	titleClean := cleanLyricsTitle(title)

	params := url.Values{}
	params.Set("q", artistClean+" "+titleClean)
	apiURL := l.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}

	var results []struct {
		ArtistName  string `json:"artistName"`
		TrackName   string `json:"trackName"`
		PlainLyrics string `json:"plainLyrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	for _, result := range results {
		resultArtist := strings.ToLower(result.ArtistName)
		resultTitle := strings.ToLower(result.TrackName)

		if !strings.Contains(squashArtist(resultArtist), squashArtist(artistClean)) {
			continue
		}
		if !strings.Contains(resultTitle, titleClean) && !strings.Contains(titleClean, resultTitle) {
			continue
		}

		lyrics := strings.TrimSpace(result.PlainLyrics)
		if len(lyrics) > minLrclibLyricsLen {
			return lyrics, nil
		}
	}

	return "", nil
}

func cleanLyricsArtist(artist string) string {
	a := strings.ToLower(artist)
	a = strings.ReplaceAll(a, " ft.", "")
	a = strings.ReplaceAll(a, " feat.", "")
	return strings.TrimSpace(a)
}

func cleanLyricsTitle(title string) string {
	t := strings.ToLower(title)
	t = strings.ReplaceAll(t, " - live", "")
	t = strings.ReplaceAll(t, " (live)", "")
	return strings.TrimSpace(t)
}

// squashArtist drops conjunctions so "X & Y" matches "X and Y".
func squashArtist(artist string) string {
	a := strings.ReplaceAll(artist, "&", "")
	a = strings.ReplaceAll(a, "and", "")
	return strings.TrimSpace(a)
}
