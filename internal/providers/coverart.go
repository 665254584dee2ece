// Cover Art Archive [CoverArtSource] implementation.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const defaultCoverArtURL = "http://coverartarchive.org"

// CoverArtService implements [CoverArtSource] against the Cover Art Archive.
type CoverArtService struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewCoverArtService creates a new cover-art archive client.
func NewCoverArtService(baseURL, userAgent string, timeout time.Duration) *CoverArtService {
	if baseURL == "" {
		baseURL = defaultCoverArtURL
	}
	if userAgent == "" {
		userAgent = "tunesd/1.0"
	}
	return &CoverArtService{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: newHTTPClient(timeout),
	}
}

// FrontCoverURL resolves a small thumbnail URL for the release.
//
// Prefers the image flagged "front"; falls back to the first available image.
// Returns "" when the archive has no images for the release.
func (c *CoverArtService) FrontCoverURL(ctx context.Context, releaseID string) (string, error) {
	apiURL := fmt.Sprintf("%s/release/%s", c.baseURL, url.PathEscape(releaseID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// The archive answers 404 for releases without art; that is absence, not failure.
		if resp.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", fmt.Errorf("cover art archive error: status %d", resp.StatusCode)
	}

	var result struct {
		Images []struct {
			Front      bool `json:"front"`
			Thumbnails struct {
				Small string `json:"small"`
			} `json:"thumbnails"`
		} `json:"images"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Images) == 0 {
		return "", nil
	}

	for _, img := range result.Images {
		if img.Front {
			return img.Thumbnails.Small, nil
		}
	}

	return result.Images[0].Thumbnails.Small, nil
}
