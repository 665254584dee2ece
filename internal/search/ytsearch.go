// yt-dlp video search adapter.
//
// Runs the tool with --print-json and --no-download, one JSON document per
// result line. Never touches the filesystem.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ocelot/tunesd/internal/shared"
)

// Browse results exclude live streams, but admit longer uploads than the
// download filter does since nothing is fetched.
const browseFilter = "!is_live & duration < 1800"

const (
	defaultVideoResults = 10
	watchURLFormat      = "https://www.youtube.com/watch?v=%s"
	thumbnailURLFormat  = "https://img.youtube.com/vi/%s/default.jpg"
)

// VideoSearcher runs non-downloading searches against the acquisition source.
type VideoSearcher struct {
	path    string
	timeout time.Duration
	logger  *log.Logger
}

// NewVideoSearcher creates a searcher invoking the tool at path.
func NewVideoSearcher(path string, timeout time.Duration, logger *log.Logger) *VideoSearcher {
	if path == "" {
		path = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &VideoSearcher{path: path, timeout: timeout, logger: logger}
}

// SearchVideos returns up to limit video entries for the query. A query that
// is itself a video URL resolves to that single video instead of a search.
func (s *VideoSearcher) SearchVideos(ctx context.Context, query string, limit int) ([]VideoResult, error) {
	if limit <= 0 {
		limit = defaultVideoResults
	}

	var args []string
	if videoID := extractVideoID(query); videoID != "" {
		s.logger.Infof("video search resolved URL to id %s", videoID)
		limit = 1
		args = []string{
			"--print-json",
			"--no-download",
			"--skip-download",
			fmt.Sprintf(watchURLFormat, videoID),
			"--match-filter", browseFilter,
		}
	} else {
		args = []string{
			"--flat-playlist",
			"--print-json",
			"--no-download",
			"--skip-download",
			fmt.Sprintf("ytsearch%d:%s official audio", limit, query),
			"--match-filter", browseFilter,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: video search (%s)", shared.ErrTimeout, s.timeout)
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", shared.ErrToolNotFound, s.path)
		}
		return nil, fmt.Errorf("video search failed: %v: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseVideoResults(stdout.String(), limit), nil
}

// parseVideoResults decodes the tool's line-delimited JSON output, keeping at
// most limit entries. Undecodable lines are skipped.
func parseVideoResults(output string, limit int) []VideoResult {
	var results []VideoResult
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "{") {
			continue
		}

		var entry struct {
			ID         string  `json:"id"`
			Title      string  `json:"title"`
			Uploader   string  `json:"uploader"`
			ViewCount  int64   `json:"view_count"`
			UploadDate string  `json:"upload_date"`
			Duration   float64 `json:"duration"`
		}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}

		result := VideoResult{
			Title:           entry.Title,
			Artist:          "Unknown Artist",
			VideoID:         entry.ID,
			ThumbnailURL:    fmt.Sprintf(thumbnailURLFormat, entry.ID),
			Uploader:        entry.Uploader,
			ViewCount:       entry.ViewCount,
			UploadDate:      entry.UploadDate,
			DurationSeconds: int(entry.Duration),
		}
		if result.Title == "" {
			result.Title = "Unknown"
		}
		if result.Uploader == "" {
			result.Uploader = "Unknown"
		}
		if artist, title, ok := splitUploadTitle(result.Title); ok {
			result.Artist, result.Title = artist, title
		}
		result.Duration = formatDuration(result.DurationSeconds)

		results = append(results, result)
		if len(results) >= limit {
			break
		}
	}
	return results
}

// splitUploadTitle splits an "Artist - Title" upload name. Titles whose left
// half looks like upload boilerplate are left whole.
func splitUploadTitle(title string) (string, string, bool) {
	artist, rest, found := strings.Cut(title, " - ")
	if !found {
		return "", "", false
	}
	lower := strings.ToLower(artist)
	for _, keyword := range []string{"official", "audio", "music video", "lyrics"} {
		if strings.Contains(lower, keyword) {
			return "", "", false
		}
	}
	return strings.TrimSpace(artist), strings.TrimSpace(rest), true
}

// formatDuration renders seconds as m:ss.
func formatDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/watch\?v=([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`(?:https?://)?youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`(?:https?://)?(?:www\.)?youtube\.com/v/([a-zA-Z0-9_-]{11})`),
}

// extractVideoID recognizes watch, short, and embed URL forms.
func extractVideoID(query string) string {
	query = strings.TrimSpace(query)
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(query); m != nil {
			return m[1]
		}
	}
	return ""
}
