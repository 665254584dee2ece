// yt-dlp [MediaFetcher] implementation.
//
// Contract with the tool: exit 0 plus a non-empty output file means success.
// The ladder owns file verification; this adapter owns the argv.
package acquire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/ocelot/tunesd/internal/shared"
)

// Filters keep the search away from live streams and from full-album or
// clipped uploads.
const durationFilter = "!is_live & duration < 900 & duration > 30"

// A browser user agent and referer; search endpoints answer 403 to bare clients.
const (
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	youtubeReferer   = "https://www.youtube.com/"
)

// YTDLPFetcher invokes yt-dlp to extract audio for a search expression.
type YTDLPFetcher struct {
	path         string
	audioQuality string
	timeout      time.Duration
}

// NewYTDLPFetcher creates a fetcher invoking the tool at path.
func NewYTDLPFetcher(path, audioQuality string, timeout time.Duration) *YTDLPFetcher {
	if path == "" {
		path = "yt-dlp"
	}
	if audioQuality == "" {
		audioQuality = "192K"
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &YTDLPFetcher{path: path, audioQuality: audioQuality, timeout: timeout}
}

// Fetch runs one search-and-extract invocation targeting outputPath.
func (f *YTDLPFetcher) Fetch(ctx context.Context, query, outputPath string) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	args := []string{
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", f.audioQuality,
		"--output", outputPath,
		"--force-overwrites",
		"--no-playlist",
		"--quiet",
		"--user-agent", browserUserAgent,
		"--referer", youtubeReferer,
		"--retries", "3",
		"--fragment-retries", "3",
		"--sleep-requests", "1",
		"--match-filter", durationFilter,
		"ytsearch:" + query,
	}

	cmd := exec.CommandContext(ctx, f.path, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: download timeout (%s)", shared.ErrTimeout, f.timeout)
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %s", shared.ErrToolNotFound, f.path)
	}

	errMsg := stderr.String()
	if errMsg == "" {
		errMsg = "unknown error"
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("yt-dlp failed (exit code: %d): %s", exitErr.ExitCode(), truncate(errMsg, 200))
	}
	return fmt.Errorf("yt-dlp failed: %v: %s", err, truncate(errMsg, 200))
}
