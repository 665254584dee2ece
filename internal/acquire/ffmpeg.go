// ffmpeg [Tagger] implementation.
//
// Rewrites container tags (artist/title/album, plus lyrics when present) into
// a temp file and swaps it over the original. Any outcome other than exit 0 +
// successful swap leaves the original file intact.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ocelot/tunesd/internal/models"
	"github.com/ocelot/tunesd/internal/shared"
)

// Some players choke on oversized lyrics frames.
const maxEmbeddedLyrics = 4000

const defaultAlbumTag = "Downloaded Music"

// FFmpegTagger rewrites mp3 tags via ffmpeg.
type FFmpegTagger struct {
	path    string
	timeout time.Duration
	logger  *log.Logger
}

// NewFFmpegTagger creates a tagger invoking the tool at path.
func NewFFmpegTagger(path string, timeout time.Duration, logger *log.Logger) *FFmpegTagger {
	if path == "" {
		path = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &FFmpegTagger{path: path, timeout: timeout, logger: logger}
}

// WriteTags applies artist/title/album tags (and lyrics, bounded) to the file.
//
// A missing transcoder or a timeout leaves the file untagged but valid and is
// not reported as an error; a non-zero exit or a failed swap is.
func (t *FFmpegTagger) WriteTags(ctx context.Context, path string, song models.SongRecord) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: file does not exist: %s", shared.ErrTaggingFailed, path)
	}

	tempPath := path + ".tmp.mp3"

	artist := sanitizeTag(song.Artist)
	title := sanitizeTag(song.Title)
	album := sanitizeTag(song.Album)
	if album == "" {
		album = defaultAlbumTag
	}

	args := []string{
		"-y", "-i", path,
		"-metadata", "artist=" + artist,
		"-metadata", "title=" + title,
		"-metadata", "album=" + album,
	}
	if song.Lyrics != "" {
		lyrics := song.Lyrics
		if len(lyrics) > maxEmbeddedLyrics {
			lyrics = lyrics[:maxEmbeddedLyrics]
		}
		args = append(args, "-metadata", "lyrics="+lyrics)
	}
	args = append(args, "-c:a", "copy", "-f", "mp3", tempPath)

	runCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	t.logger.Infof("fixing metadata for %s", path)
	cmd := exec.CommandContext(runCtx, t.path, args...)

	err := cmd.Run()
	if err != nil {
		os.Remove(tempPath)

		if errors.Is(err, exec.ErrNotFound) {
			t.logger.Warnf("transcoder not found at %s, leaving file untagged", t.path)
			return nil
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			t.logger.Warn("metadata fix timed out, leaving file untagged")
			return nil
		}
		return fmt.Errorf("%w: transcoder exited with error: %v", shared.ErrTaggingFailed, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("%w: failed to replace file: %v", shared.ErrTaggingFailed, err)
	}

	return nil
}

// sanitizeTag strips quote characters that break tag values.
func sanitizeTag(value string) string {
	value = strings.ReplaceAll(value, `"`, "")
	value = strings.ReplaceAll(value, "'", "")
	return strings.TrimSpace(value)
}
