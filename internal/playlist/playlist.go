// package playlist emits the ordered M3U artifact for a completed
// multi-song job.
package playlist

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ocelot/tunesd/internal/models"
)

// The real duration is not reliably known post-acquisition, so every entry
// carries a fixed placeholder (four minutes).
const placeholderDurationSec = 240

const playlistMarker = "tunesd download service"

// RenderM3U renders the playlist body listing only completed outcomes, in
// their original order.
func RenderM3U(outcomes []models.SongOutcome) []byte {
	var buf bytes.Buffer

	buf.WriteString("#EXTM3U\n")
	buf.WriteString(fmt.Sprintf("#PLAYLIST:%s\n", playlistMarker))

	for _, outcome := range outcomes {
		if outcome.Status != models.OutcomeCompleted {
			continue
		}
		filename := fmt.Sprintf("%s - %s.mp3", outcome.Artist, outcome.Title)
		buf.WriteString(fmt.Sprintf("#EXTINF:%d,%s - %s\n", placeholderDurationSec, outcome.Artist, outcome.Title))
		buf.WriteString(filename + "\n")
	}

	return buf.Bytes()
}

// Emit writes the playlist artifact to outputDir under the given name and
// returns its path. Re-invocation with the same name overwrites.
func Emit(outcomes []models.SongOutcome, outputDir, name string) (string, error) {
	path := filepath.Join(outputDir, name)

	if err := os.WriteFile(path, RenderM3U(outcomes), 0644); err != nil {
		return "", fmt.Errorf("failed to write playlist: %w", err)
	}

	return path, nil
}
