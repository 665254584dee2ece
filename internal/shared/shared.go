// package shared defines helpers used across the download service: logging, ids, config, and the lookup-cache database.
package shared

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string, used as the opaque job identifier.
func GenerateID() string {
	return uuid.New().String()
}

// NormalizeLookupKey builds the case-folded artist+title key used by the
// metadata directory and its cache. Featuring credits and live markers are
// stripped so that near-identical spellings hit the same entry.
func NormalizeLookupKey(artist, title string) string {
	a := strings.ToLower(strings.TrimSpace(artist))
	t := strings.ToLower(strings.TrimSpace(title))
	for _, junk := range []string{" ft.", " feat."} {
		a = strings.ReplaceAll(a, junk, "")
	}
	for _, junk := range []string{" - live", " (live)"} {
		t = strings.ReplaceAll(t, junk, "")
	}
	return strings.TrimSpace(a) + "|" + strings.TrimSpace(t)
}
