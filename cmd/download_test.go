package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ocelot/tunesd/internal/jobs"
	"github.com/ocelot/tunesd/internal/models"
)

// gatedAcquirer signals when a song starts and blocks until released.
type gatedAcquirer struct {
	started chan struct{}
	release chan struct{}
}

func (a *gatedAcquirer) Acquire(ctx context.Context, song models.SongRecord, outputDir string) models.SongOutcome {
	a.started <- struct{}{}
	<-a.release

	return models.SongOutcome{
		Title: song.Title, Artist: song.Artist, Album: song.Album,
		Status:   models.OutcomeCompleted,
		FilePath: filepath.Join(outputDir, song.Filename()),
	}
}

func TestWaitForJob(t *testing.T) {
	newDownloadRunner := func(t *testing.T, acquirer jobs.Acquirer) (*Runner, *bytes.Buffer) {
		t.Helper()
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})
		runner.manager = jobs.NewManager(jobs.ManagerOpts{
			Acquirer:  acquirer,
			OutputDir: t.TempDir(),
		})
		return runner, output
	}

	t.Run("reports a finished job", func(t *testing.T) {
		acquirer := &gatedAcquirer{started: make(chan struct{}, 1), release: make(chan struct{})}
		close(acquirer.release)
		runner, output := newDownloadRunner(t, acquirer)

		id, err := runner.manager.Submit([]models.SongRecord{{Title: "Song", Artist: "Artist"}})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		runner.manager.Wait()

		job, err := runner.waitForJob(context.Background(), id)
		if err != nil {
			t.Fatalf("waitForJob() error = %v", err)
		}
		if job.Status != models.StatusCompleted {
			t.Errorf("status = %s, want completed", job.Status)
		}
		if !strings.Contains(output.String(), "100%") {
			t.Errorf("output = %q, want a progress line", output.String())
		}
	})

	t.Run("interrupt cancels and reports the final state", func(t *testing.T) {
		acquirer := &gatedAcquirer{started: make(chan struct{}, 1), release: make(chan struct{})}
		runner, _ := newDownloadRunner(t, acquirer)

		id, err := runner.manager.Submit([]models.SongRecord{
			{Title: "One", Artist: "Artist"},
			{Title: "Two", Artist: "Artist"},
		})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		<-acquirer.started

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		go func() {
			close(acquirer.release)
		}()

		job, err := runner.waitForJob(ctx, id)
		if err != nil {
			t.Fatalf("waitForJob() error = %v", err)
		}
		// Cancellation raced the in-flight song; either way the job must be
		// terminal and the call must not error.
		if !job.Status.Terminal() {
			t.Errorf("status = %s, want terminal", job.Status)
		}
	})
}
