// package jobs implements the job lifecycle: creation, the background run
// loop driving the acquisition ladder across a job's songs, status reads,
// and cooperative cancellation.
//
// A job's songs are processed strictly sequentially, never concurrently,
// because the external providers rate-limit by client. Across jobs, a
// bounded semaphore admits a limited number of concurrent runners.
package jobs

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ocelot/tunesd/internal/models"
	"github.com/ocelot/tunesd/internal/playlist"
	"github.com/ocelot/tunesd/internal/shared"
	"golang.org/x/sync/semaphore"
)

// DefaultMaxSongs caps the number of songs a single job may carry.
const DefaultMaxSongs = 20

// Acquirer drives one song through the acquisition ladder.
// Satisfied by the acquire package's Ladder.
type Acquirer interface {
	Acquire(ctx context.Context, song models.SongRecord, outputDir string) models.SongOutcome
}

// Emitter writes the playlist artifact for a finished multi-song job.
type Emitter func(outcomes []models.SongOutcome, outputDir, name string) (string, error)

// Store is the process-scoped job table. It is the only state shared between
// the status-reader path and the background-runner path; every mutation is a
// full-record replace so readers never observe a mix of old and new fields.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]models.Job
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]models.Job)}
}

// Get returns a detached snapshot of the job.
func (s *Store) Get(id string) (models.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.Job{}, false
	}
	return job.Clone(), true
}

// Put replaces the stored record wholesale. A record that has reached a
// terminal status is immutable: the replace is refused and Put reports false.
func (s *Store) Put(job models.Job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.jobs[job.ID]; ok && existing.Status.Terminal() {
		return false
	}

	job.UpdatedAt = time.Now()
	s.jobs[job.ID] = job.Clone()
	return true
}

// Cancel transitions a cancellable job to cancelled, atomically with the
// status check. Reports whether the transition happened.
func (s *Store) Cancel(id string) (models.JobStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return "", false
	}
	if !job.Status.Cancellable() {
		return job.Status, false
	}

	job.Status = models.StatusCancelled
	job.UpdatedAt = time.Now()
	s.jobs[id] = job
	return models.StatusCancelled, true
}

// Clear drops every job. Job history does not survive a restart; this is the
// defined teardown.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = make(map[string]models.Job)
}

// Manager owns job state and drives the acquisition ladder across each job's
// songs on a background runner.
type Manager struct {
	store     *Store
	acquirer  Acquirer
	emitter   Emitter
	logger    *log.Logger
	outputDir string

	maxSongs       int
	interSongDelay time.Duration

	runCtx context.Context
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
}

// ManagerOpts contains configuration for creating a Manager.
type ManagerOpts struct {
	Acquirer       Acquirer
	Emitter        Emitter // Defaults to playlist.Emit
	Logger         *log.Logger
	OutputDir      string
	MaxSongs       int
	MaxActiveJobs  int
	InterSongDelay time.Duration
	Context        context.Context // Base context for background runners
}

// NewManager creates a Manager with the provided configuration.
func NewManager(opts ManagerOpts) *Manager {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Emitter == nil {
		opts.Emitter = playlist.Emit
	}
	if opts.MaxSongs <= 0 {
		opts.MaxSongs = DefaultMaxSongs
	}
	if opts.MaxActiveJobs <= 0 {
		opts.MaxActiveJobs = 4
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}

	return &Manager{
		store:          NewStore(),
		acquirer:       opts.Acquirer,
		emitter:        opts.Emitter,
		logger:         opts.Logger,
		outputDir:      opts.OutputDir,
		maxSongs:       opts.MaxSongs,
		interSongDelay: opts.InterSongDelay,
		runCtx:         opts.Context,
		sem:            semaphore.NewWeighted(int64(opts.MaxActiveJobs)),
	}
}

// Reserve allocates a job id in searching_tracks, for album flows where the
// tracklist is not yet known. The caller must follow up with StartReserved
// or Abort.
func (m *Manager) Reserve() string {
	id := shared.GenerateID()
	m.store.Put(models.Job{ID: id, Status: models.StatusSearchingTracks})
	return id
}

// Abort finalizes a reserved job as an error, recording the reason.
func (m *Manager) Abort(id, reason string) {
	if job, ok := m.store.Get(id); ok {
		job.Status = models.StatusError
		job.Error = reason
		m.store.Put(job)
	}
}

// Submit validates the songs, registers a new job in state starting, and
// spawns its background runner. Returns the job id.
func (m *Manager) Submit(songs []models.SongRecord) (string, error) {
	return m.start(shared.GenerateID(), songs, false)
}

// StartReserved attaches songs to a reserved job and spawns its runner.
func (m *Manager) StartReserved(id string, songs []models.SongRecord) error {
	_, err := m.start(id, songs, true)
	return err
}

func (m *Manager) start(id string, songs []models.SongRecord, reserved bool) (string, error) {
	if len(songs) == 0 {
		return "", fmt.Errorf("%w: at least one song is required", shared.ErrInvalidRequest)
	}
	if len(songs) > m.maxSongs {
		return "", fmt.Errorf("%w: too many songs (max %d)", shared.ErrInvalidRequest, m.maxSongs)
	}

	normalized := make([]models.SongRecord, len(songs))
	for i, song := range songs {
		if err := song.Validate(); err != nil {
			return "", fmt.Errorf("%w: song %d: %v", shared.ErrInvalidRequest, i+1, err)
		}
		normalized[i] = song.Normalized()
	}

	if reserved {
		if _, ok := m.store.Get(id); !ok {
			return "", fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
		}
	}

	m.store.Put(models.Job{
		ID:         id,
		Status:     models.StatusStarting,
		TotalSongs: len(normalized),
		Songs:      []models.SongOutcome{},
	})

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.sem.Acquire(m.runCtx, 1); err != nil {
			m.Abort(id, fmt.Sprintf("job runner unavailable: %v", err))
			return
		}
		defer m.sem.Release(1)
		m.run(id, normalized)
	}()

	return id, nil
}

// Status returns a read-only snapshot of the job.
func (m *Manager) Status(id string) (models.Job, error) {
	job, ok := m.store.Get(id)
	if !ok {
		return models.Job{}, fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}
	return job, nil
}

// Cancel transitions a starting/downloading job to cancelled. Cancellation
// is cooperative: the running iteration notices at the next song boundary
// and stops early, leaving already-produced outcomes intact.
func (m *Manager) Cancel(id string) error {
	status, ok := m.store.Cancel(id)
	if !ok {
		if status == "" {
			return fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
		}
		return fmt.Errorf("%w: cannot cancel download in status '%s'", shared.ErrInvalidState, status)
	}
	m.logger.Infof("cancelled download: %s", id)
	return nil
}

// PlaylistRef returns the playlist artifact path for a completed multi-song job.
func (m *Manager) PlaylistRef(id string) (string, error) {
	job, ok := m.store.Get(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}
	if job.Status != models.StatusCompleted {
		return "", fmt.Errorf("%w: download not completed yet", shared.ErrInvalidState)
	}
	if job.TotalSongs <= 1 {
		return "", fmt.Errorf("%w: no album playlist available (single song download)", shared.ErrInvalidState)
	}
	return job.PlaylistPath, nil
}

// Wait blocks until every spawned runner has finished. Used by tests and by
// graceful shutdown.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// run is the background loop for one job. It is the sole mutator of the job
// record while the job is live; every update is a full snapshot replace.
func (m *Manager) run(id string, songs []models.SongRecord) {
	logger := shared.WithLogger(m.logger, "job_id", id)

	if err := os.MkdirAll(m.outputDir, 0755); err != nil {
		logger.Errorf("failed to create output directory: %v", err)
		m.Abort(id, fmt.Sprintf("failed to create output directory: %v", err))
		return
	}

	total := len(songs)
	completed, failed := 0, 0
	outcomes := make([]models.SongOutcome, 0, total)

	snapshot := func(status models.JobStatus, progress int) bool {
		return m.store.Put(models.Job{
			ID:             id,
			Status:         status,
			TotalSongs:     total,
			CompletedSongs: completed,
			FailedSongs:    failed,
			Progress:       progress,
			Songs:          outcomes,
		})
	}

	if !snapshot(models.StatusDownloading, 0) {
		// Cancelled before the first song.
		logger.Info("job cancelled before downloading started")
		return
	}

	for i, song := range songs {
		// Cooperative cancellation, checked at song boundaries only. An
		// in-flight tool call is allowed to finish naturally; killing it
		// mid-write could leave a corrupt partial file.
		if current, ok := m.store.Get(id); ok && current.Status == models.StatusCancelled {
			logger.Infof("job cancelled after %d/%d songs", i, total)
			return
		}

		outcome := m.acquireSong(song)
		if outcome.Status == models.OutcomeCompleted {
			completed++
			logger.Infof("downloaded successfully: '%s - %s' -> %s", song.Artist, song.Title, outcome.FilePath)
		} else {
			failed++
			logger.Warnf("download failed: '%s - %s': %s", song.Artist, song.Title, outcome.Error)
		}
		outcomes = append(outcomes, outcome)

		progress := (i + 1) * 100 / total
		if !snapshot(models.StatusDownloading, progress) {
			logger.Infof("job cancelled after %d/%d songs", i+1, total)
			return
		}

		// Throttle between songs to respect external rate limits.
		if total > 1 {
			waitCtx(m.runCtx, m.interSongDelay)
		}
	}

	status := models.StatusCompleted
	if failed > 0 {
		status = models.StatusError
	}

	final := models.Job{
		ID:             id,
		Status:         status,
		TotalSongs:     total,
		CompletedSongs: completed,
		FailedSongs:    failed,
		Progress:       100,
		Songs:          outcomes,
	}

	if total > 1 && completed > 0 {
		path, err := m.emitter(outcomes, m.outputDir, id+".m3u")
		if err != nil {
			logger.Warnf("failed to create playlist: %v", err)
		} else {
			final.PlaylistPath = path
			logger.Infof("created playlist: %s (%d tracks)", path, completed)
		}
	}

	if !m.store.Put(final) {
		logger.Info("job cancelled before completion")
		return
	}

	logger.Infof("download finished: %d/%d successful, %d failed", completed, total, failed)
}

// acquireSong shields the run loop from a panicking ladder; an unexpected
// failure becomes that song's failed outcome and iteration continues.
func (m *Manager) acquireSong(song models.SongRecord) (outcome models.SongOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = models.SongOutcome{
				Title:  song.Title,
				Artist: song.Artist,
				Album:  song.Album,
				Status: models.OutcomeFailed,
				Error:  fmt.Sprintf("unexpected error: %v", r),
			}
		}
	}()

	return m.acquirer.Acquire(m.runCtx, song, m.outputDir)
}

// waitCtx sleeps for d or until the context is done.
func waitCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
