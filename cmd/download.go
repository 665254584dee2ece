package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ocelot/tunesd/internal/models"
	"github.com/urfave/cli/v3"
)

// DownloadSong downloads a single song in-process and blocks until the job
// finishes.
func (r *Runner) DownloadSong(ctx context.Context, cmd *cli.Command) error {
	if err := r.components(); err != nil {
		return err
	}
	defer r.close()

	song := models.SongRecord{
		Title:  cmd.String("title"),
		Artist: cmd.String("artist"),
		Album:  cmd.String("album"),
	}.Normalized()
	if err := song.Validate(); err != nil {
		return err
	}
	if song.Album == "" {
		song.Album = "Unknown Album"
	}
	song.Query = fmt.Sprintf("%s %s official audio lyrics", song.Artist, song.Title)

	r.logger.Infof("downloading song: %s by %s", song.Title, song.Artist)

	id, err := r.manager.Submit([]models.SongRecord{song})
	if err != nil {
		return err
	}

	job, err := r.waitForJob(ctx, id)
	if err != nil {
		return err
	}
	return r.reportJob(job, cmd.Bool("json"))
}

// DownloadAlbum resolves an album tracklist, downloads every track
// in-process, and blocks until the job finishes.
func (r *Runner) DownloadAlbum(ctx context.Context, cmd *cli.Command) error {
	if err := r.components(); err != nil {
		return err
	}
	defer r.close()

	artist := cmd.String("artist")
	album := cmd.String("album")

	r.logger.Infof("resolving tracklist: %s by %s", album, artist)

	id := r.manager.Reserve()
	songs, err := r.tracks.ResolveTracks(ctx, artist, album)
	if err != nil {
		r.manager.Abort(id, err.Error())
		return fmt.Errorf("could not find tracks for album '%s' by '%s': %w", album, artist, err)
	}

	r.writePlain("Found %d tracks for %s by %s\n", len(songs), album, artist)

	if err := r.manager.StartReserved(id, songs); err != nil {
		r.manager.Abort(id, err.Error())
		return err
	}

	job, err := r.waitForJob(ctx, id)
	if err != nil {
		return err
	}
	if job.PlaylistPath != "" {
		r.writePlain("Playlist: %s\n", job.PlaylistPath)
	}
	return r.reportJob(job, cmd.Bool("json"))
}

// waitForJob polls the job until it reaches a terminal state, printing
// progress transitions along the way.
func (r *Runner) waitForJob(ctx context.Context, id string) (models.Job, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	lastProgress := -1
	for {
		job, err := r.manager.Status(id)
		if err != nil {
			return models.Job{}, err
		}
		if job.Progress != lastProgress {
			lastProgress = job.Progress
			r.writePlain("  %s: %d%% (%d/%d done, %d failed)\n",
				job.Status, job.Progress, job.CompletedSongs, job.TotalSongs, job.FailedSongs)
		}
		if job.Status.Terminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			// The job may have gone terminal since the last poll; the final
			// Status read below reports whichever state won.
			if err := r.manager.Cancel(id); err != nil {
				r.logger.Warnf("cancel failed: %v", err)
			}
			r.manager.Wait()
			final, err := r.manager.Status(id)
			if err != nil {
				return models.Job{}, err
			}
			return final, nil
		case <-ticker.C:
		}
	}
}

func (r *Runner) reportJob(job models.Job, asJSON bool) error {
	if asJSON {
		return r.writeJSON(job, true)
	}

	switch job.Status {
	case models.StatusCompleted:
		r.writePlainln("✓ Download complete: %d succeeded, %d failed", job.CompletedSongs, job.FailedSongs)
	case models.StatusCancelled:
		r.writePlainln("✗ Download cancelled after %d of %d songs", job.CompletedSongs, job.TotalSongs)
	default:
		r.writePlainln("✗ Download failed: %s", job.Error)
	}

	for _, outcome := range job.Songs {
		if outcome.Status == models.OutcomeCompleted {
			r.writePlain("  ✓ %s - %s: %s\n", outcome.Artist, outcome.Title, outcome.FilePath)
		} else {
			r.writePlain("  ✗ %s - %s: %s\n", outcome.Artist, outcome.Title, outcome.Error)
		}
	}

	if job.Status != models.StatusCompleted {
		return fmt.Errorf("download finished in status '%s'", job.Status)
	}
	return nil
}

// downloadCommand handles in-process song and album downloads
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download a song or album without running the API",
		Commands: []*cli.Command{
			{
				Name:  "song",
				Usage: "Download a single song",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "title",
						Aliases:  []string{"t"},
						Usage:    "Song title",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "artist",
						Aliases:  []string{"a"},
						Usage:    "Artist name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "album",
						Usage: "Album name (used for tagging)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the final job record as JSON",
					},
				},
				Action: r.DownloadSong,
			},
			{
				Name:  "album",
				Usage: "Resolve an album tracklist and download every track",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "artist",
						Aliases:  []string{"a"},
						Usage:    "Artist name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "album",
						Usage:    "Album name",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print the final job record as JSON",
					},
				},
				Action: r.DownloadAlbum,
			},
		},
	}
}
