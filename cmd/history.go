package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/local2stream/internal/models"
	"github.com/desertthunder/local2stream/internal/repositories"
	"github.com/desertthunder/local2stream/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) jobs() (*repositories.JobRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewJobRepository(db), nil
}

// HistoryList prints recorded transfers, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.jobs()
	if err != nil {
		return err
	}

	records, err := repo.List(map[string]any{
		"status":  cmd.String("status"),
		"catalog": cmd.String("catalog"),
		"limit":   int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}
	if len(records) == 0 {
		r.writePlain("No transfers recorded\n")
		return nil
	}

	r.writePlainHeader("Transfer History")
	for _, rec := range records {
		created := rec.Created.Local().Format("2006-01-02 15:04")
		r.writePlain("#%-4d %s  %s  %-8s %s\n", rec.Sequence, created, rec.JobID, rec.Catalog, statusLine(rec.Status, rec.Counters))
	}
	return nil
}

// HistoryShow prints one transfer and its per-track results.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: job id", shared.ErrMissingArgument)
	}

	repo, err := r.jobs()
	if err != nil {
		return err
	}

	rec, err := repo.Get(id)
	if err != nil {
		return err
	}
	tracks, err := repo.ListTracks(id, models.Outcome(cmd.String("outcome")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(struct {
			Job    *models.JobRecord    `json:"job"`
			Tracks []models.TrackRecord `json:"tracks"`
		}{rec, tracks}, true)
	}

	r.writePlainHeader(fmt.Sprintf("Transfer #%d (%s)", rec.Sequence, rec.JobID))
	r.writePlain("Catalog:  %s\n", rec.Catalog)
	r.writePlain("Playlist: %s\n", rec.PlaylistID)
	r.writePlain("Library:  %s\n", rec.LibraryPath)
	r.writePlain("Status:   %s\n", statusLine(rec.Status, rec.Counters))
	if rec.ErrorMessage != "" {
		r.writePlain("Error:    %s\n", rec.ErrorMessage)
	}
	r.writePlain("Success:  %.1f%%\n\n", shared.Percent(rec.Counters.Matched, rec.Counters.Total))
	r.printTracks(tracks)
	return nil
}

// HistoryDelete soft-deletes a recorded transfer.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: job id", shared.ErrMissingArgument)
	}

	repo, err := r.jobs()
	if err != nil {
		return err
	}
	if err := repo.Delete(id); err != nil {
		return err
	}
	r.logger.Info("deleted transfer", "job", id)
	r.writePlain("✓ Deleted %s\n", id)
	return nil
}
