package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/local2stream/internal/formatter"
	"github.com/desertthunder/local2stream/internal/models"
	"github.com/desertthunder/local2stream/internal/tasks"
	"github.com/urfave/cli/v3"
)

// TransferRun scans the library, matches every track and appends the matches to the target playlist.
//
// Progress is printed as results arrive, in track order. A failed run still prints and records its summary
// before the job error is returned.
func (r *Runner) TransferRun(ctx context.Context, cmd *cli.Command) error {
	root, tracks, err := r.scan(ctx, cmd)
	if err != nil {
		return err
	}

	format, err := reportFormat(cmd)
	if err != nil {
		return err
	}

	catalog, err := r.openCatalog(ctx)
	if err != nil {
		return err
	}
	engine := r.newEngine(catalog, cmd.Bool("dry-run"))

	playlistID, err := engine.EnsurePlaylist(ctx, cmd.String("playlist-id"), cmd.String("playlist-name"), len(tracks))
	if err != nil {
		return err
	}

	job, err := engine.Start(ctx, tracks, playlistID)
	if err != nil {
		return err
	}

	r.writePlain("Transferring %d tracks to %s", len(tracks), catalog.Name())
	if playlistID != "" {
		r.writePlain(" playlist %s", playlistID)
	}
	if engine.Options().DryRun {
		r.writePlain(" (dry run)")
	}
	r.writePlain("\n\n")

	for ev := range job.Events() {
		if ev.Kind == tasks.EventTrack {
			r.writePlain("%s\n", ev.Message())
		}
	}

	summary := job.Wait()
	return r.finishTransfer(cmd, summary, root, format)
}

// finishTransfer prints, records and optionally exports the summary of a finished run.
func (r *Runner) finishTransfer(cmd *cli.Command, summary *tasks.Summary, root string, format formatter.Format) error {
	text, err := formatter.ExportToText(summary)
	if err != nil {
		return err
	}
	r.writePlain("\n%s", text)

	if cmd.Bool("save") {
		if err := r.saveSummary(summary, root); err != nil {
			r.logger.Warn("failed to save transfer history", "error", err)
		}
	}

	if report := cmd.String("report"); report != "" {
		if report == "-" {
			report = ""
		}
		path, err := formatter.WriteReport(summary, format, report)
		if err != nil {
			return err
		}
		r.logger.Info("report written", "path", path, "format", format)
		r.writePlain("Report saved to %s\n", path)
	}

	return summary.Err
}

// reportFormat resolves --format, falling back to the --report extension.
func reportFormat(cmd *cli.Command) (formatter.Format, error) {
	if name := cmd.String("format"); name != "" {
		return formatter.ParseFormat(name)
	}
	if report := cmd.String("report"); report != "" && report != "-" {
		return formatter.FormatFromPath(report), nil
	}
	return formatter.FormatText, nil
}

// printTracks lists per-track results as stored in the history database.
func (r *Runner) printTracks(tracks []models.TrackRecord) {
	for _, t := range tracks {
		label := models.LocalTrack{Path: t.Path, Title: t.Title, Artist: t.Artist}.Label()
		switch t.Outcome {
		case models.OutcomeMatched:
			r.writePlain("%4d. %-9s %s -> %s - %s (%s %.2f)\n", t.Position+1, t.Outcome, label,
				t.CandidateArtist, t.CandidateTitle, t.Tier, t.Confidence)
		default:
			r.writePlain("%4d. %-9s %s", t.Position+1, t.Outcome, label)
			if t.Reason != "" {
				r.writePlain(": %s", t.Reason)
			}
			r.writePlain("\n")
		}
	}
}

func statusLine(s models.JobStatus, c models.Counters) string {
	return fmt.Sprintf("%s, %d/%d processed, %d matched", s, c.Attempted, c.Total, c.Matched)
}
