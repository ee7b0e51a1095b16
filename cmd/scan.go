package main

import (
	"context"
	"path/filepath"

	"github.com/desertthunder/local2stream/internal/models"
	"github.com/desertthunder/local2stream/internal/shared"
	"github.com/urfave/cli/v3"
)

// libraryPath resolves --library against the configured library path.
func (r *Runner) libraryPath(cmd *cli.Command) string {
	if path := cmd.String("library"); path != "" {
		return path
	}
	return r.config.Library.Path
}

func (r *Runner) scan(ctx context.Context, cmd *cli.Command) (string, []models.LocalTrack, error) {
	root := r.libraryPath(cmd)
	tracks, err := r.scanner().Scan(ctx, root)
	if err != nil {
		return root, nil, err
	}
	if len(tracks) == 0 {
		return root, nil, shared.ErrNoTracks
	}
	return root, tracks, nil
}

// Scan prints the metadata read from each supported file in the library.
func (r *Runner) Scan(ctx context.Context, cmd *cli.Command) error {
	root, tracks, err := r.scan(ctx, cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Library: " + root)
	for i, track := range tracks {
		r.writePlain("%3d. %s", i+1, track.Label())
		if track.Album != "" {
			r.writePlain(" (%s)", track.Album)
		}
		r.writePlain("  [%s, %s]\n", filepath.Ext(track.Path), shared.FormatDuration(track.Duration))
	}

	var untagged int
	for _, track := range tracks {
		if track.Artist == "" {
			untagged++
		}
	}
	r.writePlainln("%d files found, %d without an artist", len(tracks), untagged)
	return nil
}
