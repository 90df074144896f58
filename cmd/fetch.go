package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotydl/internal/formatter"
	"github.com/desertthunder/spotydl/internal/shared"
)

// Fetch resolves a catalog URL and exports its normalized tracks.
func (r *Runner) Fetch(ctx context.Context, cmd *cli.Command) error {
	url := cmd.StringArg("url")
	if url == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	catalog, err := r.catalogService()
	if err != nil {
		return err
	}

	r.logger.Info("fetching catalog metadata", "url", url)
	meta, err := catalog.FetchMetadata(ctx, url)
	if err != nil {
		return err
	}
	r.logger.Info("resolved", "name", meta.Name, "tracks", len(meta.Tracks))

	if cmd.Bool("stdout") {
		data, err := formatter.Export(meta, format)
		if err != nil {
			return err
		}
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	path, err := formatter.Write(meta, format, cmd.String("output"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Exported %s (%d tracks) to %s\n", meta.Name, len(meta.Tracks), path)
}
