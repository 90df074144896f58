package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotydl/internal/shared"
)

// Search prints the first YouTube match for artist and name.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	artist, name := cmd.StringArg("artist"), cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: artist and name", shared.ErrMissingArgument)
	}

	finder, err := r.finderService()
	if err != nil {
		return err
	}

	url, err := finder.FindSource(ctx, artist, name)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]string{"artist": artist, "name": name, "url": url}, true)
	}
	return r.writePlain("%s\n", url)
}
