package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/shikhar109/Downloder/internal/retrieval"
	"github.com/shikhar109/Downloder/internal/shared"
	"github.com/urfave/cli/v3"
)

// Fetch performs a one-shot retrieval from the command line and copies the
// artifact out of its workspace before cleanup.
func (r *Runner) Fetch(ctx context.Context, cmd *cli.Command) error {
	url := cmd.StringArg("url")
	if url == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	outDir := cmd.String("output")
	if outDir == "" {
		outDir = "."
	}

	result, err := r.orchestrator.Retrieve(ctx, url)
	if err != nil {
		kind := retrieval.KindOf(err)
		r.writePlain("%s %s\n", errStyle.Render("download failed:"), kind)
		if detail := retrieval.DetailOf(err); detail != "" {
			r.writePlain("%s\n", dimStyle.Render(detail))
		}
		return err
	}
	defer result.Close()

	destination := filepath.Join(outDir, result.Filename)
	if err := copyFile(result.ArtifactPath, destination); err != nil {
		return fmt.Errorf("failed to save artifact: %w", err)
	}

	r.writePlain("%s %s (%s)\n", okStyle.Render("saved"), destination, result.Elapsed.Round(10*time.Millisecond))
	return nil
}

// copyFile copies src to dst. A plain copy rather than a rename: the
// workspace may live on a different filesystem than the destination.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func fetchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "fetch",
		Usage: "Download one URL to a local directory",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "url",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory to place the downloaded file in",
				Value:   ".",
			},
		},
		Action: r.Fetch,
	}
}
