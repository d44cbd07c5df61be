package main

import (
	"context"
	"fmt"

	"github.com/shikhar109/Downloder/internal/shared"
	"github.com/urfave/cli/v3"
)

// History lists recent retrieval attempts from the local store.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if r.history == nil {
		return fmt.Errorf("%w: history store not configured", shared.ErrMissingConfig)
	}

	limit := int(cmd.Int("limit"))
	if limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", shared.ErrInvalidFlag)
	}

	records, err := r.history.Recent(limit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}

	r.writePlain("%s\n", titleStyle.Render("Recent downloads"))
	if len(records) == 0 {
		r.writePlain("%s\n", dimStyle.Render("no downloads recorded"))
		return nil
	}

	for _, rec := range records {
		marker := okStyle.Render("ok ")
		label := rec.Artifact
		if rec.Outcome != "success" {
			marker = errStyle.Render("err")
			label = rec.ErrorKind
		}
		r.writePlain("%s  %s  %s  %s\n",
			marker,
			rec.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			label,
			dimStyle.Render(fmt.Sprintf("%s (%s)", rec.URL, elapsedString(rec.ElapsedMS))),
		)
	}
	return nil
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent download attempts",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of records to show",
				Value:   20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}
