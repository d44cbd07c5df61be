package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shikhar109/Downloder/internal/shared"
	"github.com/urfave/cli/v3"
)

// CookiesStatus reports whether the shared cookie artifact is present.
func (r *Runner) CookiesStatus(ctx context.Context, cmd *cli.Command) error {
	r.writePlain("%s\n", titleStyle.Render("Cookie artifact"))
	if r.cookies.Present() {
		r.writePlain("%s %s\n", okStyle.Render("present:"), r.cookies.Path())
	} else {
		r.writePlain("%s\n", dimStyle.Render("no cookies on file"))
	}
	return nil
}

// CookiesImport installs a cookies.txt file as the shared credential
// artifact, replacing any previous one.
func (r *Runner) CookiesImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: file", shared.ErrMissingArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open cookie file: %w", err)
	}
	defer f.Close()

	if err := r.cookies.Replace(f, r.config.Admin.Key); err != nil {
		return fmt.Errorf("failed to install cookies: %w", err)
	}

	r.writePlain("%s %s\n", okStyle.Render("cookies installed:"), r.cookies.Path())
	return nil
}

// CookiesDelete removes the shared cookie artifact.
func (r *Runner) CookiesDelete(ctx context.Context, cmd *cli.Command) error {
	existed, err := r.cookies.Delete(r.config.Admin.Key)
	if err != nil {
		return fmt.Errorf("failed to delete cookies: %w", err)
	}

	if existed {
		r.writePlain("%s\n", okStyle.Render("cookies deleted"))
	} else {
		r.writePlain("%s\n", dimStyle.Render("no cookies present"))
	}
	return nil
}

// cookiesCommand manages the shared credential artifact locally. The same
// admin key that gates the HTTP endpoints applies here.
func cookiesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cookies",
		Usage: "Manage the shared cookies.txt credential",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show whether a cookie artifact is installed",
				Action: r.CookiesStatus,
			},
			{
				Name:  "import",
				Usage: "Install a cookies.txt file (replaces any existing one)",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "file",
					},
				},
				Action: r.CookiesImport,
			},
			{
				Name:   "delete",
				Usage:  "Remove the installed cookie artifact",
				Action: r.CookiesDelete,
			},
		},
	}
}
