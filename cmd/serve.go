package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/shikhar109/Downloder/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP gateway until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := r.config.Addr()
	if flagAddr := cmd.String("addr"); flagAddr != "" {
		addr = flagAddr
	}

	srv := server.New(server.Opts{
		Addr:           addr,
		Orchestrator:   r.orchestrator,
		Cookies:        r.cookies,
		History:        r.history,
		Logger:         r.logger,
		AllowedOrigins: r.config.Server.AllowedOrigins,
		RateLimit:      r.config.Server.RateLimit,
		RateBurst:      r.config.Server.RateBurst,
	})

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if r.config.Admin.Key == "" {
		r.logger.Warn("no admin key configured; cookie upload/delete endpoints are disabled")
	}

	return srv.Run(runCtx)
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP download gateway",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Usage:   "Listen address (overrides config host:port)",
			},
		},
		Action: r.Serve,
	}
}
