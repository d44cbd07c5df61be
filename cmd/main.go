package main

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shikhar109/Downloder/internal/cookies"
	"github.com/shikhar109/Downloder/internal/engine"
	"github.com/shikhar109/Downloder/internal/history"
	"github.com/shikhar109/Downloder/internal/retrieval"
	"github.com/shikhar109/Downloder/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("ignoring unreadable config.toml", "error", err)
		}
	}
	config.ApplyEnv()

	var historyRepo *history.Repository
	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		logger.Warn("history store unavailable", "error", err)
	} else {
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			logger.Warn("history migrations failed", "error", err)
			db.Close()
			db = nil
		} else {
			historyRepo = history.NewRepository(db)
		}
	}

	cookieStore := cookies.NewStore(config.Cookies.Path, config.Admin.Key, logger)

	orchestrator := retrieval.NewOrchestrator(retrieval.OrchestratorOpts{
		Engine:     engine.NewYtDlp(config.Retrieval.Binary, logger),
		Workspaces: retrieval.NewWorkspaceManager(config.Retrieval.WorkspaceRoot, logger),
		Cookies:    cookieStore,
		Agents:     engine.NewUserAgentPool(config.Retrieval.UserAgents, engine.UserAgentPolicy(config.Retrieval.UserAgentPolicy)),
		History:    historyRepo,
		Metrics:    retrieval.NewPromMetrics("cutcraft", prometheus.DefaultRegisterer),
		Logger:     logger,
		Options:    retrievalOptions(config),
	})

	runner := NewRunner(RunnerOpts{
		Config:       config,
		Orchestrator: orchestrator,
		Cookies:      cookieStore,
		History:      historyRepo,
		Logger:       logger,
	})

	app := &cli.Command{
		Name:     "cutcraft",
		Usage:    "Media download backend driving yt-dlp",
		Version:  "1.0.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// retrievalOptions maps file configuration onto orchestrator policy.
func retrievalOptions(config *shared.Config) retrieval.Options {
	return retrieval.Options{
		FormatSpec:       config.Retrieval.Format,
		MergeContainer:   config.Retrieval.MergeContainer,
		SocketTimeout:    time.Duration(config.Retrieval.SocketTimeoutSeconds) * time.Second,
		Retries:          config.Retrieval.Retries,
		ExtractorRetries: config.Retrieval.ExtractorRetries,
		MaxConcurrent:    int64(config.Retrieval.MaxConcurrent),
	}
}
