package cmd

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/brogergvhs/pocketbot/internal/bot"
	"github.com/brogergvhs/pocketbot/internal/config"
	"github.com/brogergvhs/pocketbot/internal/pipeline"
	"github.com/brogergvhs/pocketbot/internal/scraper"
	"github.com/brogergvhs/pocketbot/internal/telegram"
	"github.com/brogergvhs/pocketbot/internal/ui"
	"github.com/brogergvhs/pocketbot/internal/util"
)

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the bot and poll for chapter commands",
		RunE:  runServe,
	}

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, usedPath, err := config.Load(config.Options{
		File:  flagConfig,
		Debug: flagDebug,
	})
	if err != nil {
		return err
	}

	if cfg.Token == "" {
		return fmt.Errorf("missing bot token: set TOKEN or run `pocketbot config init`")
	}

	logSvc := ui.NewLogger(cfg.Debug)
	defer func() {
		_ = logSvc.Sync()
	}()

	if usedPath != "" {
		logSvc.Infow("config loaded", "path", usedPath)
	}
	if !cfg.Credentials().Present() {
		logSvc.Info("no site credentials configured, fetching chapters anonymously")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return fmt.Errorf("cannot reach the Bot API: %w", err)
	}
	api.Debug = cfg.Debug

	scr := scraper.New(scraper.Config{
		BaseURL:     cfg.BaseURL,
		Credentials: cfg.Credentials(),
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.Timeout(),
	}, logSvc)

	var pm *ui.MPBProgressManager
	if cfg.Progress {
		pm = ui.NewProgressManager()
		defer pm.Close()
	}

	stats := &ui.Stats{}
	pipe := pipeline.New(pipeline.Options{
		Sender:   telegram.NewSender(api),
		Fetcher:  scr,
		Logger:   logSvc,
		Progress: pm,
		Stats:    stats,
		Timeout:  cfg.Timeout(),
	})

	ctx := util.SignalContext(context.Background())
	bot.New(api, pipe, logSvc).Run(ctx)

	logSvc.Infow("delivery summary",
		"chapters", stats.TotalChapters.Load(),
		"images", stats.TotalImages.Load(),
		"archive_data", util.Human(stats.TotalBytes.Load()),
	)

	return nil
}
