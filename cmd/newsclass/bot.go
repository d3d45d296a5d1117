package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aluiziolira/go-news-classify/bot"
	"github.com/aluiziolira/go-news-classify/classifier"
	"github.com/aluiziolira/go-news-classify/config"
)

// NewBotCmd creates the bot command.
func NewBotCmd() *cobra.Command {
	defaults := config.DefaultBotConfig()

	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot that predicts news categories",
		Long: `Bot long-polls Telegram and answers every text message with the category
predicted by the model. /help and /start list the categories; other commands
are ignored.

The token is read from BOT_TOKEN (a .env file in the working directory is
loaded first). The process runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: runBotCmd,
	}

	cmd.Flags().StringP("model", "m", defaults.ModelPath, "Model artifact path (env MODEL_PATH)")
	cmd.Flags().Int("cache-size", defaults.CacheSize, "Prediction cache entries (0 disables the cache)")
	cmd.Flags().Int("poll-timeout", defaults.PollTimeout, "Long-poll timeout in seconds")
	cmd.Flags().String("metrics-addr", "", "Prometheus metrics listen address (env BOT_METRICS_ADDR)")

	return cmd
}

func buildBotConfig(cmd *cobra.Command) (*config.BotConfig, error) {
	if err := config.LoadDotEnv(getDotEnvFlag(cmd)); err != nil {
		return nil, err
	}

	cfg := config.DefaultBotConfig()
	if err := config.ApplyBotEnv(cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.ModelPath, _ = flags.GetString("model")
	}
	if flags.Changed("cache-size") {
		cfg.CacheSize, _ = flags.GetInt("cache-size")
	}
	if flags.Changed("poll-timeout") {
		cfg.PollTimeout, _ = flags.GetInt("poll-timeout")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
	cfg.Verbose = getVerboseFlag(cmd)
	return cfg, nil
}

func runBotCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildBotConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg.Verbose)

	model, err := classifier.Load(cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	logger.Info("model loaded",
		slog.String("path", cfg.ModelPath),
		slog.Any("labels", model.Labels()),
	)

	predictor, err := classifier.NewCachedPredictor(model, cfg.CacheSize)
	if err != nil {
		return err
	}
	metrics := bot.NewMetrics()
	dispatcher := bot.NewDispatcher(predictor, metrics, logger)

	api, err := bot.Connect(cfg.Token)
	if err != nil {
		return err
	}
	logger.Info("authorized on telegram", slog.String("username", api.Self.UserName))

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return bot.NewTelegram(api, dispatcher, cfg.PollTimeout, logger).Run(gctx)
	})

	if ms := startMetricsServer(cfg.MetricsAddr, metrics.Registry, logger); ms != nil {
		g.Go(func() error {
			<-gctx.Done()
			ms.shutdown()
			return nil
		})
	}

	return g.Wait()
}
