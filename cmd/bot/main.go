package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/keift/chessanalyzer/analyzer"
	"github.com/keift/chessanalyzer/bot"
	"github.com/keift/chessanalyzer/config"
)

func main() {
	cfg := config.DefaultConfig()
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("could-not-load-config")
	}
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Info().Interface("config", cfg.AllSettings()).Msg("loaded-config")

	an, err := analyzer.NewAnalyzer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could-not-create-analyzer")
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bot.Main(ctx, cfg.GetString(config.ConfigNatsChannel), bot.NewBot(an)); err != nil {
		log.Fatal().Err(err).Msg("bot-exited")
	}
	log.Info().Msg("bot gracefully shut down")
}
