package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/keift/chessanalyzer/analyzer"
	"github.com/keift/chessanalyzer/config"
	"github.com/keift/chessanalyzer/server"
)

const (
	GracefulShutdownTimeout = 20 * time.Second
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
	srv := server.New(an)
	httpSrv := &http.Server{Addr: cfg.GetString(config.ConfigHTTPAddr), Handler: srv.Handler()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	// Workers outlive the signal so requests in flight can finish.
	poolCtx, stopPool := context.WithCancel(context.Background())

	g := errgroup.Group{}
	g.Go(func() error {
		return srv.Run(poolCtx)
	})
	g.Go(func() error {
		log.Info().Str("addr", httpSrv.Addr).Msg("listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			stop()
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("got quit signal...")
		sctx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
		defer cancel()
		err := httpSrv.Shutdown(sctx)
		stopPool()
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server-exited-with-error")
	}
	log.Info().Msg("server gracefully shut down")
}
