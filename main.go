package main

import (
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/keift/chessanalyzer/analyzer"
	"github.com/keift/chessanalyzer/config"
	"github.com/keift/chessanalyzer/shell"
)

const flagProfilePath = "profilepath"

func main() {
	extra := pflag.NewFlagSet("shell", pflag.ContinueOnError)
	extra.String(flagProfilePath, "", "path for profile")

	cfg := config.DefaultConfig()
	if err := cfg.Load(os.Args[1:], extra); err != nil {
		log.Fatal().Err(err).Msg("could-not-load-config")
	}
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if path := cfg.GetString(flagProfilePath); path != "" {
		f, err := os.Create(path)
		if err != nil {
			log.Fatal().Err(err).Msg("")
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	an, err := analyzer.NewAnalyzer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could-not-create-analyzer")
	}

	idleConnsClosed := make(chan struct{})
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("got quit signal...")
		close(idleConnsClosed)
	}()

	sc := shell.NewShellController(an)
	go sc.Loop(sig)

	<-idleConnsClosed
	log.Debug().Msg("exiting")
}
