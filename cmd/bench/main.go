// bench runs the analyzer over a fixed set of positions and reports timing
// and node statistics.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/keift/chessanalyzer/analyzer"
	"github.com/keift/chessanalyzer/config"
	"github.com/keift/chessanalyzer/stats"
)

const (
	flagIterations = "iterations"
	flagPositions  = "positions"
	flagDepth      = "depth"
	flagTime       = "time"
)

var benchPositions = []string{
	"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"r1bqk2r/pppp1ppp/2n2n2/2b1p3/2B1P3/3P1N2/PPP2PPP/RNBQK2R w KQkq - 0 5",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
	"6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1",
}

type sample struct {
	fen     string
	elapsed time.Duration
	nodes   uint64
	depth   int
}

type report struct {
	Runs      int           `json:"runs"`
	ElapsedMs stats.Summary `json:"elapsed_ms"`
	Nodes     stats.Summary `json:"nodes"`
	NPS       stats.Summary `json:"nps"`
	Depth     stats.Summary `json:"depth"`
}

func loadPositions(path string) ([]string, error) {
	if path == "" {
		return benchPositions, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var fens []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fens = append(fens, line)
	}
	return fens, scanner.Err()
}

func main() {
	extra := pflag.NewFlagSet("bench", pflag.ContinueOnError)
	extra.Int(flagIterations, 3, "times to analyze each position")
	extra.String(flagPositions, "", "file with one FEN per line (default: built-in set)")
	extra.Int(flagDepth, 0, "search depth (default: default-depth)")
	extra.Duration(flagTime, 0, "thinking time (default: default-thinking-time)")

	cfg := config.DefaultConfig()
	if err := cfg.Load(os.Args[1:], extra); err != nil {
		log.Fatal().Err(err).Msg("could-not-load-config")
	}
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	an, err := analyzer.NewAnalyzer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could-not-create-analyzer")
	}
	fens, err := loadPositions(cfg.GetString(flagPositions))
	if err != nil {
		log.Fatal().Err(err).Msg("could-not-load-positions")
	}
	opts := analyzer.Options{
		Depth:        cfg.GetInt(flagDepth),
		ThinkingTime: cfg.GetDuration(flagTime),
	}

	var mu sync.Mutex
	samples := []sample{}
	g := errgroup.Group{}
	g.SetLimit(cfg.GetInt(config.ConfigWorkers))
	for i := 0; i < cfg.GetInt(flagIterations); i++ {
		for _, fen := range fens {
			fen := fen
			g.Go(func() error {
				res, err := an.Analyze(context.Background(), fen, opts)
				if err != nil {
					return err
				}
				mu.Lock()
				samples = append(samples, sample{
					fen:     fen,
					elapsed: time.Duration(res.ElapsedMs) * time.Millisecond,
					nodes:   res.Nodes,
					depth:   res.Depth,
				})
				mu.Unlock()
				log.Debug().Str("fen", fen).Int("depth", res.Depth).
					Uint64("nodes", res.Nodes).Int64("elapsed-ms", res.ElapsedMs).Msg("analyzed")
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("bench-failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(summarize(samples))
}

func summarize(samples []sample) report {
	var elapsed, nodes, nps, depth stats.Statistic
	for _, s := range samples {
		ms := float64(s.elapsed.Milliseconds())
		elapsed.Push(ms)
		nodes.Push(float64(s.nodes))
		depth.Push(float64(s.depth))
		if s.elapsed > 0 {
			nps.Push(float64(s.nodes) / s.elapsed.Seconds())
		}
	}
	return report{
		Runs:      len(samples),
		ElapsedMs: elapsed.Summary(),
		Nodes:     nodes.Summary(),
		NPS:       nps.Summary(),
		Depth:     depth.Summary(),
	}
}
