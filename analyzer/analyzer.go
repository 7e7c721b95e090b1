// Package analyzer is the entry point for analyzing a chess position: it
// validates the position, applies defaults and runs one search.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/keift/chessanalyzer/cache"
	"github.com/keift/chessanalyzer/config"
	"github.com/keift/chessanalyzer/eval"
	"github.com/keift/chessanalyzer/rules"
	"github.com/keift/chessanalyzer/search"
)

var ErrInvalidPosition = errors.New("invalid position")

// Options for one analysis. Zero values select the configured defaults.
type Options struct {
	Depth        int
	ThinkingTime time.Duration
}

type JsonMove struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

func (j JsonMove) String() string {
	return j.From + j.To + j.Promotion
}

func MakeJsonMove(m rules.Move) *JsonMove {
	return &JsonMove{
		From:      m.From.String(),
		To:        m.To.String(),
		Promotion: rules.PromoString(m.Promo),
	}
}

// Result of an analysis. Move is nil when the game is already over or no
// search depth completed in time.
type Result struct {
	Move      *JsonMove `json:"move"`
	Score     int       `json:"score"`
	Depth     int       `json:"depth"`
	Nodes     uint64    `json:"nodes"`
	ElapsedMs int64     `json:"elapsed_ms"`
	PV        []string  `json:"pv,omitempty"`
}

type Analyzer struct {
	config    *config.Config
	evaluator *eval.Evaluator
}

// NewAnalyzer loads evaluation parameters named by the configuration, once
// per process.
func NewAnalyzer(cfg *config.Config) (*Analyzer, error) {
	an := &Analyzer{config: cfg}
	params := eval.DefaultParams()
	if path := cfg.GetString(config.ConfigEvalParamsPath); path != "" {
		obj, err := cache.Load(cfg, "evalparams:"+path, func(_ *config.Config, _ string) (any, error) {
			return eval.LoadParams(path)
		})
		if err != nil {
			return nil, err
		}
		params = obj.(*eval.Params)
	}
	an.evaluator = eval.NewEvaluator(params)
	return an, nil
}

func (an *Analyzer) Config() *config.Config {
	return an.config
}

// resolve fills in defaults and clamps the options to their valid ranges.
func (an *Analyzer) resolve(opts Options) Options {
	if opts.Depth == 0 {
		opts.Depth = an.config.GetInt(config.ConfigDefaultDepth)
	}
	opts.Depth = lo.Clamp(opts.Depth, 1, search.MaxDepth)
	if opts.ThinkingTime <= 0 {
		opts.ThinkingTime = an.config.GetDuration(config.ConfigDefaultThinkingTime)
	}
	opts.ThinkingTime = min(opts.ThinkingTime, an.config.GetDuration(config.ConfigMaxThinkingTime))
	return opts
}

// Analyze returns the best move found for fen within the options' depth and
// thinking time.
func (an *Analyzer) Analyze(ctx context.Context, fen string, opts Options) (*Result, error) {
	pos, err := rules.Parse(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}
	opts = an.resolve(opts)
	if pos.IsTerminal() {
		log.Debug().Str("fen", fen).Msg("position-is-terminal")
		return &Result{}, nil
	}

	solver := search.NewSolver(an.evaluator, search.SolverOptions{
		TTSizeMB:         an.config.GetInt(config.ConfigTTSizeMB),
		TTMemoryFraction: an.config.GetFloat64(config.ConfigTTMemoryFraction),
	})
	res, err := solver.Solve(ctx, pos, search.Limits{Depth: opts.Depth, ThinkingTime: opts.ThinkingTime})
	if err != nil {
		return nil, err
	}
	out := &Result{
		Score:     res.Score,
		Depth:     res.Depth,
		Nodes:     res.Nodes,
		ElapsedMs: res.Elapsed.Milliseconds(),
		PV:        lo.Map(res.PV, func(m rules.Move, _ int) string { return m.UCI() }),
	}
	if res.Found {
		out.Move = MakeJsonMove(res.Move)
	}
	return out, nil
}

// Evaluate returns the static evaluation of fen from White's point of view.
func (an *Analyzer) Evaluate(fen string) (int, error) {
	pos, err := rules.Parse(fen)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}
	return an.evaluator.Evaluate(pos), nil
}
