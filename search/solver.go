// Package search finds the best move in a chess position with an
// iterative-deepening alpha-beta search bounded by a wall-clock deadline.
package search

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/keift/chessanalyzer/eval"
	"github.com/keift/chessanalyzer/moveorder"
	"github.com/keift/chessanalyzer/rules"
)

// ErrTimeout is how a search unwinds once its deadline passes.
var ErrTimeout = errors.New("search deadline exceeded")

const (
	MaxDepth = 64

	aspirationMinDepth = 3
	aspirationWindow   = 60

	DefaultTTSizeMB = 32
	// at most this much of the table is reached per second of thinking
	ttMBPerSecond = 32
)

// Limits bound one search.
type Limits struct {
	Depth        int
	ThinkingTime time.Duration
}

// Result of a search. Found is false when no depth completed or the
// position has no legal moves.
type Result struct {
	Move    rules.Move
	Found   bool
	Score   int
	Depth   int
	Nodes   uint64
	Elapsed time.Duration
	PV      []rules.Move
}

type SolverOptions struct {
	TTSizeMB         int
	TTMemoryFraction float64
}

// Solver holds the state of one search: the position being searched, the
// transposition table, killer and history tables, and the deadline. A
// Solver must not be used by two goroutines at once.
type Solver struct {
	evaluator *eval.Evaluator
	options   SolverOptions

	pos      *rules.Position
	ttable   *TranspositionTable
	order    *moveorder.Orderer
	ctx      context.Context
	deadline time.Time
	stopped  error

	nodes       uint64
	qnodes      uint64
	nullCutoffs uint64

	storeHook func(score, alpha, beta int, flag uint8)
}

func NewSolver(ev *eval.Evaluator, opts SolverOptions) *Solver {
	s := &Solver{}
	s.Init(ev, opts)
	return s
}

func (s *Solver) Init(ev *eval.Evaluator, opts SolverOptions) {
	if ev == nil {
		ev = eval.NewEvaluator(nil)
	}
	if opts.TTSizeMB <= 0 {
		opts.TTSizeMB = DefaultTTSizeMB
	}
	s.evaluator = ev
	s.options = opts
	s.ttable = &TranspositionTable{}
	s.order = moveorder.New()
}

func (s *Solver) checkStop() error {
	if s.stopped != nil {
		return s.stopped
	}
	if !time.Now().Before(s.deadline) {
		s.stopped = ErrTimeout
	} else if s.nodes&1023 == 0 {
		if err := s.ctx.Err(); err != nil {
			s.stopped = err
		}
	}
	return s.stopped
}

func (s *Solver) reset(ctx context.Context, pos *rules.Position, start time.Time, limits Limits) {
	s.pos = pos
	s.ctx = ctx
	s.deadline = start.Add(limits.ThinkingTime)
	if d, ok := ctx.Deadline(); ok && d.Before(s.deadline) {
		s.deadline = d
	}
	s.stopped = nil
	s.nodes = 0
	s.qnodes = 0
	s.nullCutoffs = 0
	s.order.Clear()
	s.ttable.Reset(ttSizeMB(s.options.TTSizeMB, limits.ThinkingTime), s.options.TTMemoryFraction)
}

// ttSizeMB scales the configured table size down for short searches, which
// would otherwise spend their budget clearing memory they never touch.
func ttSizeMB(configured int, thinking time.Duration) int {
	return min(configured, max(1, int(thinking*ttMBPerSecond/time.Second)))
}

// Solve searches pos by iterative deepening up to limits.Depth plies or
// until limits.ThinkingTime elapses, whichever comes first. Only fully
// completed depths count; if none completes the result has Found false.
// pos is restored to its original state before Solve returns. The error
// is non-nil only when ctx ended the search.
func (s *Solver) Solve(ctx context.Context, pos *rules.Position, limits Limits) (Result, error) {
	start := time.Now()
	limits.Depth = min(max(limits.Depth, 1), MaxDepth)
	s.reset(ctx, pos, start, limits)
	rootPly := pos.Ply()

	var best Result
	if !pos.HasLegalMoves() {
		best.Elapsed = time.Since(start)
		return best, nil
	}

	prevScore := 0
	var stopErr error
	for depth := 1; depth <= limits.Depth; depth++ {
		alpha, beta := -Infinity, Infinity
		if depth >= aspirationMinDepth {
			alpha, beta = prevScore-aspirationWindow, prevScore+aspirationWindow
		}
		pv := &PVLine{}
		var score int
		for {
			score, stopErr = s.negamax(depth, alpha, beta, 0, pv, false)
			if stopErr != nil {
				break
			}
			if score <= alpha && alpha > -Infinity {
				log.Debug().Int("depth", depth).Int("score", score).Msg("aspiration-fail-low")
				alpha = -Infinity
				continue
			}
			if score >= beta && beta < Infinity {
				log.Debug().Int("depth", depth).Int("score", score).Msg("aspiration-fail-high")
				beta = Infinity
				continue
			}
			break
		}
		if stopErr != nil {
			log.Debug().Int("depth", depth).Err(stopErr).Msg("discarding-incomplete-depth")
			break
		}
		if len(pv.Moves) == 0 {
			// cannot happen with a full window; keep the last completed depth
			log.Warn().Int("depth", depth).Msg("empty-root-pv")
			break
		}
		prevScore = score
		best = Result{
			Move:  pv.Moves[0],
			Found: true,
			Score: score,
			Depth: depth,
			PV:    append([]rules.Move(nil), pv.Moves...),
		}
		log.Debug().Int("depth", depth).Int("score", score).
			Uint64("nodes", s.nodes).Str("pv", pv.String()).
			Dur("elapsed", time.Since(start)).Msg("deepening-iteratively")

		if eval.IsMateScore(score) && eval.Mate-abs(score) <= depth {
			// a shorter mate than this cannot exist
			break
		}
	}
	if pos.Ply() != rootPly {
		panic("search: position not restored after search")
	}

	best.Nodes = s.nodes
	best.Elapsed = time.Since(start)
	created, lookups, hits, rejected, t2 := s.ttable.Stats()
	log.Debug().Str("best", best.Move.UCI()).Bool("found", best.Found).
		Int("score", best.Score).Int("depth", best.Depth).
		Uint64("nodes", s.nodes).Uint64("qnodes", s.qnodes).
		Uint64("null-cutoffs", s.nullCutoffs).
		Uint64("ttable-created", created).Uint64("ttable-lookups", lookups).
		Uint64("ttable-hits", hits).Uint64("ttable-rejected", rejected).
		Uint64("ttable-t2collisions", t2).
		Float64("time-elapsed-sec", best.Elapsed.Seconds()).
		Msg("solve-returning")

	if stopErr != nil && !errors.Is(stopErr, ErrTimeout) {
		return best, stopErr
	}
	return best, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
