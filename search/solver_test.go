package search

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/keift/chessanalyzer/eval"
	"github.com/keift/chessanalyzer/rules"
	"github.com/keift/chessanalyzer/testhelpers"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

var testOptions = SolverOptions{TTSizeMB: 4}

func solve(t *testing.T, fen string, limits Limits) (Result, *rules.Position) {
	t.Helper()
	pos, err := rules.Parse(fen)
	if err != nil {
		t.Fatal(err)
	}
	s := NewSolver(nil, testOptions)
	res, err := s.Solve(context.Background(), pos, limits)
	if err != nil {
		t.Fatal(err)
	}
	return res, pos
}

var generous = 60 * time.Second

func TestStartPositionDepthOne(t *testing.T) {
	is := is.New(t)
	res, pos := solve(t, testhelpers.StartFEN, Limits{Depth: 1, ThinkingTime: generous})
	is.True(res.Found)
	is.Equal(res.Depth, 1)
	_, err := pos.FindMove(res.Move.UCI())
	is.NoErr(err)
	is.Equal(res.Move.Piece.Color(), pos.Turn())
	is.Equal(pos.FEN(), testhelpers.StartFEN)
}

func TestMateInOne(t *testing.T) {
	for _, tc := range []struct {
		fen, move string
	}{
		{testhelpers.MateInOneFEN, testhelpers.MateInOneMove},
		{testhelpers.BlackMateInOneFEN, testhelpers.BlackMateInOneMove},
	} {
		tc := tc
		t.Run(tc.move, func(t *testing.T) {
			is := is.New(t)
			res, _ := solve(t, tc.fen, Limits{Depth: 4, ThinkingTime: generous})
			is.True(res.Found)
			is.Equal(res.Move.UCI(), tc.move)
			is.Equal(res.Score, eval.MateIn(1))
			is.Equal(len(res.PV), 1)
		})
	}
}

func TestNoLegalMoves(t *testing.T) {
	for _, fen := range []string{testhelpers.CheckmatedFEN, testhelpers.StalemateFEN} {
		fen := fen
		t.Run(fen, func(t *testing.T) {
			is := is.New(t)
			res, _ := solve(t, fen, Limits{Depth: 3, ThinkingTime: generous})
			is.True(!res.Found)
			is.Equal(res.Depth, 0)
		})
	}
}

func TestWinsMaterialWithFork(t *testing.T) {
	is := is.New(t)
	res, pos := solve(t, testhelpers.ForkFEN, Limits{Depth: 4, ThinkingTime: generous})
	is.True(res.Found)
	is.Equal(res.Move.UCI(), testhelpers.ForkMove)
	// a rook for a knight, give or take positional terms
	is.True(res.Score > 250)
	is.Equal(pos.Ply(), 0)
}

func TestPVSurvivesTableHits(t *testing.T) {
	is := is.New(t)
	res, pos := solve(t, testhelpers.ForkFEN, Limits{Depth: 4, ThinkingTime: generous})
	is.True(res.Found)
	is.True(len(res.PV) >= 3)
	is.Equal(res.PV[0], res.Move)
	for _, m := range res.PV {
		legal, err := pos.FindMove(m.UCI())
		is.NoErr(err)
		pos.Make(legal)
	}
}

func TestMateOnTheHundredthPly(t *testing.T) {
	is := is.New(t)
	// a1a8 mates and also completes fifty moves without a capture
	res, _ := solve(t, testhelpers.MateAtFiftyMoveFEN, Limits{Depth: 4, ThinkingTime: generous})
	is.True(res.Found)
	is.Equal(res.Move.UCI(), testhelpers.MateInOneMove)
	is.Equal(res.Score, eval.MateIn(1))
}

func TestStalemateBeforeNullMove(t *testing.T) {
	is := is.New(t)
	pos, err := rules.Parse(testhelpers.PinnedRookStalemateFEN)
	is.NoErr(err)
	is.True(pos.IsStalemate())
	s := NewSolver(nil, testOptions)
	s.reset(context.Background(), pos, time.Now(), Limits{Depth: 5, ThinkingTime: generous})
	// a window far below the draw score invites a null-move cutoff
	score, err := s.negamax(5, -1000, -999, 1, &PVLine{}, true)
	is.NoErr(err)
	is.Equal(score, eval.Draw)
	is.Equal(s.nullCutoffs, uint64(0))
}

func TestDeterministic(t *testing.T) {
	is := is.New(t)
	limits := Limits{Depth: 3, ThinkingTime: generous}
	first, _ := solve(t, testhelpers.ItalianFEN, limits)
	for i := 0; i < 2; i++ {
		again, _ := solve(t, testhelpers.ItalianFEN, limits)
		is.Equal(again.Move.UCI(), first.Move.UCI())
		is.Equal(again.Score, first.Score)
		is.Equal(again.Nodes, first.Nodes)
	}
}

func TestThinkingTimeIsRespected(t *testing.T) {
	is := is.New(t)
	budget := 300 * time.Millisecond
	start := time.Now()
	res, pos := solve(t, testhelpers.KiwipeteFEN, Limits{Depth: MaxDepth, ThinkingTime: budget})
	elapsed := time.Since(start)
	is.True(elapsed < budget+250*time.Millisecond)
	is.True(res.Depth < MaxDepth)
	is.Equal(pos.FEN(), testhelpers.KiwipeteFEN)
	if res.Found {
		_, err := pos.FindMove(res.Move.UCI())
		is.NoErr(err)
	}
}

func TestZeroThinkingTimeReturnsNothing(t *testing.T) {
	is := is.New(t)
	res, pos := solve(t, testhelpers.ItalianFEN, Limits{Depth: 8, ThinkingTime: 0})
	is.True(!res.Found)
	is.Equal(pos.FEN(), testhelpers.ItalianFEN)
}

func TestContextCancel(t *testing.T) {
	is := is.New(t)
	pos, err := rules.Parse(testhelpers.ItalianFEN)
	is.NoErr(err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := NewSolver(nil, testOptions).Solve(ctx, pos, Limits{Depth: 8, ThinkingTime: generous})
	is.True(errors.Is(err, context.Canceled))
	is.True(!res.Found)
	is.Equal(pos.Ply(), 0)
}

func TestExactEntriesLieInsideWindow(t *testing.T) {
	is := is.New(t)
	pos, err := rules.Parse(testhelpers.KiwipeteFEN)
	is.NoErr(err)
	s := NewSolver(nil, testOptions)
	stores := 0
	s.storeHook = func(score, alpha, beta int, flag uint8) {
		stores++
		switch flag {
		case TTExact:
			is.True(alpha < score && score < beta)
		case TTUpper:
			is.True(score <= alpha)
		case TTLower:
			is.True(score >= beta)
		}
	}
	_, err = s.Solve(context.Background(), pos, Limits{Depth: 3, ThinkingTime: generous})
	is.NoErr(err)
	is.True(stores > 0)
}

func TestRepetitionScoresDraw(t *testing.T) {
	is := is.New(t)
	// the knights go out and back; the third occurrence of the start
	// position scores as a draw below the root
	pos, err := rules.Parse(testhelpers.StartFEN)
	is.NoErr(err)
	for _, uci := range []string{"g1f3", "g8f6", "f3g1", "f6g8", "g1f3", "g8f6", "f3g1"} {
		m, err := pos.FindMove(uci)
		is.NoErr(err)
		pos.Make(m)
	}
	s := NewSolver(nil, testOptions)
	s.reset(context.Background(), pos, time.Now(), Limits{Depth: 1, ThinkingTime: generous})
	m, err := pos.FindMove("f6g8")
	is.NoErr(err)
	pos.Make(m)
	score, err := s.negamax(2, -Infinity, Infinity, 1, &PVLine{}, false)
	is.NoErr(err)
	is.Equal(score, eval.Draw)
}

func TestTableSizedByThinkingTime(t *testing.T) {
	is := is.New(t)
	is.Equal(ttSizeMB(32, time.Millisecond), 1)
	is.Equal(ttSizeMB(32, 250*time.Millisecond), 8)
	is.Equal(ttSizeMB(32, 10*time.Second), 32)
	is.Equal(ttSizeMB(4, time.Second), 4)

	pos, err := rules.Parse(testhelpers.ItalianFEN)
	is.NoErr(err)
	s := NewSolver(nil, SolverOptions{TTSizeMB: 32})
	_, err = s.Solve(context.Background(), pos, Limits{Depth: 2, ThinkingTime: 5 * time.Millisecond})
	is.NoErr(err)
	is.Equal(s.ttable.Size(), 1<<minSizePowerOf2)
}
