package analyzer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/keift/chessanalyzer/config"
	"github.com/keift/chessanalyzer/rules"
	"github.com/keift/chessanalyzer/testhelpers"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigTTSizeMB, 4)
	an, err := NewAnalyzer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return an
}

func TestStartPosition(t *testing.T) {
	is := is.New(t)
	an := newTestAnalyzer(t)
	res, err := an.Analyze(context.Background(), testhelpers.StartFEN, Options{Depth: 1, ThinkingTime: 30 * time.Second})
	is.NoErr(err)
	is.True(res.Move != nil)
	is.Equal(res.Depth, 1)

	pos, err := rules.Parse(testhelpers.StartFEN)
	is.NoErr(err)
	m, err := pos.FindMove(res.Move.String())
	is.NoErr(err)
	is.Equal(m.Piece.Color(), pos.Turn())
}

func TestMateInOne(t *testing.T) {
	is := is.New(t)
	an := newTestAnalyzer(t)
	res, err := an.Analyze(context.Background(), testhelpers.MateInOneFEN, Options{Depth: 5, ThinkingTime: 30 * time.Second})
	is.NoErr(err)
	is.Equal(res.Move, &JsonMove{From: "a1", To: "a8"})
	is.Equal(res.PV, []string{testhelpers.MateInOneMove})
}

func TestMateOutranksFiftyMoveRule(t *testing.T) {
	is := is.New(t)
	an := newTestAnalyzer(t)
	res, err := an.Analyze(context.Background(), testhelpers.MateAtFiftyMoveFEN, Options{Depth: 4, ThinkingTime: 30 * time.Second})
	is.NoErr(err)
	is.Equal(res.Move, &JsonMove{From: "a1", To: "a8"})
	is.True(res.Score > 0)
}

func TestGameOverReturnsEmpty(t *testing.T) {
	an := newTestAnalyzer(t)
	for _, fen := range []string{
		testhelpers.CheckmatedFEN,
		testhelpers.StalemateFEN,
		testhelpers.KnightDrawFEN,
	} {
		fen := fen
		t.Run(fen, func(t *testing.T) {
			is := is.New(t)
			res, err := an.Analyze(context.Background(), fen, Options{})
			is.NoErr(err)
			is.True(res.Move == nil)
			is.Equal(res.Depth, 0)
		})
	}
}

func TestInvalidPosition(t *testing.T) {
	is := is.New(t)
	an := newTestAnalyzer(t)
	for _, fen := range []string{"", "hello", "8/8/8/8/8/8/8/8 w - - 0 1"} {
		_, err := an.Analyze(context.Background(), fen, Options{})
		is.True(errors.Is(err, ErrInvalidPosition))
		is.True(errors.Is(err, rules.ErrInvalidFEN))
	}
	_, err := an.Evaluate("nope")
	is.True(errors.Is(err, ErrInvalidPosition))
}

func TestPromotionIsReported(t *testing.T) {
	is := is.New(t)
	an := newTestAnalyzer(t)
	res, err := an.Analyze(context.Background(), testhelpers.PromotionFEN, Options{Depth: 3, ThinkingTime: 30 * time.Second})
	is.NoErr(err)
	is.Equal(res.Move, &JsonMove{From: "a7", To: "a8", Promotion: "q"})
}

func TestThinkingTime(t *testing.T) {
	is := is.New(t)
	an := newTestAnalyzer(t)
	budget := 250 * time.Millisecond
	start := time.Now()
	res, err := an.Analyze(context.Background(), testhelpers.KiwipeteFEN, Options{Depth: 64, ThinkingTime: budget})
	is.NoErr(err)
	is.True(time.Since(start) < budget+250*time.Millisecond)
	is.True(res.Depth < 64)
}

func TestResolveOptions(t *testing.T) {
	an := newTestAnalyzer(t)
	opts := an.resolve(Options{})
	assert.Equal(t, 8, opts.Depth)
	assert.Equal(t, 1200*time.Millisecond, opts.ThinkingTime)

	opts = an.resolve(Options{Depth: 500, ThinkingTime: time.Hour})
	assert.Equal(t, 64, opts.Depth)
	assert.Equal(t, 30*time.Second, opts.ThinkingTime)

	opts = an.resolve(Options{Depth: -3, ThinkingTime: -time.Second})
	assert.Equal(t, 1, opts.Depth)
	assert.Equal(t, 1200*time.Millisecond, opts.ThinkingTime)
}

func TestEvalParamsFromConfig(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigEvalParamsPath, filepath.Join("testdata", "params.yaml"))
	an, err := NewAnalyzer(cfg)
	is.NoErr(err)
	// the file turns the tempo bonus off, so the start position is level
	score, err := an.Evaluate(testhelpers.StartFEN)
	is.NoErr(err)
	is.Equal(score, 0)

	cfg = config.DefaultConfig()
	cfg.Set(config.ConfigEvalParamsPath, filepath.Join("testdata", "does-not-exist.yaml"))
	_, err = NewAnalyzer(cfg)
	is.True(err != nil)
}
