package main

import (
	"context"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/keift/chessanalyzer/analyzer"
	"github.com/keift/chessanalyzer/bot"
	"github.com/keift/chessanalyzer/config"
)

func setUp(t *testing.T) {
	cfg = config.DefaultConfig()
	an, err := analyzer.NewAnalyzer(cfg)
	if err != nil {
		t.Fatal(err)
	}
	chessBot = bot.NewBot(an)
	nc = nil
}

func TestHandleRequest(t *testing.T) {
	is := is.New(t)
	setUp(t)
	evt := bot.LambdaEvent{
		Request: bot.Request{
			FEN:            "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1",
			Depth:          4,
			ThinkingTimeMs: 1000,
		},
		RequestID: "foo",
	}
	ret, err := HandleRequest(context.Background(), evt)
	is.NoErr(err)
	is.Equal(ret, "a1a8")
}

func TestHandleRequestErrors(t *testing.T) {
	is := is.New(t)
	setUp(t)
	_, err := HandleRequest(context.Background(), bot.LambdaEvent{Request: bot.Request{FEN: "garbage"}})
	is.True(err != nil)

	// Checkmated: nothing to play, not an error.
	ret, err := HandleRequest(context.Background(), bot.LambdaEvent{Request: bot.Request{
		FEN: "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3",
	}})
	is.NoErr(err)
	is.Equal(ret, "")
}

func TestThinkingTime(t *testing.T) {
	is := is.New(t)
	setUp(t)
	is.Equal(thinkingTime(context.Background(), 0), 1200*time.Millisecond)
	is.Equal(thinkingTime(context.Background(), 5*time.Minute), HardTimeLimit)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	tt := thinkingTime(ctx, 30*time.Second)
	is.True(tt <= 7*time.Second)
	is.True(tt > 6*time.Second)
}
