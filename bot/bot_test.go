package bot

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/keift/chessanalyzer/analyzer"
	"github.com/keift/chessanalyzer/config"
	"github.com/keift/chessanalyzer/testhelpers"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func newBot(t *testing.T) *Bot {
	an, err := analyzer.NewAnalyzer(config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return NewBot(an)
}

func request(t *testing.T, req any) []byte {
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestHandleMateInOne(t *testing.T) {
	is := is.New(t)
	bot := newBot(t)
	resp := bot.handle(context.Background(), request(t, Request{
		FEN: testhelpers.MateInOneFEN, Depth: 3, ThinkingTimeMs: 1000,
	}))
	is.Equal(resp.Error, "")
	is.True(resp.Move != nil)
	is.Equal(resp.Move.String(), testhelpers.MateInOneMove)

	// The reply round-trips through the client's decoder.
	m, err := decodeResponse(request(t, resp))
	is.NoErr(err)
	is.Equal(m.String(), testhelpers.MateInOneMove)
}

func TestHandleGameOver(t *testing.T) {
	is := is.New(t)
	bot := newBot(t)
	resp := bot.handle(context.Background(), request(t, Request{FEN: testhelpers.StalemateFEN}))
	is.Equal(resp.Error, "")
	is.True(resp.Move == nil)

	data := request(t, resp)
	is.Equal(string(data), `{"move":null,"score":0,"depth":0}`)
	m, err := decodeResponse(data)
	is.NoErr(err)
	is.True(m == nil)
}

func TestHandleErrors(t *testing.T) {
	is := is.New(t)
	bot := newBot(t)

	resp := bot.handle(context.Background(), []byte("{not json"))
	is.True(resp.Move == nil)
	is.True(resp.Error != "")

	resp = bot.handle(context.Background(), request(t, Request{FEN: "rnbqkbnr/pppppppp w"}))
	is.True(resp.Move == nil)
	is.True(resp.Error != "")

	_, err := decodeResponse(request(t, resp))
	is.True(errors.Is(err, ErrBotResponse))
}

func TestRequestOptions(t *testing.T) {
	is := is.New(t)
	opts := Request{Depth: 5, ThinkingTimeMs: 750}.Options()
	is.Equal(opts.Depth, 5)
	is.Equal(opts.ThinkingTime, 750*time.Millisecond)
	is.Equal(Request{}.Options(), analyzer.Options{})
}

func TestLambdaEventJSON(t *testing.T) {
	is := is.New(t)
	evt := LambdaEvent{}
	is.NoErr(json.Unmarshal([]byte(`{"fen":"x","depth":4,"thinking_time_ms":900,"reply_channel":"r.1","request_id":"abc"}`), &evt))
	is.Equal(evt.FEN, "x")
	is.Equal(evt.Depth, 4)
	is.Equal(evt.ThinkingTimeMs, int64(900))
	is.Equal(evt.ReplyChannel, "r.1")
	is.Equal(evt.RequestID, "abc")
}
