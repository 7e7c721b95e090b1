// Package bot answers analysis requests arriving over NATS.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cespare/xxhash"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/keift/chessanalyzer/analyzer"
	"github.com/keift/chessanalyzer/config"
)

// Request asks for the best move in FEN. Zero depth and thinking time
// select the configured defaults.
type Request struct {
	FEN            string `json:"fen"`
	Depth          int    `json:"depth,omitempty"`
	ThinkingTimeMs int64  `json:"thinking_time_ms,omitempty"`
}

func (r Request) Options() analyzer.Options {
	return analyzer.Options{
		Depth:        r.Depth,
		ThinkingTime: time.Duration(r.ThinkingTimeMs) * time.Millisecond,
	}
}

// Response carries either a move (null when the game is over) or an error.
type Response struct {
	Move  *analyzer.JsonMove `json:"move"`
	Score int                `json:"score"`
	Depth int                `json:"depth"`
	Error string             `json:"error,omitempty"`
}

// LambdaEvent is the payload of a Lambda invocation. When ReplyChannel is
// set the Response is also sent there over NATS.
type LambdaEvent struct {
	Request
	RequestID    string `json:"request_id"`
	ReplyChannel string `json:"reply_channel"`
}

type Bot struct {
	config   *config.Config
	analyzer *analyzer.Analyzer
}

func NewBot(an *analyzer.Analyzer) *Bot {
	return &Bot{config: an.Config(), analyzer: an}
}

func errorResponse(message string, err error) *Response {
	msg := message
	if err != nil {
		msg = message + ": " + err.Error()
	}
	return &Response{Error: msg}
}

// Analyze answers one request.
func (bot *Bot) Analyze(ctx context.Context, req Request) *Response {
	res, err := bot.analyzer.Analyze(ctx, req.FEN, req.Options())
	if errors.Is(err, analyzer.ErrInvalidPosition) {
		return errorResponse("invalid position", err)
	} else if err != nil {
		return errorResponse("analysis failed", err)
	}
	return &Response{Move: res.Move, Score: res.Score, Depth: res.Depth}
}

func (bot *Bot) handle(ctx context.Context, data []byte) *Response {
	req := Request{}
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse("could not parse request", err)
	}
	resp := bot.Analyze(ctx, req)
	logger := log.With().Uint64("fen-hash", xxhash.Sum64String(req.FEN)).Logger()
	if resp.Error != "" {
		logger.Info().Str("error", resp.Error).Msg("request-failed")
	} else if resp.Move != nil {
		logger.Info().Str("move", resp.Move.String()).Int("depth", resp.Depth).Msg("generated-move")
	} else {
		logger.Info().Msg("no-move")
	}
	return resp
}

// Main subscribes to channel on the configured NATS server and answers
// requests until ctx is done.
func Main(ctx context.Context, channel string, bot *Bot) error {
	nc, err := nats.Connect(bot.config.GetString(config.ConfigNatsURL))
	if err != nil {
		return err
	}
	defer nc.Close()

	sub, err := nc.Subscribe(channel, func(m *nats.Msg) {
		log.Info().Msgf("RECV: %d bytes", len(m.Data))
		resp := bot.handle(ctx, m.Data)
		data, err := json.Marshal(resp)
		if err != nil {
			// Should never happen, but the requester still needs an answer.
			m.Respond([]byte(err.Error()))
			return
		}
		if err := m.Respond(data); err != nil {
			log.Err(err).Msg("respond-failed")
		}
	})
	if err != nil {
		return err
	}
	nc.Flush()
	if err := nc.LastError(); err != nil {
		return err
	}
	log.Info().Msgf("Listening on [%s]", channel)

	<-ctx.Done()
	log.Info().Msg("draining-subscription")
	return sub.Drain()
}
