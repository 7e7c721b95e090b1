package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/keift/chessanalyzer/analyzer"
	"github.com/keift/chessanalyzer/bot"
	"github.com/keift/chessanalyzer/config"
)

var cfg *config.Config
var nc *nats.Conn
var chessBot *bot.Bot

const (
	HardTimeLimit = 60 * time.Second // max thinking time per request
	// Time kept back from the invocation deadline for sending the reply.
	ReplyMargin = 3 * time.Second
)

// thinkingTime keeps the search inside the invocation's deadline.
func thinkingTime(ctx context.Context, requested time.Duration) time.Duration {
	if requested <= 0 {
		requested = cfg.GetDuration(config.ConfigDefaultThinkingTime)
	}
	t := min(requested, HardTimeLimit)
	if dl, ok := ctx.Deadline(); ok {
		t = min(t, time.Until(dl)-ReplyMargin)
	}
	return max(t, time.Millisecond)
}

func HandleRequest(ctx context.Context, evt bot.LambdaEvent) (string, error) {
	logger := log.With().
		Str("requestID", evt.RequestID).
		Logger()

	req := evt.Request
	tt := thinkingTime(ctx, time.Duration(req.ThinkingTimeMs)*time.Millisecond)
	req.ThinkingTimeMs = tt.Milliseconds()
	logger.Info().Str("fen", req.FEN).Int("depth", req.Depth).
		Dur("thinking-time", tt).Msg("time-management")

	resp := chessBot.Analyze(ctx, req)
	if resp.Error != "" {
		return "", errors.New(resp.Error)
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return "", err
	}
	if evt.ReplyChannel != "" && nc != nil {
		logger.Info().Msg("move-success-sending-via-nats")
		err = retry.Do(
			func() error {
				// Only the acknowledgement matters, not its content.
				_, err := nc.Request(evt.ReplyChannel, data, 3*time.Second)
				return err
			},
			retry.Context(ctx),
			retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
				logger.Err(err).Uint("n", n).
					Msg("did-not-receive-ack-try-again")
				return retry.BackOffDelay(n, err, config)
			}),
		)
		if err != nil {
			logger.Err(err).Msg("bot-move-failed")
		}
	}
	logger.Info().Msg("exiting-fn")
	if resp.Move == nil {
		return "", nil
	}
	return resp.Move.String(), nil
}

func main() {
	cfg = config.DefaultConfig()
	if err := cfg.Load(os.Args[1:]); err != nil {
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
	chessBot = bot.NewBot(an)

	nc, err = nats.Connect(cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		log.Fatal().AnErr("natsConnectErr", err).Msg(":(")
	}

	lambda.Start(HandleRequest)
}
