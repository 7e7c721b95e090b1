package bot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/keift/chessanalyzer/analyzer"
)

var ErrBotResponse = errors.New("bot returned an error")

const requestSlack = 5 * time.Second

type Client struct {
	nc       *nats.Conn
	channel  string
	attempts uint
}

func NewClient(nc *nats.Conn, channel string) *Client {
	return &Client{nc: nc, channel: channel, attempts: 3}
}

// decodeResponse turns a reply into a move. A nil move with a nil error
// means the position has no move to play.
func decodeResponse(data []byte) (*analyzer.JsonMove, error) {
	resp := Response{}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.Join(ErrBotResponse, errors.New(resp.Error))
	}
	return resp.Move, nil
}

// RequestMove sends a position to the bot and waits for its move. Transport
// failures are retried; an error reported by the bot is not.
func (c *Client) RequestMove(ctx context.Context, req Request) (*analyzer.JsonMove, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(req.ThinkingTimeMs)*time.Millisecond + requestSlack

	var move *analyzer.JsonMove
	err = retry.Do(
		func() error {
			rctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			res, err := c.nc.RequestWithContext(rctx, c.channel, data)
			if err != nil {
				if c.nc.LastError() != nil {
					log.Error().Msgf("%v for request", c.nc.LastError())
				}
				return err
			}
			log.Debug().Msgf("res: %v", string(res.Data))
			move, err = decodeResponse(res.Data)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Msg("request-failed-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	return move, err
}
