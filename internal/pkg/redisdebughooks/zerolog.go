package redisdebughooks

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// ZerologRedisHook logs every command sent to redis at debug level.
// Only command names and keys are logged, values never are.
type ZerologRedisHook struct {
	logger *zerolog.Logger
}

func NewZerologRedisHook(logger *zerolog.Logger) *ZerologRedisHook {
	return &ZerologRedisHook{
		logger: logger,
	}
}

// DialHook implements redis.Hook.
func (z *ZerologRedisHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			z.logger.Warn().Err(err).Str("addr", addr).Msg("redis dial failed")
		}

		return conn, err
	}
}

// ProcessHook implements redis.Hook.
func (z *ZerologRedisHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)

		event := z.event(err).Str("cmd", cmd.Name()).Dur("took", time.Since(start))
		if args := cmd.Args(); len(args) > 1 {
			event = event.Interface("key", args[1])
		}

		event.Msg("redis command")

		return err
	}
}

// ProcessPipelineHook implements redis.Hook.
func (z *ZerologRedisHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)

		z.event(err).
			Strs("cmds", lo.Map(cmds, func(cmd redis.Cmder, _ int) string { return cmd.Name() })).
			Dur("took", time.Since(start)).
			Msg("redis pipeline")

		return err
	}
}

func (z *ZerologRedisHook) event(err error) *zerolog.Event {
	if err != nil && !errors.Is(err, redis.Nil) {
		return z.logger.Warn().Err(err)
	}

	return z.logger.Debug()
}

var _ redis.Hook = (*ZerologRedisHook)(nil)
