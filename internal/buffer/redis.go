package buffer

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"tickrecorder/config"
)

// Redis is a Buffer backed by Redis lists, one list per instrument, with a
// set indexing the instruments seen. Records acknowledged by Push survive a
// process crash.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects a Redis-backed buffer. The password should already be
// resolved for the running environment.
func NewRedis(cfg config.RedisConfig, password string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("buffer: redis ping: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "tick"
	}
	return &Redis{client: client, prefix: prefix}, nil
}

// NewRedisWithClient wraps an existing client, mainly for tests.
func NewRedisWithClient(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) listKey(symbol string) string {
	return r.prefix + ":" + symbol
}

func (r *Redis) indexKey() string {
	return r.prefix + ":instruments"
}

// Push appends the row to the instrument's list and registers the instrument
// in the index set in a single transaction.
func (r *Redis) Push(ctx context.Context, symbol, row string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, r.listKey(symbol), row)
		pipe.SAdd(ctx, r.indexKey(), symbol)
		return nil
	})
	if err != nil {
		return fmt.Errorf("buffer: push %s: %w", symbol, err)
	}
	return nil
}

// DrainAll reads and clears each indexed instrument's list. The read and the
// delete run in one MULTI per instrument, so a concurrent push lands either
// in the returned batch or in the list for the next drain.
func (r *Redis) DrainAll(ctx context.Context) (map[string][]string, error) {
	symbols, err := r.Instruments(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]string)
	for _, symbol := range symbols {
		key := r.listKey(symbol)

		var rangeCmd *redis.StringSliceCmd
		_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			rangeCmd = pipe.LRange(ctx, key, 0, -1)
			pipe.Del(ctx, key)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("buffer: drain %s: %w", symbol, err)
		}

		rows, err := rangeCmd.Result()
		if err != nil {
			return nil, fmt.Errorf("buffer: drain %s: %w", symbol, err)
		}
		if len(rows) > 0 {
			out[symbol] = rows
		}
	}
	return out, nil
}

// Instruments returns the members of the index set.
func (r *Redis) Instruments(ctx context.Context) ([]string, error) {
	symbols, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("buffer: instruments: %w", err)
	}
	return symbols, nil
}

// Close releases the underlying connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
