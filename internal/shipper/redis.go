package shipper

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/gatehouse-io/gatehouse/internal/models"
)

// RedisSink appends audit lines to a Valkey/Redis stream with XADD.
// One stream entry per audit line; the stream is capped approximately
// (XADD MAXLEN ~) so the server trims lazily.
type RedisSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisSink connects a sink using the given settings. The connection is
// lazy; the first Ship surfaces connectivity errors, which the retry
// policy then handles.
func NewRedisSink(cfg models.RedisConfig, stream string) *RedisSink {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisSink{
		client: client,
		stream: stream,
		maxLen: cfg.MaxLen,
	}
}

// Ship XADDs each entry to the stream. Values carry the raw JSON line plus
// routing fields so consumers can filter without parsing the payload.
func (s *RedisSink) Ship(ctx context.Context, branch string, entries []Entry) error {
	pipe := s.client.Pipeline()
	for _, e := range entries {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: s.stream,
			MaxLen: s.maxLen,
			Approx: true,
			Values: map[string]interface{}{
				"branch": branch,
				"line":   int64(e.LineNo),
				"event":  string(e.Line),
			},
		})
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Close releases the client connection pool.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
