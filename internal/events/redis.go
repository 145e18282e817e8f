package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Redis is a Bus over Redis pub/sub, one channel per video. It lets the API
// stream events produced by a separate worker process.
type Redis struct {
	client *redis.Client
	prefix string
	buffer int
	logger logrus.FieldLogger
}

// NewRedis returns a Redis bus publishing on prefix+videoID.
func NewRedis(client *redis.Client, prefix string, logger logrus.FieldLogger) *Redis {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Redis{client: client, prefix: prefix, buffer: DefaultBuffer, logger: logger}
}

func (r *Redis) channel(videoID string) string {
	return r.prefix + videoID
}

func (r *Redis) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("events: marshal: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel(e.VideoID), payload).Err(); err != nil {
		return fmt.Errorf("events: publish: %w", err)
	}
	return nil
}

func (r *Redis) Subscribe(ctx context.Context, videoID string) (<-chan Event, error) {
	ps := r.client.Subscribe(ctx, r.channel(videoID))
	// Wait for the subscription confirmation so no event published after
	// Subscribe returns is missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("events: subscribe: %w", err)
	}

	out := make(chan Event, r.buffer)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					r.logger.WithError(err).WithField("channel", msg.Channel).Warn("Dropping malformed event")
					continue
				}
				select {
				case out <- e:
				default:
				}
			}
		}
	}()
	return out, nil
}

// Close is a no-op; the Redis client is owned by the caller.
func (r *Redis) Close() error {
	return nil
}
