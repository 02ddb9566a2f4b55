package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStreamPublisher appends events to a capped Redis stream.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamPublisher builds a publisher for stream. maxLen <= 0 keeps
// the last 10000 entries.
func NewRedisStreamPublisher(addr, password, stream string, maxLen int64) (*RedisStreamPublisher, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis addr required")
	}
	stream = strings.TrimSpace(stream)
	if stream == "" {
		stream = "portfolio:events"
	}
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &RedisStreamPublisher{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password}),
		stream: stream,
		maxLen: maxLen,
	}, nil
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, e Event) error {
	body, err := e.Encode()
	if err != nil {
		return err
	}
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"event_id": e.ID,
			"type":     e.Type,
			"payload":  string(body),
		},
	}).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// Recent returns up to count events, newest first.
func (p *RedisStreamPublisher) Recent(ctx context.Context, count int64) ([]Event, error) {
	if count <= 0 {
		count = 20
	}
	msgs, err := p.client.XRevRangeN(ctx, p.stream, "+", "-", count).Result()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p.stream, err)
	}
	events := make([]Event, 0, len(msgs))
	for _, msg := range msgs {
		raw, _ := msg.Values["payload"].(string)
		var e Event
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode stream entry %s: %w", msg.ID, err)
		}
		events = append(events, e)
	}
	return events, nil
}

func (p *RedisStreamPublisher) Close() error {
	return p.client.Close()
}
