package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists one cart's snapshot as a JSON document and broadcasts a
// change notification on a pub/sub channel after every save. Other holders of
// the same cart (another device, the background sweep) watch that channel and
// reload wholesale; the last writer wins.
type RedisStore struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
}

func (s *RedisStore) channel() string { return s.Key + ":changed" }

// Load reads the persisted snapshot. It reports whether the key existed.
func (s *RedisStore) Load(ctx context.Context) ([]LineItem, bool, error) {
	if s == nil || s.Client == nil || s.Key == "" {
		return nil, false, errors.New("cart store not configured")
	}
	data, err := s.Client.Get(ctx, s.Key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false, err
	}
	return items, true, nil
}

// Save overwrites the snapshot atomically and publishes a change notification.
func (s *RedisStore) Save(ctx context.Context, items []LineItem) error {
	if s == nil || s.Client == nil || s.Key == "" {
		return errors.New("cart store not configured")
	}
	if items == nil {
		items = []LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	if err := s.Client.Set(ctx, s.Key, data, s.TTL).Err(); err != nil {
		return err
	}
	return s.Client.Publish(ctx, s.channel(), "changed").Err()
}

// Delete removes the persisted snapshot.
func (s *RedisStore) Delete(ctx context.Context) error {
	if s == nil || s.Client == nil || s.Key == "" {
		return errors.New("cart store not configured")
	}
	if err := s.Client.Del(ctx, s.Key).Err(); err != nil {
		return err
	}
	return s.Client.Publish(ctx, s.channel(), "changed").Err()
}

// Watch subscribes to change notifications for this cart. The channel closes
// when the context ends.
func (s *RedisStore) Watch(ctx context.Context) (<-chan struct{}, error) {
	if s == nil || s.Client == nil || s.Key == "" {
		return nil, errors.New("cart store not configured")
	}
	sub := s.Client.Subscribe(ctx, s.channel())
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}
