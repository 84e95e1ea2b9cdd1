package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type names registered with the asynq mux.
const (
	TypeOrderNotify = "order:notify"
	TypeCartSweep   = "cart:sweep"
)

// OrderNotifyPayload carries the identifiers the notification handler needs.
type OrderNotifyPayload struct {
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
}

// Client wraps the asynq client with typed enqueue helpers.
type Client struct {
	A *asynq.Client
}

// NewClient builds a task client from a Redis connection URI.
func NewClient(redisURL string) (*Client, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis uri: %w", err)
	}
	return &Client{A: asynq.NewClient(opt)}, nil
}

// Close releases the underlying asynq client.
func (c *Client) Close() error {
	if c == nil || c.A == nil {
		return nil
	}
	return c.A.Close()
}

// EnqueueOrderNotify schedules a customer notification for the order.
func (c *Client) EnqueueOrderNotify(ctx context.Context, orderID, userID string) error {
	if c == nil || c.A == nil {
		return errors.New("tasks: client not configured")
	}
	payload, err := json.Marshal(OrderNotifyPayload{OrderID: orderID, UserID: userID})
	if err != nil {
		return err
	}
	_, err = c.A.EnqueueContext(ctx, asynq.NewTask(TypeOrderNotify, payload),
		asynq.MaxRetry(5),
		asynq.Queue("default"),
	)
	return err
}
