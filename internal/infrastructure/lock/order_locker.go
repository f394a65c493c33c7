// Package lock provides the cross-instance lock that keeps two requests from
// deducting stock for the same sales order at the same time.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/storeops/backend/internal/application/inventory"
	"go.uber.org/zap"
)

const keyPrefix = "storeops:lock:order:"

// RedisOrderLocker implements inventory.OrderLocker with bsm/redislock
type RedisOrderLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
	logger *zap.Logger
}

// Option configures a RedisOrderLocker
type Option func(*RedisOrderLocker)

// WithRetry makes Obtain wait for a held lock, polling every interval up to
// attempts times, before giving up with ErrOrderBusy.
func WithRetry(interval time.Duration, attempts int) Option {
	return func(l *RedisOrderLocker) {
		l.retry = redislock.LimitRetry(redislock.LinearBackoff(interval), attempts)
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(l *RedisOrderLocker) {
		l.logger = logger
	}
}

// NewRedisOrderLocker creates a locker on a redis client. ttl bounds how
// long a crashed holder can block an order.
func NewRedisOrderLocker(client redislock.RedisClient, ttl time.Duration, opts ...Option) *RedisOrderLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	l := &RedisOrderLocker{
		client: redislock.New(client),
		ttl:    ttl,
		retry:  redislock.NoRetry(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Obtain takes the lock for orderID. It returns inventory.ErrOrderBusy while
// another holder has it.
func (l *RedisOrderLocker) Obtain(ctx context.Context, orderID string) (func(context.Context) error, error) {
	lock, err := l.client.Obtain(ctx, keyPrefix+orderID, l.ttl, &redislock.Options{RetryStrategy: l.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, inventory.ErrOrderBusy
	}
	if err != nil {
		return nil, fmt.Errorf("obtain order lock %s: %w", orderID, err)
	}

	return func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			// Expired before we finished; the ttl was too short for this order.
			l.logger.Warn("Order lock expired before release",
				zap.String("order_id", orderID),
				zap.Duration("ttl", l.ttl),
			)
			return nil
		}
		return err
	}, nil
}

var _ inventory.OrderLocker = (*RedisOrderLocker)(nil)
