// Package cache keeps advisory price quotes in Redis and invalidates them
// after bookings. The cache is a best-effort side channel: every error is
// logged and swallowed by callers, and nothing in the booking path relies on
// it for correctness.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/dynamic-ticketing/internal/model"
)

const scanBatch = 100

// NewRedisClient creates a Redis client from a redis:// URL or a bare
// host:port and checks it with a ping.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	opts.PoolSize = 50
	opts.MinIdleConns = 5
	opts.MaxRetries = 3

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// PriceCache stores price breakdowns keyed by event id and booked count, so a
// booking naturally moves readers to a new key even before invalidation runs.
type PriceCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewPriceCache constructs a PriceCache.
func NewPriceCache(rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *PriceCache {
	return &PriceCache{rdb: rdb, ttl: ttl, logger: logger}
}

// QuoteKey is the cache key for an event's quote at a given booked count.
func QuoteKey(eventID int64, booked int) string {
	return fmt.Sprintf("pricing:%d:%d", eventID, booked)
}

func eventPattern(eventID int64) string {
	return fmt.Sprintf("pricing:%d:*", eventID)
}

// cachedQuote keeps the unrounded unit price, which the API encoding omits.
type cachedQuote struct {
	model.PricingBreakdown
	UnitPrice decimal.Decimal `json:"unit_price"`
}

func encodeQuote(b model.PricingBreakdown) ([]byte, error) {
	return json.Marshal(cachedQuote{PricingBreakdown: b, UnitPrice: b.UnitPrice})
}

// GetQuote returns a cached quote. Misses and errors both report ok=false.
func (c *PriceCache) GetQuote(ctx context.Context, event model.Event) (model.PricingBreakdown, bool) {
	key := QuoteKey(event.ID, event.BookedTickets)
	raw, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("price cache get failed")
		}
		return model.PricingBreakdown{}, false
	}

	var q cachedQuote
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("price cache entry unreadable")
		return model.PricingBreakdown{}, false
	}
	if q.UnitPrice.IsZero() && !q.FinalPrice.IsZero() {
		return model.PricingBreakdown{}, false
	}
	b := q.PricingBreakdown
	b.UnitPrice = q.UnitPrice
	return b, true
}

// SetQuote stores a quote for the cache TTL.
func (c *PriceCache) SetQuote(ctx context.Context, event model.Event, b model.PricingBreakdown) {
	key := QuoteKey(event.ID, event.BookedTickets)
	payload, err := encodeQuote(b)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("price cache marshal failed")
		return
	}
	if err := c.rdb.Set(ctx, key, string(payload), c.ttl).Err(); err != nil {
		c.logger.WithContext(ctx).WithError(err).WithField("key", key).Warn("price cache set failed")
	}
}

// InvalidateEvent removes every cached quote for the event.
func (c *PriceCache) InvalidateEvent(ctx context.Context, eventID int64) error {
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := c.rdb.Scan(ctx, cursor, eventPattern(eventID), scanBatch).Result()
		if err != nil {
			return fmt.Errorf("scan price keys: %w", err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			break
		}
		cursor = next
	}

	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete price keys: %w", err)
	}
	return nil
}

// Nop is used when Redis is not configured.
type Nop struct{}

func (Nop) GetQuote(context.Context, model.Event) (model.PricingBreakdown, bool) {
	return model.PricingBreakdown{}, false
}

func (Nop) SetQuote(context.Context, model.Event, model.PricingBreakdown) {}

func (Nop) InvalidateEvent(context.Context, int64) error { return nil }
