package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"floor-manager/floor-svc/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RedisPriceCache holds current menu prices for a short TTL.
type RedisPriceCache struct {
	Client *redis.Client
	TTL    time.Duration
}

var _ service.PriceCache = (*RedisPriceCache)(nil)

func NewRedisPriceCache(client *redis.Client, ttl time.Duration) *RedisPriceCache {
	return &RedisPriceCache{Client: client, TTL: ttl}
}

func (c *RedisPriceCache) PriceKey(menuID int) string {
	return "menu:price:" + strconv.Itoa(menuID)
}

func (c *RedisPriceCache) GetPrice(ctx context.Context, menuID int) (decimal.Decimal, bool, error) {
	raw, err := c.Client.Get(ctx, c.PriceKey(menuID)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, err
	}
	return price, true, nil
}

func (c *RedisPriceCache) SetPrice(ctx context.Context, menuID int, price decimal.Decimal) error {
	return c.Client.Set(ctx, c.PriceKey(menuID), price.String(), c.TTL).Err()
}
