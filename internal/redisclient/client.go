package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"crm-order-service/internal/models"

	"github.com/go-redis/redis/v8"
)

// Client is a read-through cache for product enrichment lookups. Keys are
// scoped per company and lowercased, matching the catalog's case-insensitive
// name uniqueness.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetProduct returns a cached product, or nil on a miss.
func (c *Client) GetProduct(ctx context.Context, companyID, name string) (*models.Product, error) {
	raw, err := c.rdb.Get(ctx, productKey(companyID, name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var product models.Product
	if err := json.Unmarshal(raw, &product); err != nil {
		return nil, fmt.Errorf("corrupt cached product: %w", err)
	}
	return &product, nil
}

// SetProduct caches a product with the given TTL.
func (c *Client) SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error {
	raw, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, productKey(product.CompanyID, product.Name), raw, ttl).Err()
}

// InvalidateProduct drops a product from the cache.
func (c *Client) InvalidateProduct(ctx context.Context, companyID, name string) error {
	return c.rdb.Del(ctx, productKey(companyID, name)).Err()
}

func productKey(companyID, name string) string {
	return fmt.Sprintf("product:%s:%s", companyID, strings.ToLower(name))
}
