package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/sy17258/Book-Review-Platform/pkg/errors"
)

const (
	genresKey  = "facets:genres"
	authorsKey = "facets:authors"
)

// FacetCache caches the genre and author facet lists in Redis. Facets change
// only when books are created, so a short TTL keeps them fresh enough.
type FacetCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFacetCache creates a new Redis-backed facet cache.
func NewFacetCache(client *redis.Client, ttl time.Duration) *FacetCache {
	return &FacetCache{
		client: client,
		ttl:    ttl,
	}
}

// GetGenres returns the cached genre list, or ErrNotFound on a cache miss.
func (c *FacetCache) GetGenres(ctx context.Context) ([]string, error) {
	return c.get(ctx, genresKey)
}

// SetGenres stores the genre list with the configured TTL.
func (c *FacetCache) SetGenres(ctx context.Context, genres []string) error {
	return c.set(ctx, genresKey, genres)
}

// GetAuthors returns the cached author list, or ErrNotFound on a cache miss.
func (c *FacetCache) GetAuthors(ctx context.Context) ([]string, error) {
	return c.get(ctx, authorsKey)
}

// SetAuthors stores the author list with the configured TTL.
func (c *FacetCache) SetAuthors(ctx context.Context, authors []string) error {
	return c.set(ctx, authorsKey, authors)
}

// Invalidate drops both facet lists. Called after a book is created so new
// genres and authors show up without waiting for the TTL.
func (c *FacetCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, genresKey, authorsKey).Err(); err != nil {
		return fmt.Errorf("redis del facets: %w", err)
	}
	return nil
}

func (c *FacetCache) get(ctx context.Context, key string) ([]string, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", key, err)
	}

	return values, nil
}

func (c *FacetCache) set(ctx context.Context, key string, values []string) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	return nil
}
