package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/crpledger/core/internal/domain/tenancy"
	"github.com/crpledger/core/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const companyKeyPrefix = "crp:company:"

// RedisCompanyCache is the shared backend for multi-instance deployments.
// Redis failures degrade to cache misses; resolution never fails because
// the cache is down.
type RedisCompanyCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCompanyCache creates a redis-backed cache with the given TTL
func NewRedisCompanyCache(client *redis.Client, ttl time.Duration) *RedisCompanyCache {
	return &RedisCompanyCache{client: client, ttl: ttl}
}

// Get returns the cached company if present
func (c *RedisCompanyCache) Get(ctx context.Context, id uuid.UUID) (*tenancy.Company, bool) {
	raw, err := c.client.Get(ctx, companyKeyPrefix+id.String()).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.L(ctx).Warn("company cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var company tenancy.Company
	if err := json.Unmarshal(raw, &company); err != nil {
		logger.L(ctx).Warn("company cache entry corrupt, dropping",
			zap.String("company_id", id.String()), zap.Error(err))
		c.Invalidate(ctx, id)
		return nil, false
	}
	return &company, true
}

// Set stores a company with the cache TTL
func (c *RedisCompanyCache) Set(ctx context.Context, company *tenancy.Company) {
	if company == nil {
		return
	}
	raw, err := json.Marshal(company)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, companyKeyPrefix+company.ID.String(), raw, c.ttl).Err(); err != nil {
		logger.L(ctx).Warn("company cache write failed", zap.Error(err))
	}
}

// Invalidate removes a company from the cache
func (c *RedisCompanyCache) Invalidate(ctx context.Context, id uuid.UUID) {
	if err := c.client.Del(ctx, companyKeyPrefix+id.String()).Err(); err != nil {
		logger.L(ctx).Warn("company cache invalidation failed",
			zap.String("company_id", id.String()), zap.Error(err))
	}
}
