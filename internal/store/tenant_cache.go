package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"beacon-guardian/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const tenantKeyPrefix = "beacon-guardian:tenant:"

type TenantSource interface {
	GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error)
	ListActiveTenants(ctx context.Context) ([]models.Tenant, error)
}

// TenantCache is a read-through Redis cache in front of a TenantStore. Cache failures
// fall back to the underlying store.
type TenantCache struct {
	Next   TenantSource
	Client *redis.Client
	TTL    time.Duration
	Logger *zap.Logger
}

func NewTenantCache(next TenantSource, client *redis.Client, ttl time.Duration, logger *zap.Logger) *TenantCache {
	return &TenantCache{Next: next, Client: client, TTL: ttl, Logger: logger}
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func tenantKey(tenantID string) string {
	return tenantKeyPrefix + tenantID
}

func (c *TenantCache) GetTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	raw, err := c.Client.Get(ctx, tenantKey(tenantID)).Bytes()
	switch {
	case err == nil:
		var tenant models.Tenant
		if err := json.Unmarshal(raw, &tenant); err == nil {
			return &tenant, nil
		}
		c.Logger.Warn("Discarding unreadable cached tenant", zap.String("tenant_id", tenantID))
	case !errors.Is(err, redis.Nil):
		c.Logger.Warn("Tenant cache read failed", zap.String("tenant_id", tenantID), zap.Error(err))
	}

	tenant, err := c.Next.GetTenant(ctx, tenantID)
	if err != nil || tenant == nil {
		return tenant, err
	}
	if payload, err := json.Marshal(tenant); err == nil {
		if err := c.Client.Set(ctx, tenantKey(tenantID), payload, c.TTL).Err(); err != nil {
			c.Logger.Warn("Tenant cache write failed", zap.String("tenant_id", tenantID), zap.Error(err))
		}
	}
	return tenant, nil
}

// ListActiveTenants always reads through so the sweep sees subscription changes immediately.
func (c *TenantCache) ListActiveTenants(ctx context.Context) ([]models.Tenant, error) {
	return c.Next.ListActiveTenants(ctx)
}

func (c *TenantCache) Invalidate(ctx context.Context, tenantID string) error {
	return c.Client.Del(ctx, tenantKey(tenantID)).Err()
}
