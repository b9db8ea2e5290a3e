package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/na4oman/samsung-shop/models"
	"go.uber.org/zap"
)

const (
	ProductListCachePrefix = "products:v:"
	CacheVersionKey        = "products:version"
)

// ProductListResponse is the body of GET /products; it is cached as-is.
type ProductListResponse struct {
	Products []models.Product `json:"products"`
	Meta     ListMeta         `json:"meta"`
}

type ListMeta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// CacheManager caches product listings under a version key. Bumping the
// version orphans every cached page at once.
type CacheManager struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCacheManager(rdb *redis.Client, logger *zap.Logger) *CacheManager {
	return &CacheManager{redis: rdb, ttl: DefaultCacheTTL, logger: logger}
}

// GetProductList returns the cached page for q, if any.
func (cm *CacheManager) GetProductList(ctx context.Context, q ListProductsQuery) (*ProductListResponse, bool) {
	if cm == nil {
		return nil, false
	}
	version, err := cm.getCacheVersion(ctx)
	if err != nil {
		return nil, false
	}

	cached, err := cm.redis.Get(ctx, listCacheKey(version, q)).Bytes()
	if err != nil {
		return nil, false
	}
	var resp ProductListResponse
	if err := json.Unmarshal(cached, &resp); err != nil {
		cm.logger.Warn("Failed to unmarshal cached product list", zap.Error(err))
		return nil, false
	}
	return &resp, true
}

// SetProductListAsync caches resp in the background.
func (cm *CacheManager) SetProductListAsync(q ListProductsQuery, resp ProductListResponse) {
	if cm == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		version, err := cm.getCacheVersion(ctx)
		if err != nil {
			return
		}
		body, err := json.Marshal(resp)
		if err != nil {
			cm.logger.Warn("Failed to marshal product list for cache", zap.Error(err))
			return
		}
		if err := cm.redis.Set(ctx, listCacheKey(version, q), body, cm.ttl).Err(); err != nil {
			cm.logger.Warn("Failed to cache product list", zap.Error(err))
		}
	}()
}

// Invalidate bumps the cache version.
func (cm *CacheManager) Invalidate(ctx context.Context) error {
	v, err := cm.redis.Incr(ctx, CacheVersionKey).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	cm.logger.Debug("Product cache invalidated", zap.Int64("new_version", v))
	return nil
}

// OnCatalogEvent is an event bus subscriber that invalidates the listing cache.
func (cm *CacheManager) OnCatalogEvent(event models.CatalogEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := cm.Invalidate(ctx); err != nil {
		cm.logger.Error("Failed to invalidate product cache",
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
	}
}

func (cm *CacheManager) getCacheVersion(ctx context.Context) (int64, error) {
	ver, err := cm.redis.Get(ctx, CacheVersionKey).Int64()
	if err == nil && ver > 0 {
		return ver, nil
	}
	if errors.Is(err, redis.Nil) {
		if ok, setErr := cm.redis.SetNX(ctx, CacheVersionKey, 1, 0).Result(); setErr == nil {
			if ok {
				return 1, nil
			}
			return cm.redis.Get(ctx, CacheVersionKey).Int64()
		}
	}
	if err == nil {
		err = fmt.Errorf("invalid cache version %d", ver)
	}
	return 0, err
}

func listCacheKey(version int64, q ListProductsQuery) string {
	return fmt.Sprintf("%s%d:p:%d:l:%d:c:%s:co:%s:q:%s:s:%s:min:%s:max:%s",
		ProductListCachePrefix,
		version,
		q.Page,
		q.PerPage,
		q.Category,
		q.Color,
		q.Query,
		q.Sort,
		formatFloatForCache(q.MinPrice),
		formatFloatForCache(q.MaxPrice),
	)
}

func formatFloatForCache(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}
