package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/atlas-retail/atlas-retail/internal/inventory"
)

// VariantsPort is the read slice of the inventory repository the
// availability snapshot needs.
type VariantsPort interface {
	ListByProduct(ctx context.Context, productID int64) ([]inventory.Variant, error)
}

// AvailabilityService serves the public per-variant stock snapshot. Reads
// are cached in redis for a short TTL and refreshes for the same product are
// collapsed through singleflight, so a landing-page stampede produces one
// database query.
type AvailabilityService struct {
	variants VariantsPort
	rdb      *redis.Client
	ttl      time.Duration
	group    singleflight.Group
	logger   *slog.Logger
}

// NewAvailabilityService builds AvailabilityService.
func NewAvailabilityService(variants VariantsPort, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *AvailabilityService {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &AvailabilityService{variants: variants, rdb: rdb, ttl: ttl, logger: logger}
}

func availabilityKey(productID int64) string {
	return fmt.Sprintf("storefront:availability:%d", productID)
}

// Get returns active variants of a product with their current stock. The
// snapshot may lag a committed sale by up to the TTL; checkout revalidates
// through the conditional decrement anyway.
func (a *AvailabilityService) Get(ctx context.Context, productID int64) ([]VariantAvailability, error) {
	key := availabilityKey(productID)

	// The client is nil when redis was unreachable at startup; the snapshot
	// then degrades to a singleflight-collapsed repository read.
	if a.rdb != nil {
		if cached, err := a.rdb.Get(ctx, key).Bytes(); err == nil {
			var out []VariantAvailability
			if err := json.Unmarshal(cached, &out); err == nil {
				return out, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			a.logger.Warn("availability cache read failed", "error", err)
		}
	}

	result, err, _ := a.group.Do(key, func() (any, error) {
		variants, err := a.variants.ListByProduct(ctx, productID)
		if err != nil {
			return nil, err
		}

		out := make([]VariantAvailability, 0, len(variants))
		for _, v := range variants {
			if !v.IsActive {
				continue
			}
			out = append(out, VariantAvailability{
				VariantID: v.ID,
				Color:     v.Color,
				SKU:       v.SKU,
				Stock:     v.Stock,
				InStock:   v.Stock > 0,
			})
		}

		if a.rdb != nil {
			if payload, err := json.Marshal(out); err == nil {
				if err := a.rdb.Set(ctx, key, payload, a.ttl).Err(); err != nil {
					a.logger.Warn("availability cache write failed", "error", err)
				}
			}
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]VariantAvailability), nil
}

// Invalidate drops the cached snapshot, used after variant reconciliation.
func (a *AvailabilityService) Invalidate(ctx context.Context, productID int64) {
	if a.rdb == nil {
		return
	}
	if err := a.rdb.Del(ctx, availabilityKey(productID)).Err(); err != nil {
		a.logger.Warn("availability cache invalidation failed", "error", err)
	}
}
