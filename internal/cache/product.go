// Package cache holds the redis read-through cache of catalog products.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/product/pkg/response"
)

const productTTL = time.Hour

type ProductCache struct {
	client *redis.Client
}

func NewProductCache(client *redis.Client) *ProductCache {
	return &ProductCache{client: client}
}

func productKey(productID uuid.UUID) string {
	return fmt.Sprintf(constants.CacheKeyProduct, productID.String())
}

// Get reports a miss for absent, unreadable or undecodable entries. Only
// redis failures other than a miss are returned as errors.
func (pc *ProductCache) Get(c context.Context, productID uuid.UUID) (response.Product, bool, error) {
	c, span := otel.Tracer.Start(c, "ProductCache Get")
	defer span.End()

	raw, err := pc.client.Get(c, productKey(productID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return response.Product{}, false, nil
	}
	if err != nil {
		err = fmt.Errorf("failed reading product cache with error=%w", err)
		otel.RecordError(err, span)
		return response.Product{}, false, err
	}

	product := response.Product{}
	if err = json.Unmarshal(raw, &product); err != nil {
		err = fmt.Errorf("failed decoding cached product with error=%w", err)
		otel.RecordError(err, span)
		return response.Product{}, false, err
	}
	return product, true, nil
}

func (pc *ProductCache) Set(c context.Context, product response.Product) error {
	c, span := otel.Tracer.Start(c, "ProductCache Set")
	defer span.End()

	raw, err := json.Marshal(product)
	if err != nil {
		err = fmt.Errorf("failed encoding product with error=%w", err)
		otel.RecordError(err, span)
		return err
	}
	if err = pc.client.Set(c, productKey(product.ID), raw, productTTL).Err(); err != nil {
		err = fmt.Errorf("failed writing product cache with error=%w", err)
		otel.RecordError(err, span)
		return err
	}
	return nil
}

// Invalidate drops the cached copies of productIDs. It runs after a committed
// change to a product row, stock included, so failures are only logged.
func (pc *ProductCache) Invalidate(c context.Context, productIDs ...uuid.UUID) {
	if len(productIDs) == 0 {
		return
	}
	c, span := otel.Tracer.Start(c, "ProductCache Invalidate")
	defer span.End()

	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, productKey(id))
	}
	if err := pc.client.Del(c, keys...).Err(); err != nil {
		err = fmt.Errorf("failed invalidating product cache with error=%w", err)
		otel.RecordError(err, span)
		zerolog.Ctx(c).Warn().
			Err(err).
			Str(log.KeyTag, "ProductCache Invalidate").
			Strs(log.KeyCacheKey, keys).
			Msg(err.Error())
	}
}
