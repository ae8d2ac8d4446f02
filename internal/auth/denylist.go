package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

// Denylist keeps the ids of logged out tokens until they would have expired
// anyway.
type Denylist struct {
	cache *redis.Client
}

func NewDenylist(cache *redis.Client) *Denylist {
	return &Denylist{cache: cache}
}

func (d *Denylist) Revoke(c context.Context, identity Identity) error {
	c, span := otel.Tracer.Start(c, "Denylist Revoke")
	defer span.End()

	cacheKey := fmt.Sprintf(constants.CacheKeyRevokedToken, identity.TokenID)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Denylist Revoke").
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	ttl := time.Until(identity.ExpiresAt)
	if identity.TokenID == "" || ttl <= 0 {
		logger.Trace().Msg("token already expired")
		return nil
	}

	logger = logger.With().Str(log.KeyProcess, "revoking token").Logger()
	logger.Trace().Msg("revoking token")
	err := d.cache.Set(c, cacheKey, identity.UserID.String(), ttl).Err()
	if err != nil {
		err = fmt.Errorf("failed revoking token with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("revoked token")

	return nil
}

func (d *Denylist) IsRevoked(c context.Context, tokenID string) (bool, error) {
	c, span := otel.Tracer.Start(c, "Denylist IsRevoked")
	defer span.End()

	cacheKey := fmt.Sprintf(constants.CacheKeyRevokedToken, tokenID)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Denylist IsRevoked").
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	err := d.cache.Get(c, cacheKey).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		err = fmt.Errorf("failed checking revoked token with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return false, err
	}
	return true, nil
}
