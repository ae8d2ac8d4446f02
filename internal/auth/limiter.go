package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

const (
	MaxLoginAttempts   = 5
	LoginAttemptWindow = 15 * time.Minute
)

// LoginLimiter counts failed logins per email in a fixed window.
type LoginLimiter struct {
	cache       *redis.Client
	maxAttempts int64
	window      time.Duration
}

func NewLoginLimiter(cache *redis.Client) *LoginLimiter {
	return &LoginLimiter{cache: cache, maxAttempts: MaxLoginAttempts, window: LoginAttemptWindow}
}

func loginAttemptKey(email string) string {
	return fmt.Sprintf(constants.CacheKeyLoginAttempt, strings.ToLower(email))
}

// Allow fails with errors.ErrTooManyAttempts once email used up its attempts.
func (l *LoginLimiter) Allow(c context.Context, email string) error {
	c, span := otel.Tracer.Start(c, "LoginLimiter Allow")
	defer span.End()

	cacheKey := loginAttemptKey(email)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "LoginLimiter Allow").
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	attempts, err := l.cache.Get(c, cacheKey).Int64()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		err = fmt.Errorf("failed getting login attempts with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger = logger.With().Int64(log.KeyLoginAttempts, attempts).Logger()
	if attempts >= l.maxAttempts {
		err = fmt.Errorf("login attempts=%d with error=%w", attempts, inErrors.ErrTooManyAttempts)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}

func (l *LoginLimiter) Fail(c context.Context, email string) error {
	c, span := otel.Tracer.Start(c, "LoginLimiter Fail")
	defer span.End()

	cacheKey := loginAttemptKey(email)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "LoginLimiter Fail").
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "incrementing login attempts").Logger()
	logger.Trace().Msg("incrementing login attempts")
	attempts, err := l.cache.Incr(c, cacheKey).Result()
	if err != nil {
		err = fmt.Errorf("failed incrementing login attempts with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if attempts == 1 {
		err = l.cache.Expire(c, cacheKey, l.window).Err()
		if err != nil {
			err = fmt.Errorf("failed setting login attempts window with error=%w", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
	}
	logger.Info().Int64(log.KeyLoginAttempts, attempts).Msg("incremented login attempts")

	return nil
}

func (l *LoginLimiter) Reset(c context.Context, email string) error {
	c, span := otel.Tracer.Start(c, "LoginLimiter Reset")
	defer span.End()

	err := l.cache.Del(c, loginAttemptKey(email)).Err()
	if err != nil {
		err = fmt.Errorf("failed resetting login attempts with error=%w", err)
		otel.RecordError(err, span)
		zerolog.Ctx(c).Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}
