package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

// CartEvents fans cart changes out over redis pub/sub on cart:<userId>.
type CartEvents struct {
	cache *redis.Client
}

func NewCartEvents(cache *redis.Client) *CartEvents {
	return &CartEvents{cache: cache}
}

func cartChannel(userID uuid.UUID) string {
	return fmt.Sprintf(constants.ChannelCart, userID.String())
}

// Publish never fails the caller: the mutation is already committed.
func (e *CartEvents) Publish(c context.Context, userID uuid.UUID, event string) {
	c, span := otel.Tracer.Start(c, "CartEvents Publish")
	defer span.End()

	channel := cartChannel(userID)
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartEvents Publish").
		Str(log.KeyChannel, channel).
		Str(log.KeyEvent, event).
		Logger()

	if err := e.cache.Publish(c, channel, event).Err(); err != nil {
		err = fmt.Errorf("failed publishing cart event with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Trace().Msg("published cart event")
}

func (e *CartEvents) Subscribe(c context.Context, userID uuid.UUID) *redis.PubSub {
	return e.cache.Subscribe(c, cartChannel(userID))
}
