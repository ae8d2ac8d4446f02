package controller

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/pkg/response"
	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

const (
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

const (
	messageCartUpdated = "cart_updated"
	messageCartCleared = "cart_cleared"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type cartMessage struct {
	Type string        `json:"type"`
	Cart response.Cart `json:"cart"`
}

// Watch upgrades to a websocket and pushes the cart view every time a cart
// event is published for the requester.
func (t CartController) Watch(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController Watch")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController Watch").Logger()

	requester, err := auth.IdentityFromContext(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Str(log.KeyUserID, requester.UserID.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "upgrading connection").Logger()
	logger.Info().Msg("upgrading connection")
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		err = fmt.Errorf("failed upgrading connection with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer conn.Close()
	logger.Info().Msg("upgraded connection")

	c, cancel := context.WithCancel(logger.WithContext(c))
	defer cancel()

	pubsub := t.events.Subscribe(c, requester.UserID)
	defer pubsub.Close()
	events := pubsub.Channel()

	// Client frames are discarded; a read error means the peer went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err = t.push(c, conn, requester, messageCartUpdated); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	logger = logger.With().Str(log.KeyProcess, "watching cart").Logger()
	for {
		select {
		case <-c.Done():
			logger.Info().Msg("connection closed")
			return
		case msg, ok := <-events:
			if !ok {
				logger.Info().Msg("subscription closed")
				return
			}
			messageType := messageCartUpdated
			if msg.Payload == constants.CartEventCleared {
				messageType = messageCartCleared
			}
			if err = t.push(c, conn, requester, messageType); err != nil {
				otel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err = conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				err = fmt.Errorf("failed sending ping with error=%w", err)
				logger.Warn().Err(err).Msg(err.Error())
				return
			}
		}
	}
}

func (t CartController) push(
	c context.Context,
	conn *websocket.Conn,
	requester auth.Identity,
	messageType string,
) error {
	cart, err := t.service.ShowCart(c, requester)
	if errors.Is(err, inErrors.ErrCartNotFound) {
		cart, err = response.Cart{UserID: requester.UserID, Items: []response.CartItem{}}, nil
	}
	if err != nil {
		return fmt.Errorf("failed finding cart with error=%w", err)
	}

	if err = conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed setting write deadline with error=%w", err)
	}
	if err = conn.WriteJSON(cartMessage{Type: messageType, Cart: cart}); err != nil {
		return fmt.Errorf("failed writing %s with error=%w", messageType, err)
	}
	return nil
}
