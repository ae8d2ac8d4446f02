package controller

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/cart/internal/service"
	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
)

type CartController struct {
	service  *service.CartService
	checkout *service.CheckoutService
	events   *service.CartEvents
}

func AttachCartController(
	c context.Context,
	router *mux.Router,
	authenticate mux.MiddlewareFunc,
	cartService *service.CartService,
	checkoutService *service.CheckoutService,
	events *service.CartEvents,
) {
	controller := CartController{service: cartService, checkout: checkoutService, events: events}

	cart := router.PathPrefix("/cart").Subrouter()
	cart.Use(authenticate)
	cart.HandleFunc("", controller.AddItem).Methods(http.MethodPost)
	cart.HandleFunc("", controller.ShowCart).Methods(http.MethodGet)
	cart.HandleFunc("", controller.UpdateItem).Methods(http.MethodPut)
	cart.HandleFunc("/ws", controller.Watch).Methods(http.MethodGet)
	cart.HandleFunc("/{itemId}", controller.RemoveItem).Methods(http.MethodDelete)
	cart.HandleFunc("/{cartId}/checkout", controller.Checkout).Methods(http.MethodPost)

	zerolog.Ctx(c).Trace().Str(log.KeyTag, "AttachCartController").Msg("attached cart routes")
}

func (t CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController AddItem").Logger()

	requester, err := auth.IdentityFromContext(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	logger.Info().Msg("validating request body")
	reqBody := request.CartItem{}
	if err = inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Any(log.KeyRequestBody, reqBody).Logger()
	logger.Info().Msg("validated request body")

	logger = logger.With().Str(log.KeyProcess, "adding item to cart").Logger()
	logger.Info().Msg("adding item to cart")
	cart, err := t.service.AddItem(logger.WithContext(c), requester, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("added item to cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusCreated,
		"message":    "Item added to cart",
		"data":       map[string]interface{}{"cart": cart},
	})
}

func (t CartController) ShowCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController ShowCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController ShowCart").Logger()

	requester, err := auth.IdentityFromContext(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "finding cart").Logger()
	logger.Info().Msg("finding cart")
	cart, err := t.service.ShowCart(logger.WithContext(c), requester)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("found cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "found cart",
		"data":       map[string]interface{}{"cart": cart},
	})
}

func (t CartController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController UpdateItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController UpdateItem").Logger()

	requester, err := auth.IdentityFromContext(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	logger.Info().Msg("validating request body")
	reqBody := request.CartItem{}
	if err = inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Any(log.KeyRequestBody, reqBody).Logger()
	logger.Info().Msg("validated request body")

	logger = logger.With().Str(log.KeyProcess, "updating cart item").Logger()
	logger.Info().Msg("updating cart item")
	cart, err := t.service.UpdateItem(logger.WithContext(c), requester, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("updated cart item")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "Cart item updated",
		"data":       map[string]interface{}{"cart": cart},
	})
}

func (t CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController RemoveItem").Logger()

	requester, err := auth.IdentityFromContext(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	itemID, err := inHttp.PathUUID(r, "itemId", inErrors.ErrItemNotFound)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Str(log.KeyCartItemID, itemID.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "removing cart item").Logger()
	logger.Info().Msg("removing cart item")
	if err = t.service.RemoveItem(logger.WithContext(c), requester, itemID); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("removed cart item")

	inHttp.WriteNoContent(c, w)
}

func (t CartController) Checkout(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "CartController Checkout").Logger()

	requester, err := auth.IdentityFromContext(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	cartID, err := inHttp.PathUUID(r, "cartId", inErrors.ErrNotOwner)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Str(log.KeyCartID, cartID.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "checking out cart").Logger()
	logger.Info().Msg("checking out cart")
	checkout, err := t.checkout.Checkout(logger.WithContext(c), requester, cartID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("checked out cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusCreated,
		"message":    "Checkout successful",
		"data": map[string]interface{}{
			"order":          checkout.Order,
			"transaction_id": checkout.TransactionID,
		},
	})
}
