package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/storefront/internal/auth"
	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/order/internal/service"
	"github.com/Alturino/storefront/order/pkg/request"
)

type OrderController struct {
	service *service.OrderService
}

func AttachOrderController(
	c context.Context,
	router *mux.Router,
	authenticate mux.MiddlewareFunc,
	service *service.OrderService,
) {
	controller := OrderController{service: service}

	orders := router.PathPrefix("/orders").Subrouter()
	orders.Use(authenticate)
	orders.HandleFunc("", controller.FindOrders).Methods(http.MethodGet)
	orders.HandleFunc("", controller.CreateOrder).Methods(http.MethodPost)
	orders.HandleFunc("/{orderId}", controller.FindOrderById).Methods(http.MethodGet)
	orders.HandleFunc("/{orderId}", controller.DeleteOrder).Methods(http.MethodDelete)
	orders.HandleFunc("/{orderId}/orderdetails/{orderDetailId}", controller.UpdateOrderDetail).
		Methods(http.MethodPut)
	orders.HandleFunc("/{orderId}/orderdetails/{orderDetailId}", controller.RemoveOrderDetailQuantity).
		Methods(http.MethodDelete)

	zerolog.Ctx(c).Trace().Str(log.KeyTag, "AttachOrderController").Msg("attached order routes")
}

func (o OrderController) FindOrders(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController FindOrders")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "OrderController FindOrders").Logger()

	requester, err := auth.IdentityFromContext(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "finding orders").Logger()
	logger.Info().Msg("finding orders")
	orders, err := o.service.FindOrders(logger.WithContext(c), requester)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("found orders")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "found orders",
		"data":       map[string]interface{}{"orders": orders},
	})
}

func (o OrderController) FindOrderById(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController FindOrderById")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "OrderController FindOrderById").Logger()

	requester, orderID, err := requesterAndOrderID(r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Str(log.KeyOrderID, orderID.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "finding order").Logger()
	logger.Info().Msg("finding order")
	order, err := o.service.FindOrderById(logger.WithContext(c), requester, orderID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("found order")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "found order",
		"data":       map[string]interface{}{"order": order},
	})
}

func (o OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController CreateOrder")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "OrderController CreateOrder").Logger()

	requester, err := auth.IdentityFromContext(c)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	logger.Info().Msg("validating request body")
	reqBody := request.CreateOrder{}
	if err = inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Any(log.KeyRequestBody, reqBody).Logger()
	logger.Info().Msg("validated request body")

	logger = logger.With().Str(log.KeyProcess, "creating order").Logger()
	logger.Info().Msg("creating order")
	order, err := o.service.CreateOrder(logger.WithContext(c), requester, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("created order")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusCreated,
		"message":    "Order created",
		"data":       map[string]interface{}{"order_id": order.ID, "order": order},
	})
}

func (o OrderController) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController DeleteOrder")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "OrderController DeleteOrder").Logger()

	requester, orderID, err := requesterAndOrderID(r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Str(log.KeyOrderID, orderID.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "deleting order").Logger()
	logger.Info().Msg("deleting order")
	if err = o.service.DeleteOrder(logger.WithContext(c), requester, orderID); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("deleted order")

	inHttp.WriteNoContent(c, w)
}

func (o OrderController) UpdateOrderDetail(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController UpdateOrderDetail")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "OrderController UpdateOrderDetail").Logger()

	requester, orderID, detailID, err := requesterAndDetailID(r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().
		Str(log.KeyOrderID, orderID.String()).
		Str(log.KeyOrderDetailID, detailID.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	logger.Info().Msg("validating request body")
	reqBody := request.UpdateOrderDetail{}
	if err = inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		err = fmt.Errorf("%w: %w", inErrors.ErrInvalidQuantity, err)
	}
	delta := int32(0)
	if err == nil {
		delta, err = reqBody.Delta()
	}
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Int32(log.KeyQuantityDelta, delta).Logger()
	logger.Info().Msg("validated request body")

	logger = logger.With().Str(log.KeyProcess, "updating order detail").Logger()
	logger.Info().Msg("updating order detail")
	err = o.service.UpdateOrderDetailQuantity(logger.WithContext(c), requester, orderID, detailID, delta)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("updated order detail")

	inHttp.WriteNoContent(c, w)
}

func (o OrderController) RemoveOrderDetailQuantity(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "OrderController RemoveOrderDetailQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "OrderController RemoveOrderDetailQuantity").Logger()

	requester, orderID, detailID, err := requesterAndDetailID(r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().
		Str(log.KeyOrderID, orderID.String()).
		Str(log.KeyOrderDetailID, detailID.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	logger.Info().Msg("validating request body")
	reqBody := request.RemoveOrderDetailQuantity{}
	if err = inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		err = fmt.Errorf("%w: %w", inErrors.ErrInvalidAmount, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Any(log.KeyRequestBody, reqBody).Logger()
	logger.Info().Msg("validated request body")

	logger = logger.With().Str(log.KeyProcess, "removing order detail quantity").Logger()
	logger.Info().Msg("removing order detail quantity")
	err = o.service.RemoveOrderDetailQuantity(
		logger.WithContext(c),
		requester,
		orderID,
		detailID,
		reqBody.QuantityToRemove,
	)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("removed order detail quantity")

	inHttp.WriteNoContent(c, w)
}

func requesterAndOrderID(r *http.Request) (auth.Identity, uuid.UUID, error) {
	requester, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		return auth.Identity{}, uuid.Nil, err
	}
	orderID, err := inHttp.PathUUID(r, "orderId", inErrors.ErrOrderNotFound)
	if err != nil {
		return auth.Identity{}, uuid.Nil, err
	}
	return requester, orderID, nil
}

func requesterAndDetailID(r *http.Request) (auth.Identity, uuid.UUID, uuid.UUID, error) {
	requester, orderID, err := requesterAndOrderID(r)
	if err != nil {
		return auth.Identity{}, uuid.Nil, uuid.Nil, err
	}
	detailID, err := inHttp.PathUUID(r, "orderDetailId", inErrors.ErrOrderDetailNotFound)
	if err != nil {
		return auth.Identity{}, uuid.Nil, uuid.Nil, err
	}
	return requester, orderID, detailID, nil
}
