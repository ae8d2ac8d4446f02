package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/cart/pkg/response"
	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	"github.com/Alturino/storefront/internal/notification"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/payment"
	"github.com/Alturino/storefront/internal/repository"
)

type CheckoutService struct {
	pool     *pgxpool.Pool
	queries  *repository.Queries
	carts    *CartService
	events   *CartEvents
	gateway  payment.Gateway
	notifier notification.Notifier
	currency string
}

func NewCheckoutService(
	pool *pgxpool.Pool,
	queries *repository.Queries,
	carts *CartService,
	events *CartEvents,
	gateway payment.Gateway,
	notifier notification.Notifier,
	currency string,
) *CheckoutService {
	return &CheckoutService{
		pool:     pool,
		queries:  queries,
		carts:    carts,
		events:   events,
		gateway:  gateway,
		notifier: notifier,
		currency: currency,
	}
}

// Checkout charges the cart total and turns the cart into an order. The order,
// its details and the emptied cart are written in one transaction holding the
// cart row lock.
func (svc *CheckoutService) Checkout(
	c context.Context,
	requester auth.Identity,
	cartID uuid.UUID,
) (res response.Checkout, err error) {
	c, span := otel.Tracer.Start(c, "CheckoutService Checkout")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CheckoutService Checkout").
		Str(log.KeyUserID, requester.UserID.String()).
		Str(log.KeyCartID, cartID.String()).
		Logger()

	defer func() {
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultFailed
		}
		metrics.CheckoutTotal.WithLabelValues(result).Inc()
	}()

	logger = logger.With().Str(log.KeyProcess, "authorizing requester").Logger()
	logger.Trace().Msg("authorizing requester")
	owner, err := svc.queries.FindCartById(c, cartID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("failed finding cart owner with error=%w", inErrors.ErrNotOwner)
	} else if err == nil {
		err = auth.Authorize(requester, owner.UserID)
	} else {
		err = fmt.Errorf("failed finding cart owner with error=%w", err)
	}
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	logger.Trace().Msg("authorized requester")

	logger = logger.With().Str(log.KeyProcess, "beginning transaction").Logger()
	logger.Trace().Msg("beginning transaction")
	tx, err := svc.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed beginning transaction with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	defer func() {
		if err := tx.Rollback(c); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			err = fmt.Errorf("failed rolling back transaction with error=%w", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
		}
	}()
	queries := svc.queries.WithTx(tx)
	logger.Trace().Msg("began transaction")

	logger = logger.With().Str(log.KeyProcess, "locking cart").Logger()
	logger.Trace().Msg("locking cart")
	cart, err := queries.FindCartByIdForUpdate(c, cartID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("failed locking cart with error=%w", inErrors.ErrInvalidCart)
	} else if err != nil {
		err = fmt.Errorf("failed locking cart with error=%w", err)
	}
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	logger.Trace().Msg("locked cart")

	view, err := svc.carts.recomputeTotal(c, queries, cart)
	if err != nil {
		otel.RecordError(err, span)
		return response.Checkout{}, err
	}
	logger = logger.With().Str(log.KeyCartTotal, view.CartTotalPrice.StringFixed(2)).Logger()

	logger = logger.With().Str(log.KeyProcess, "charging payment").Logger()
	logger.Trace().Msg("charging payment")
	receipt, err := svc.gateway.Charge(c, payment.Charge{
		UserID:   requester.UserID,
		CartID:   cart.ID,
		Amount:   view.CartTotalPrice,
		Currency: svc.currency,
	})
	if err != nil {
		if !errors.Is(err, inErrors.ErrPaymentFailed) {
			err = fmt.Errorf("%w: %w", inErrors.ErrPaymentFailed, err)
		}
		err = fmt.Errorf("failed charging payment with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	logger = logger.With().
		Str(log.KeyTransactionID, receipt.TransactionID).
		Str(log.KeyPaymentProvider, receipt.Provider).
		Logger()
	logger.Info().Msg("charged payment")

	logger = logger.With().Str(log.KeyProcess, "finding shipping address").Logger()
	logger.Trace().Msg("finding shipping address")
	user, err := queries.FindUserById(c, requester.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("failed finding user with error=%w", inErrors.ErrUserNotFound)
	} else if err != nil {
		err = fmt.Errorf("failed finding user with error=%w", err)
	}
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	logger.Trace().Msg("found shipping address")

	logger = logger.With().Str(log.KeyProcess, "inserting order").Logger()
	logger.Trace().Msg("inserting order")
	order, err := queries.InsertOrder(c, repository.InsertOrderParams{
		UserID:          requester.UserID,
		TotalPrice:      repository.NumericFromDecimal(view.CartTotalPrice),
		ShippingAddress: user.Address,
	})
	if err != nil {
		err = fmt.Errorf("failed inserting order with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	logger = logger.With().Str(log.KeyOrderID, order.ID.String()).Logger()
	logger.Trace().Msg("inserted order")

	logger = logger.With().Str(log.KeyProcess, "inserting order details").Logger()
	logger.Trace().Msg("inserting order details")
	details := make([]repository.OrderDetail, 0, len(view.Items))
	for _, item := range view.Items {
		detail, err := queries.InsertOrderDetail(c, repository.InsertOrderDetailParams{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     repository.NumericFromDecimal(item.Price.Mul(decimal.NewFromInt32(item.Quantity))),
		})
		if err != nil {
			err = fmt.Errorf("failed inserting order detail of product=%s with error=%w", item.ProductID, err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Checkout{}, err
		}
		details = append(details, detail)
	}
	logger.Trace().Int("count", len(details)).Msg("inserted order details")

	logger = logger.With().Str(log.KeyProcess, "clearing cart").Logger()
	logger.Trace().Msg("clearing cart")
	if _, err = queries.DeleteCartItemsByCartId(c, cart.ID); err != nil {
		err = fmt.Errorf("failed clearing cart items with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	_, err = queries.UpdateCartTotal(c, repository.UpdateCartTotalParams{
		ID:         cart.ID,
		TotalPrice: repository.NumericFromDecimal(decimal.Zero),
	})
	if err != nil {
		err = fmt.Errorf("failed resetting cart total with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	logger.Trace().Msg("cleared cart")

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	logger.Trace().Msg("committing transaction")
	if err = tx.Commit(c); err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Checkout{}, err
	}
	logger.Info().Msg("checked out cart")

	res = response.Checkout{
		Order:         order.Response(details),
		TransactionID: receipt.TransactionID,
	}

	svc.events.Publish(c, requester.UserID, constants.CartEventCleared)

	logger = logger.With().Str(log.KeyProcess, "sending confirmation").Logger()
	if err := svc.notifier.OrderPlaced(c, user.Email, res.Order); err != nil {
		err = fmt.Errorf("failed sending confirmation with error=%w", err)
		logger.Warn().Err(err).Msg(err.Error())
	}

	return res, nil
}
