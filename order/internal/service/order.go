package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/cache"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/order/pkg/request"
	"github.com/Alturino/storefront/order/pkg/response"
)

const (
	operationUpdate = "update"
	operationRemove = "remove"
)

type OrderService struct {
	pool     *pgxpool.Pool
	queries  *repository.Queries
	products *cache.ProductCache
}

func NewOrderService(
	pool *pgxpool.Pool,
	queries *repository.Queries,
	products *cache.ProductCache,
) *OrderService {
	return &OrderService{pool: pool, queries: queries, products: products}
}

func (svc *OrderService) FindOrders(c context.Context, requester auth.Identity) ([]response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService FindOrders")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService FindOrders").
		Str(log.KeyUserID, requester.UserID.String()).
		Str(log.KeyProcess, "finding orders").
		Logger()

	logger.Info().Msg("finding orders")
	orders, err := svc.queries.FindOrdersByUserId(c, requester.UserID)
	if err != nil {
		err = fmt.Errorf("failed finding orders with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Int("count", len(orders)).Msg("found orders")

	res := make([]response.Order, 0, len(orders))
	for _, order := range orders {
		res = append(res, order.Response(nil))
	}
	return res, nil
}

func (svc *OrderService) FindOrderById(
	c context.Context,
	requester auth.Identity,
	orderID uuid.UUID,
) (response.Order, error) {
	c, span := otel.Tracer.Start(c, "OrderService FindOrderById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService FindOrderById").
		Str(log.KeyUserID, requester.UserID.String()).
		Str(log.KeyOrderID, orderID.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding order").Logger()
	logger.Info().Msg("finding order")
	order, err := svc.queries.FindOrderById(c, repository.FindOrderByIdParams{
		ID:     orderID,
		UserID: requester.UserID,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("failed finding order with error=%w", inErrors.ErrOrderNotFound)
	} else if err != nil {
		err = fmt.Errorf("failed finding order with error=%w", err)
	}
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Msg("found order")

	logger = logger.With().Str(log.KeyProcess, "finding order details").Logger()
	logger.Info().Msg("finding order details")
	details, err := svc.queries.FindOrderDetailsByOrderId(c, order.ID)
	if err != nil {
		err = fmt.Errorf("failed finding order details with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Info().Msg("found order details")

	return order.Response(details), nil
}

// CreateOrder records an order directly. Each line is priced at the current
// product price; lines pointing at unknown products are dropped.
func (svc *OrderService) CreateOrder(
	c context.Context,
	requester auth.Identity,
	param request.CreateOrder,
) (res response.Order, err error) {
	c, span := otel.Tracer.Start(c, "OrderService CreateOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService CreateOrder").
		Str(log.KeyUserID, requester.UserID.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "beginning transaction").Logger()
	logger.Trace().Msg("beginning transaction")
	tx, err := svc.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed beginning transaction with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
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

	logger = logger.With().Str(log.KeyProcess, "inserting order").Logger()
	logger.Info().Msg("inserting order")
	order, err := queries.InsertOrder(c, repository.InsertOrderParams{
		UserID:          requester.UserID,
		TotalPrice:      repository.NumericFromDecimal(param.TotalPrice),
		ShippingAddress: param.ShippingAddress,
	})
	if err != nil {
		err = fmt.Errorf("failed inserting order with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger = logger.With().Str(log.KeyOrderID, order.ID.String()).Logger()
	logger.Info().Msg("inserted order")

	logger = logger.With().Str(log.KeyProcess, "inserting order details").Logger()
	logger.Info().Msg("inserting order details")
	details := make([]repository.OrderDetail, 0, len(param.OrderDetails))
	for _, line := range param.OrderDetails {
		lineLogger := logger.With().
			Str(log.KeyProductID, line.ProductID.String()).
			Int32(log.KeyQuantity, line.Quantity).
			Logger()

		product, err := queries.FindProductById(c, line.ProductID)
		if errors.Is(err, pgx.ErrNoRows) {
			lineLogger.Warn().Msg("skipping order detail of unknown product")
			continue
		}
		if err != nil {
			err = fmt.Errorf("failed finding product with error=%w", err)
			otel.RecordError(err, span)
			lineLogger.Error().Err(err).Msg(err.Error())
			return response.Order{}, err
		}

		price := repository.DecimalFromNumeric(product.Price).Mul(decimal.NewFromInt32(line.Quantity))
		detail, err := queries.InsertOrderDetail(c, repository.InsertOrderDetailParams{
			OrderID:   order.ID,
			ProductID: product.ID,
			Quantity:  line.Quantity,
			Price:     repository.NumericFromDecimal(price),
		})
		if err != nil {
			err = fmt.Errorf("failed inserting order detail with error=%w", err)
			otel.RecordError(err, span)
			lineLogger.Error().Err(err).Msg(err.Error())
			return response.Order{}, err
		}
		details = append(details, detail)
	}
	logger.Info().Int("count", len(details)).Msg("inserted order details")

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	logger.Trace().Msg("committing transaction")
	if err = tx.Commit(c); err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Order{}, err
	}
	logger.Trace().Msg("committed transaction")

	return order.Response(details), nil
}

func (svc *OrderService) DeleteOrder(c context.Context, requester auth.Identity, orderID uuid.UUID) error {
	c, span := otel.Tracer.Start(c, "OrderService DeleteOrder")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService DeleteOrder").
		Str(log.KeyUserID, requester.UserID.String()).
		Str(log.KeyOrderID, orderID.String()).
		Str(log.KeyProcess, "deleting order").
		Logger()

	logger.Info().Msg("deleting order")
	deleted, err := svc.queries.DeleteOrder(c, repository.DeleteOrderParams{
		ID:     orderID,
		UserID: requester.UserID,
	})
	if err == nil && deleted == 0 {
		err = fmt.Errorf("failed deleting order with error=%w", inErrors.ErrOrderNotFound)
	} else if err != nil {
		err = fmt.Errorf("failed deleting order with error=%w", err)
	}
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("deleted order")

	return nil
}

// UpdateOrderDetailQuantity moves an order line by a signed delta. The line
// price is rescaled proportionally and the order total follows the change of
// the line price.
func (svc *OrderService) UpdateOrderDetailQuantity(
	c context.Context,
	requester auth.Identity,
	orderID uuid.UUID,
	detailID uuid.UUID,
	delta int32,
) (err error) {
	c, span := otel.Tracer.Start(c, "OrderService UpdateOrderDetailQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService UpdateOrderDetailQuantity").
		Str(log.KeyUserID, requester.UserID.String()).
		Str(log.KeyOrderID, orderID.String()).
		Str(log.KeyOrderDetailID, detailID.String()).
		Int32(log.KeyQuantityDelta, delta).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "beginning transaction").Logger()
	logger.Trace().Msg("beginning transaction")
	tx, err := svc.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed beginning transaction with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
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

	detail, err := lockOrderDetail(c, queries, requester, orderID, detailID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	current := detail.Quantity
	updated := int64(current) + int64(delta)
	logger = logger.With().Int32(log.KeyQuantity, current).Int64("newQuantity", updated).Logger()
	if updated > math.MaxInt32 {
		err = fmt.Errorf("failed updating quantity=%d by delta=%d with error=%w", current, delta, inErrors.ErrInvalidQuantity)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if updated < 0 {
		err = fmt.Errorf("failed updating quantity=%d by delta=%d with error=%w", current, delta, inErrors.ErrNegativeQuantity)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if current == 0 {
		err = fmt.Errorf("failed rescaling order detail with error=%w", inErrors.ErrDivisionByZero)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	if delta > 0 {
		logger = logger.With().Str(log.KeyProcess, "checking stock").Logger()
		logger.Trace().Msg("checking stock")
		product, err := queries.FindProductByIdForUpdate(c, detail.ProductID)
		if err == nil && product.StockQuantity < delta {
			err = fmt.Errorf(
				"stock=%d is less than delta=%d with error=%w",
				product.StockQuantity,
				delta,
				inErrors.ErrInsufficientStock,
			)
		} else if err != nil {
			err = fmt.Errorf("failed finding product with error=%w", err)
		}
		if err != nil {
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		logger.Trace().Msg("checked stock")
	}

	if delta != 0 {
		logger = logger.With().Str(log.KeyProcess, "adjusting stock").Logger()
		logger.Trace().Msg("adjusting stock")
		stock, err := queries.AdjustProductStock(c, repository.AdjustProductStockParams{
			ID:    detail.ProductID,
			Delta: -delta,
		})
		if err != nil {
			err = fmt.Errorf("failed adjusting stock with error=%w", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		logger.Trace().Int32(log.KeyStockQuantity, stock).Msg("adjusted stock")
	}

	oldPrice := repository.DecimalFromNumeric(detail.Price)
	newPrice := Rescale(oldPrice, current, int32(updated))

	logger = logger.With().Str(log.KeyProcess, "updating order detail").Logger()
	logger.Trace().Msg("updating order detail")
	_, err = queries.UpdateOrderDetail(c, repository.UpdateOrderDetailParams{
		ID:       detail.ID,
		Quantity: int32(updated),
		Price:    repository.NumericFromDecimal(newPrice),
	})
	if err != nil {
		err = fmt.Errorf("failed updating order detail with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("updated order detail")

	if err = adjustOrderTotal(c, queries, requester, orderID, newPrice.Sub(oldPrice)); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	logger.Trace().Msg("committing transaction")
	if err = tx.Commit(c); err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Str("newPrice", newPrice.StringFixed(2)).Msg("updated order detail quantity")

	if delta != 0 {
		svc.products.Invalidate(c, detail.ProductID)
	}
	metrics.OrderAdjustmentTotal.WithLabelValues(operationUpdate).Inc()
	return nil
}

// RemoveOrderDetailQuantity takes amount units off an order line, deleting the
// line once it is empty.
func (svc *OrderService) RemoveOrderDetailQuantity(
	c context.Context,
	requester auth.Identity,
	orderID uuid.UUID,
	detailID uuid.UUID,
	amount int32,
) (err error) {
	c, span := otel.Tracer.Start(c, "OrderService RemoveOrderDetailQuantity")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "OrderService RemoveOrderDetailQuantity").
		Str(log.KeyUserID, requester.UserID.String()).
		Str(log.KeyOrderID, orderID.String()).
		Str(log.KeyOrderDetailID, detailID.String()).
		Int32("quantityToRemove", amount).
		Logger()

	if amount <= 0 {
		err = fmt.Errorf("failed removing quantity=%d with error=%w", amount, inErrors.ErrInvalidAmount)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger = logger.With().Str(log.KeyProcess, "beginning transaction").Logger()
	logger.Trace().Msg("beginning transaction")
	tx, err := svc.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed beginning transaction with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
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

	detail, err := lockOrderDetail(c, queries, requester, orderID, detailID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	current := detail.Quantity
	logger = logger.With().Int32(log.KeyQuantity, current).Logger()
	if current == 0 {
		err = fmt.Errorf("failed rescaling order detail with error=%w", inErrors.ErrDivisionByZero)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if amount > current {
		err = fmt.Errorf("failed removing quantity=%d of %d with error=%w", amount, current, inErrors.ErrInvalidAmount)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	oldPrice := repository.DecimalFromNumeric(detail.Price)
	remaining := current - amount
	newPrice := Rescale(oldPrice, current, remaining)

	if remaining == 0 {
		logger = logger.With().Str(log.KeyProcess, "deleting order detail").Logger()
		logger.Trace().Msg("deleting order detail")
		_, err = queries.DeleteOrderDetail(c, detail.ID)
	} else {
		logger = logger.With().Str(log.KeyProcess, "updating order detail").Logger()
		logger.Trace().Msg("updating order detail")
		_, err = queries.UpdateOrderDetail(c, repository.UpdateOrderDetailParams{
			ID:       detail.ID,
			Quantity: remaining,
			Price:    repository.NumericFromDecimal(newPrice),
		})
	}
	if err != nil {
		err = fmt.Errorf("failed writing order detail with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	if err = adjustOrderTotal(c, queries, requester, orderID, newPrice.Sub(oldPrice)); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	logger.Trace().Msg("committing transaction")
	if err = tx.Commit(c); err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Int32("remaining", remaining).Msg("removed order detail quantity")

	metrics.OrderAdjustmentTotal.WithLabelValues(operationRemove).Inc()
	return nil
}

// Rescale returns price scaled from current to updated units, rounded to
// cents. current must not be zero.
func Rescale(price decimal.Decimal, current int32, updated int32) decimal.Decimal {
	return price.
		Mul(decimal.NewFromInt32(updated)).
		Div(decimal.NewFromInt32(current)).
		Round(2)
}

// lockOrderDetail locks the requester's order and then the detail row.
func lockOrderDetail(
	c context.Context,
	queries *repository.Queries,
	requester auth.Identity,
	orderID uuid.UUID,
	detailID uuid.UUID,
) (repository.OrderDetail, error) {
	_, err := queries.FindOrderByIdForUpdate(c, repository.FindOrderByIdParams{
		ID:     orderID,
		UserID: requester.UserID,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.OrderDetail{}, fmt.Errorf("failed locking order with error=%w", inErrors.ErrOrderNotFound)
	}
	if err != nil {
		return repository.OrderDetail{}, fmt.Errorf("failed locking order with error=%w", err)
	}

	detail, err := queries.FindOrderDetailForUpdate(c, repository.FindOrderDetailForUpdateParams{
		ID:      detailID,
		OrderID: orderID,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.OrderDetail{}, fmt.Errorf(
			"failed locking order detail with error=%w",
			inErrors.ErrOrderDetailNotFound,
		)
	}
	if err != nil {
		return repository.OrderDetail{}, fmt.Errorf("failed locking order detail with error=%w", err)
	}
	return detail, nil
}

func adjustOrderTotal(
	c context.Context,
	queries *repository.Queries,
	requester auth.Identity,
	orderID uuid.UUID,
	delta decimal.Decimal,
) error {
	_, err := queries.AdjustOrderTotal(c, repository.AdjustOrderTotalParams{
		ID:     orderID,
		UserID: requester.UserID,
		Delta:  repository.NumericFromDecimal(delta),
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed adjusting order total with error=%w", inErrors.ErrOrderNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed adjusting order total with error=%w", err)
	}
	return nil
}
