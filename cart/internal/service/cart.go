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

	"github.com/Alturino/storefront/cart/pkg/request"
	"github.com/Alturino/storefront/cart/pkg/response"
	"github.com/Alturino/storefront/internal/auth"
	"github.com/Alturino/storefront/internal/cache"
	"github.com/Alturino/storefront/internal/constants"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/metrics"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/repository"
)

const (
	operationAdd    = "add"
	operationUpdate = "update"
	operationRemove = "remove"
)

type CartService struct {
	pool     *pgxpool.Pool
	queries  *repository.Queries
	events   *CartEvents
	products *cache.ProductCache
}

func NewCartService(
	pool *pgxpool.Pool,
	queries *repository.Queries,
	events *CartEvents,
	products *cache.ProductCache,
) *CartService {
	return &CartService{pool: pool, queries: queries, events: events, products: products}
}

// AddItem reserves quantity units of a product for the requester's cart,
// creating the cart on first use.
func (svc *CartService) AddItem(
	c context.Context,
	requester auth.Identity,
	param request.CartItem,
) (res response.Cart, err error) {
	c, span := otel.Tracer.Start(c, "CartService AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService AddItem").
		Str(log.KeyUserID, requester.UserID.String()).
		Str(log.KeyProductID, param.ProductID.String()).
		Int32(log.KeyQuantity, param.Quantity).
		Logger()

	if param.Quantity <= 0 {
		err = fmt.Errorf("failed adding quantity=%d with error=%w", param.Quantity, inErrors.ErrInvalidQuantity)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "beginning transaction").Logger()
	logger.Trace().Msg("beginning transaction")
	tx, err := svc.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed beginning transaction with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
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

	logger = logger.With().Str(log.KeyProcess, "finding cart").Logger()
	logger.Trace().Msg("finding cart")
	cart, err := queries.FindCartByUserIdForUpdate(c, requester.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		logger.Trace().Msg("cart not found, creating cart")
		cart, err = queries.InsertCart(c, requester.UserID)
	}
	if err != nil {
		err = fmt.Errorf("failed finding cart with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger = logger.With().Str(log.KeyCartID, cart.ID.String()).Logger()
	logger.Trace().Msg("found cart")

	logger = logger.With().Str(log.KeyProcess, "checking stock").Logger()
	logger.Trace().Msg("checking stock")
	product, err := queries.FindProductByIdForUpdate(c, param.ProductID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("product not found with error=%w", inErrors.ErrInsufficientStock)
	} else if err == nil && product.StockQuantity < param.Quantity {
		err = fmt.Errorf(
			"stock=%d is less than quantity=%d with error=%w",
			product.StockQuantity,
			param.Quantity,
			inErrors.ErrInsufficientStock,
		)
	} else if err != nil {
		err = fmt.Errorf("failed finding product with error=%w", err)
	}
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Trace().Int32(log.KeyStockQuantity, product.StockQuantity).Msg("checked stock")

	logger = logger.With().Str(log.KeyProcess, "reserving stock").Logger()
	logger.Trace().Msg("reserving stock")
	stock, err := queries.AdjustProductStock(c, repository.AdjustProductStockParams{
		ID:    product.ID,
		Delta: -param.Quantity,
	})
	if err != nil {
		err = fmt.Errorf("failed reserving stock with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Trace().Int32(log.KeyStockQuantity, stock).Msg("reserved stock")

	logger = logger.With().Str(log.KeyProcess, "upserting cart item").Logger()
	logger.Trace().Msg("upserting cart item")
	item, err := queries.FindCartItemByProductId(c, repository.FindCartItemByProductIdParams{
		CartID:    cart.ID,
		ProductID: product.ID,
	})
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		item, err = queries.InsertCartItem(c, repository.InsertCartItemParams{
			CartID:    cart.ID,
			ProductID: product.ID,
			Quantity:  param.Quantity,
		})
	case err == nil:
		item, err = queries.UpdateCartItemQuantity(c, repository.UpdateCartItemQuantityParams{
			ID:       item.ID,
			Quantity: item.Quantity + param.Quantity,
		})
	}
	if err != nil {
		err = fmt.Errorf("failed upserting cart item with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Trace().Str(log.KeyCartItemID, item.ID.String()).Msg("upserted cart item")

	res, err = svc.recomputeTotal(c, queries, cart)
	if err != nil {
		otel.RecordError(err, span)
		return response.Cart{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	logger.Trace().Msg("committing transaction")
	if err = tx.Commit(c); err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Str(log.KeyCartTotal, res.CartTotalPrice.StringFixed(2)).Msg("added item to cart")

	svc.products.Invalidate(c, param.ProductID)
	metrics.CartMutationTotal.WithLabelValues(operationAdd).Inc()
	svc.events.Publish(c, requester.UserID, constants.CartEventUpdated)
	return res, nil
}

// UpdateItem sets the quantity of a product already in the requester's cart
// and moves the difference from or back to the product stock.
func (svc *CartService) UpdateItem(
	c context.Context,
	requester auth.Identity,
	param request.CartItem,
) (res response.Cart, err error) {
	c, span := otel.Tracer.Start(c, "CartService UpdateItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService UpdateItem").
		Str(log.KeyUserID, requester.UserID.String()).
		Str(log.KeyProductID, param.ProductID.String()).
		Int32(log.KeyQuantity, param.Quantity).
		Logger()

	if param.Quantity < 1 {
		err = fmt.Errorf("failed updating quantity=%d with error=%w", param.Quantity, inErrors.ErrInvalidQuantity)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "beginning transaction").Logger()
	logger.Trace().Msg("beginning transaction")
	tx, err := svc.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed beginning transaction with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
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

	logger = logger.With().Str(log.KeyProcess, "finding cart item").Logger()
	logger.Trace().Msg("finding cart item")
	cart, err := queries.FindCartByUserIdForUpdate(c, requester.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("failed finding cart with error=%w", inErrors.ErrCartNotFound)
	} else if err != nil {
		err = fmt.Errorf("failed finding cart with error=%w", err)
	}
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger = logger.With().Str(log.KeyCartID, cart.ID.String()).Logger()

	item, err := queries.FindCartItemByProductId(c, repository.FindCartItemByProductIdParams{
		CartID:    cart.ID,
		ProductID: param.ProductID,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("failed finding cart item with error=%w", inErrors.ErrItemNotFound)
	} else if err != nil {
		err = fmt.Errorf("failed finding cart item with error=%w", err)
	}
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	delta := param.Quantity - item.Quantity
	logger = logger.With().
		Str(log.KeyCartItemID, item.ID.String()).
		Int32(log.KeyQuantityDelta, delta).
		Logger()
	logger.Trace().Msg("found cart item")

	if delta > 0 {
		logger = logger.With().Str(log.KeyProcess, "checking stock").Logger()
		logger.Trace().Msg("checking stock")
		product, err := queries.FindProductByIdForUpdate(c, param.ProductID)
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
			return response.Cart{}, err
		}
		logger.Trace().Msg("checked stock")
	}

	if delta != 0 {
		logger = logger.With().Str(log.KeyProcess, "adjusting stock").Logger()
		logger.Trace().Msg("adjusting stock")
		stock, err := queries.AdjustProductStock(c, repository.AdjustProductStockParams{
			ID:    param.ProductID,
			Delta: -delta,
		})
		if err != nil {
			err = fmt.Errorf("failed adjusting stock with error=%w", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return response.Cart{}, err
		}
		logger.Trace().Int32(log.KeyStockQuantity, stock).Msg("adjusted stock")
	}

	logger = logger.With().Str(log.KeyProcess, "updating cart item").Logger()
	logger.Trace().Msg("updating cart item")
	_, err = queries.UpdateCartItemQuantity(c, repository.UpdateCartItemQuantityParams{
		ID:       item.ID,
		Quantity: param.Quantity,
	})
	if err != nil {
		err = fmt.Errorf("failed updating cart item with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Trace().Msg("updated cart item")

	res, err = svc.recomputeTotal(c, queries, cart)
	if err != nil {
		otel.RecordError(err, span)
		return response.Cart{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "committing transaction").Logger()
	logger.Trace().Msg("committing transaction")
	if err = tx.Commit(c); err != nil {
		err = fmt.Errorf("failed committing transaction with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Str(log.KeyCartTotal, res.CartTotalPrice.StringFixed(2)).Msg("updated cart item")

	if delta != 0 {
		svc.products.Invalidate(c, param.ProductID)
	}
	metrics.CartMutationTotal.WithLabelValues(operationUpdate).Inc()
	svc.events.Publish(c, requester.UserID, constants.CartEventUpdated)
	return res, nil
}

// RemoveItem deletes an item of the requester's cart and releases its stock.
func (svc *CartService) RemoveItem(c context.Context, requester auth.Identity, itemID uuid.UUID) (err error) {
	c, span := otel.Tracer.Start(c, "CartService RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService RemoveItem").
		Str(log.KeyUserID, requester.UserID.String()).
		Str(log.KeyCartItemID, itemID.String()).
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

	logger = logger.With().Str(log.KeyProcess, "finding cart item").Logger()
	logger.Trace().Msg("finding cart item")
	cart, err := queries.FindCartByUserIdForUpdate(c, requester.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("failed finding cart with error=%w", inErrors.ErrCartNotFound)
	} else if err != nil {
		err = fmt.Errorf("failed finding cart with error=%w", err)
	}
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger = logger.With().Str(log.KeyCartID, cart.ID.String()).Logger()

	item, err := queries.FindCartItemById(c, repository.FindCartItemByIdParams{ID: itemID, CartID: cart.ID})
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("failed finding cart item with error=%w", inErrors.ErrItemNotFound)
	} else if err != nil {
		err = fmt.Errorf("failed finding cart item with error=%w", err)
	}
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger = logger.With().
		Str(log.KeyProductID, item.ProductID.String()).
		Int32(log.KeyQuantity, item.Quantity).
		Logger()
	logger.Trace().Msg("found cart item")

	logger = logger.With().Str(log.KeyProcess, "releasing stock").Logger()
	logger.Trace().Msg("releasing stock")
	stock, err := queries.AdjustProductStock(c, repository.AdjustProductStockParams{
		ID:    item.ProductID,
		Delta: item.Quantity,
	})
	if err != nil {
		err = fmt.Errorf("failed releasing stock with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Int32(log.KeyStockQuantity, stock).Msg("released stock")

	logger = logger.With().Str(log.KeyProcess, "deleting cart item").Logger()
	logger.Trace().Msg("deleting cart item")
	if _, err = queries.DeleteCartItem(c, item.ID); err != nil {
		err = fmt.Errorf("failed deleting cart item with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("deleted cart item")

	if _, err = svc.recomputeTotal(c, queries, cart); err != nil {
		otel.RecordError(err, span)
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
	logger.Info().Msg("removed cart item")

	svc.products.Invalidate(c, item.ProductID)
	metrics.CartMutationTotal.WithLabelValues(operationRemove).Inc()
	svc.events.Publish(c, requester.UserID, constants.CartEventUpdated)
	return nil
}

func (svc *CartService) ShowCart(c context.Context, requester auth.Identity) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService ShowCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService ShowCart").
		Str(log.KeyUserID, requester.UserID.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding cart").Logger()
	logger.Trace().Msg("finding cart")
	cart, err := svc.queries.FindCartByUserId(c, requester.UserID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("failed finding cart with error=%w", inErrors.ErrCartNotFound)
	} else if err != nil {
		err = fmt.Errorf("failed finding cart with error=%w", err)
	}
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger = logger.With().Str(log.KeyCartID, cart.ID.String()).Logger()
	logger.Trace().Msg("found cart")

	logger = logger.With().Str(log.KeyProcess, "finding cart items").Logger()
	logger.Trace().Msg("finding cart items")
	items, err := svc.queries.FindCartItemsWithProduct(c, cart.ID)
	if err != nil {
		err = fmt.Errorf("failed finding cart items with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("found cart items")

	return cartView(cart.ID, cart.UserID, items, repository.DecimalFromNumeric(cart.TotalPrice)), nil
}

// RecomputeTotal re-reads every item of a cart at the current product price
// and stores the sum as the cart total. It is idempotent.
func (svc *CartService) RecomputeTotal(c context.Context, cartID uuid.UUID) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService RecomputeTotal")
	defer span.End()

	cart, err := svc.queries.FindCartById(c, cartID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("failed finding cart with error=%w", inErrors.ErrCartNotFound)
	} else if err != nil {
		err = fmt.Errorf("failed finding cart with error=%w", err)
	}
	if err != nil {
		otel.RecordError(err, span)
		zerolog.Ctx(c).Error().Err(err).Str(log.KeyCartID, cartID.String()).Msg(err.Error())
		return response.Cart{}, err
	}
	return svc.recomputeTotal(c, svc.queries, cart)
}

func (svc *CartService) recomputeTotal(
	c context.Context,
	queries *repository.Queries,
	cart repository.Cart,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService recomputeTotal")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService recomputeTotal").
		Str(log.KeyCartID, cart.ID.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding cart items").Logger()
	logger.Trace().Msg("finding cart items")
	items, err := queries.FindCartItemsWithProduct(c, cart.ID)
	if err != nil {
		err = fmt.Errorf("failed finding cart items with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Response().ItemTotalPrice)
	}
	logger = logger.With().Str(log.KeyCartTotal, total.StringFixed(2)).Logger()

	logger = logger.With().Str(log.KeyProcess, "updating cart total").Logger()
	logger.Trace().Msg("updating cart total")
	_, err = queries.UpdateCartTotal(c, repository.UpdateCartTotalParams{
		ID:         cart.ID,
		TotalPrice: repository.NumericFromDecimal(total),
	})
	if err != nil {
		err = fmt.Errorf("failed updating cart total with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Trace().Msg("updated cart total")

	return cartView(cart.ID, cart.UserID, items, total), nil
}

func cartView(
	cartID uuid.UUID,
	userID uuid.UUID,
	items []repository.FindCartItemsWithProductRow,
	total decimal.Decimal,
) response.Cart {
	res := response.Cart{
		ID:             cartID,
		UserID:         userID,
		Items:          make([]response.CartItem, 0, len(items)),
		CartTotalPrice: total,
	}
	for _, item := range items {
		res.Items = append(res.Items, item.Response())
	}
	return res
}
