package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/tealeg/xlsx"

	"github.com/Alturino/storefront/internal/cache"
	inErrors "github.com/Alturino/storefront/internal/errors"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/repository"
	"github.com/Alturino/storefront/product/pkg/request"
	"github.com/Alturino/storefront/product/pkg/response"
)

type ProductService struct {
	pool    *pgxpool.Pool
	queries *repository.Queries
	cache   *cache.ProductCache
}

func NewProductService(
	pool *pgxpool.Pool,
	queries *repository.Queries,
	cache *cache.ProductCache,
) *ProductService {
	return &ProductService{pool: pool, queries: queries, cache: cache}
}

func (svc *ProductService) InsertProduct(c context.Context, param request.Product) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService InsertProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService InsertProduct").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "inserting product").Logger()
	logger.Trace().Msg("inserting product")
	product, err := svc.queries.InsertProduct(c, repository.InsertProductParams{
		Name:          param.Name,
		Description:   param.Description,
		Price:         repository.NumericFromDecimal(param.Price),
		StockQuantity: param.StockQuantity,
		Category:      param.Category,
	})
	if err != nil {
		err = fmt.Errorf("failed inserting product with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger = logger.With().Str(log.KeyProductID, product.ID.String()).Logger()
	logger.Info().Msg("inserted product")

	return product.Response(), nil
}

func (svc *ProductService) FindProducts(c context.Context, param request.FindProducts) ([]response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService FindProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService FindProducts").
		Str(log.KeyCategory, param.Category).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding products").Logger()
	logger.Trace().Msg("finding products")
	products, err := svc.queries.FindProducts(c, param.Category)
	if err != nil {
		err = fmt.Errorf("failed finding products with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Int(log.KeyProducts, len(products)).Msg("found products")

	res := make([]response.Product, 0, len(products))
	for _, product := range products {
		res = append(res, product.Response())
	}
	return res, nil
}

// FindProductById reads through the products:<id> cache. Cache failures are
// logged and fall back to the database.
func (svc *ProductService) FindProductById(c context.Context, productID uuid.UUID) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService FindProductById")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService FindProductById").
		Str(log.KeyProductID, productID.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding product in cache").Logger()
	logger.Trace().Msg("finding product in cache")
	cached, hit, err := svc.cache.Get(c, productID)
	if err != nil {
		logger.Warn().Err(err).Msg(err.Error())
	}
	if hit {
		logger.Info().Msg("found product in cache")
		return cached, nil
	}

	logger = logger.With().Str(log.KeyProcess, "finding product in database").Logger()
	logger.Trace().Msg("finding product in database")
	product, err := svc.queries.FindProductById(c, productID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("failed finding product with error=%w", inErrors.ErrProductNotFound)
	} else if err != nil {
		err = fmt.Errorf("failed finding product with error=%w", err)
	}
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Info().Msg("found product in database")

	res := product.Response()
	logger = logger.With().Str(log.KeyProcess, "inserting product to cache").Logger()
	logger.Trace().Msg("inserting product to cache")
	if err = svc.cache.Set(c, res); err != nil {
		logger.Warn().Err(err).Msg(err.Error())
		return res, nil
	}
	logger.Info().Msg("inserted product to cache")

	return res, nil
}

func (svc *ProductService) UpdateProduct(
	c context.Context,
	productID uuid.UUID,
	param request.Product,
) (response.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService UpdateProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService UpdateProduct").
		Str(log.KeyProductID, productID.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "updating product").Logger()
	logger.Trace().Msg("updating product")
	product, err := svc.queries.UpdateProduct(c, repository.UpdateProductParams{
		ID:            productID,
		Name:          param.Name,
		Description:   param.Description,
		Price:         repository.NumericFromDecimal(param.Price),
		StockQuantity: param.StockQuantity,
		Category:      param.Category,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		err = fmt.Errorf("failed updating product with error=%w", inErrors.ErrProductNotFound)
	} else if err != nil {
		err = fmt.Errorf("failed updating product with error=%w", err)
	}
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Product{}, err
	}
	logger.Info().Msg("updated product")

	svc.cache.Invalidate(c, productID)
	return product.Response(), nil
}

func (svc *ProductService) DeleteProduct(c context.Context, productID uuid.UUID) error {
	c, span := otel.Tracer.Start(c, "ProductService DeleteProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService DeleteProduct").
		Str(log.KeyProductID, productID.String()).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "counting order details").Logger()
	logger.Trace().Msg("counting order details")
	referenced, err := svc.queries.CountOrderDetailsByProductId(c, productID)
	if err != nil {
		err = fmt.Errorf("failed counting order details with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if referenced > 0 {
		err = fmt.Errorf("product referenced by %d order details with error=%w", referenced, inErrors.ErrProductReferenced)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Trace().Msg("counted order details")

	logger = logger.With().Str(log.KeyProcess, "deleting product").Logger()
	logger.Trace().Msg("deleting product")
	deleted, err := svc.queries.DeleteProduct(c, productID)
	switch {
	case repository.IsForeignKeyViolation(err):
		err = fmt.Errorf("failed deleting product with error=%w", inErrors.ErrProductReferenced)
	case err != nil:
		err = fmt.Errorf("failed deleting product with error=%w", err)
	case deleted == 0:
		err = fmt.Errorf("failed deleting product with error=%w", inErrors.ErrProductNotFound)
	}
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("deleted product")

	svc.cache.Invalidate(c, productID)
	return nil
}

// ExportProducts renders the catalog, optionally filtered by category, as a
// single sheet workbook.
func (svc *ProductService) ExportProducts(c context.Context, param request.FindProducts) (*xlsx.File, error) {
	c, span := otel.Tracer.Start(c, "ProductService ExportProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService ExportProducts").
		Logger()

	products, err := svc.FindProducts(c, param)
	if err != nil {
		otel.RecordError(err, span)
		return nil, err
	}

	logger = logger.With().Str(log.KeyProcess, "building workbook").Logger()
	logger.Trace().Msg("building workbook")
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		err = fmt.Errorf("failed adding sheet with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	header := sheet.AddRow()
	for _, title := range []string{"ID", "Name", "Description", "Price", "Stock Quantity", "Category"} {
		header.AddCell().SetString(title)
	}
	for _, product := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(product.ID.String())
		row.AddCell().SetString(product.Name)
		row.AddCell().SetString(product.Description)
		row.AddCell().SetString(product.Price.StringFixed(2))
		row.AddCell().SetInt(int(product.StockQuantity))
		row.AddCell().SetString(product.Category)
	}
	logger.Info().Int(log.KeyProducts, len(products)).Msg("built workbook")

	return file, nil
}
