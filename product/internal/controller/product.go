package controller

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/storefront/internal/errors"
	inHttp "github.com/Alturino/storefront/internal/http"
	"github.com/Alturino/storefront/internal/log"
	"github.com/Alturino/storefront/internal/otel"
	"github.com/Alturino/storefront/internal/validate"
	"github.com/Alturino/storefront/product/internal/service"
	"github.com/Alturino/storefront/product/pkg/request"
)

type ProductController struct {
	service *service.ProductService
}

func AttachProductController(
	c context.Context,
	router *mux.Router,
	authenticate mux.MiddlewareFunc,
	service *service.ProductService,
) {
	controller := ProductController{service: service}

	products := router.PathPrefix("/products").Subrouter()
	products.Handle("", authenticate(http.HandlerFunc(controller.InsertProduct))).Methods(http.MethodPost)
	products.HandleFunc("", controller.FindProducts).Methods(http.MethodGet)
	products.HandleFunc("/export", controller.ExportProducts).Methods(http.MethodGet)
	products.HandleFunc("/{productId}", controller.FindProductById).Methods(http.MethodGet)
	products.Handle("/{productId}", authenticate(http.HandlerFunc(controller.UpdateProduct))).Methods(http.MethodPut)
	products.Handle("/{productId}", authenticate(http.HandlerFunc(controller.DeleteProduct))).Methods(http.MethodDelete)
}

func (p ProductController) InsertProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController InsertProduct")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ProductController InsertProduct").Logger()

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	logger.Info().Msg("validating request body")
	reqBody := request.Product{}
	if err := inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Any(log.KeyRequestBody, reqBody).Logger()
	logger.Info().Msg("validated request body")

	logger = logger.With().Str(log.KeyProcess, "inserting product").Logger()
	logger.Info().Msg("inserting product")
	product, err := p.service.InsertProduct(logger.WithContext(c), reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("inserted product")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusCreated,
		"message":    "Product created",
		"data":       map[string]interface{}{"product": product},
	})
}

func (p ProductController) FindProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController FindProducts")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ProductController FindProducts").Logger()

	param, err := findProductsParam(c, r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "finding products").Logger()
	logger.Info().Msg("finding products")
	products, err := p.service.FindProducts(logger.WithContext(c), param)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("found products")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "found products",
		"data":       map[string]interface{}{"products": products},
	})
}

func (p ProductController) FindProductById(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController FindProductById")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ProductController FindProductById").Logger()

	productID, err := inHttp.PathUUID(r, "productId", inErrors.ErrProductNotFound)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Str(log.KeyProductID, productID.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "finding product").Logger()
	logger.Info().Msg("finding product")
	product, err := p.service.FindProductById(logger.WithContext(c), productID)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("found product")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "found product",
		"data":       map[string]interface{}{"product": product},
	})
}

func (p ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController UpdateProduct")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ProductController UpdateProduct").Logger()

	productID, err := inHttp.PathUUID(r, "productId", inErrors.ErrProductNotFound)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Str(log.KeyProductID, productID.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "validating request body").Logger()
	logger.Info().Msg("validating request body")
	reqBody := request.Product{}
	if err = inHttp.DecodeAndValidate(c, r, &reqBody); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Any(log.KeyRequestBody, reqBody).Logger()
	logger.Info().Msg("validated request body")

	logger = logger.With().Str(log.KeyProcess, "updating product").Logger()
	logger.Info().Msg("updating product")
	product, err := p.service.UpdateProduct(logger.WithContext(c), productID, reqBody)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("updated product")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "Product updated",
		"data":       map[string]interface{}{"product": product},
	})
}

func (p ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController DeleteProduct")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ProductController DeleteProduct").Logger()

	productID, err := inHttp.PathUUID(r, "productId", inErrors.ErrProductNotFound)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger = logger.With().Str(log.KeyProductID, productID.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "deleting product").Logger()
	logger.Info().Msg("deleting product")
	if err = p.service.DeleteProduct(logger.WithContext(c), productID); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}
	logger.Info().Msg("deleted product")

	inHttp.WriteNoContent(c, w)
}

func (p ProductController) ExportProducts(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "ProductController ExportProducts")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "ProductController ExportProducts").Logger()

	param, err := findProductsParam(c, r)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	logger = logger.With().Str(log.KeyProcess, "exporting products").Logger()
	logger.Info().Msg("exporting products")
	file, err := p.service.ExportProducts(logger.WithContext(c), param)
	if err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteErrorResponse(c, w, err)
		return
	}

	w.Header().Set(inHttp.KeyHeaderContentType, inHttp.ValueHeaderXlsx)
	w.Header().Set("Content-Disposition", `attachment; filename="products.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if err = file.Write(w); err != nil {
		err = fmt.Errorf("failed writing workbook with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("exported products")
}

func findProductsParam(c context.Context, r *http.Request) (request.FindProducts, error) {
	param := request.FindProducts{Category: r.URL.Query().Get("category")}
	if err := validate.New().StructCtx(c, param); err != nil {
		return request.FindProducts{}, fmt.Errorf(
			"failed validating query with error=%w",
			inErrors.New(inErrors.ErrValidation, err.Error()),
		)
	}
	return param, nil
}
