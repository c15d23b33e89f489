package server

import (
	"context"
	"net/http"
	"net/url"

	"github.com/cstockton/go-conv"
	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/listing-proxy/internal/config"
	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
	"github.com/nguyentranbao-ct/listing-proxy/internal/repo/uploads"
	"github.com/nguyentranbao-ct/listing-proxy/internal/usecase"
	"github.com/nguyentranbao-ct/listing-proxy/pkg/ctxval"
	"github.com/nguyentranbao-ct/listing-proxy/pkg/logger/logctx"
)

type Controller interface {
	CreateProduct(c echo.Context, req CreateProductRequest) (*ProductResponse, error)
	UpdateProduct(c echo.Context, req UpdateProductRequest) (*UpdateProductResponse, error)
	ListProducts(c echo.Context, req ListProductsRequest) (*ListProductsResponse, error)
	RemoveProduct(c echo.Context, req RemoveProductRequest) (*RemoveProductResponse, error)
	Health(c echo.Context) error
}

type callerIDKey struct{}

type controller struct {
	service string
	listing usecase.ListingUsecase
	stager  uploads.Stager
}

func NewHandler(conf *config.Config, listing usecase.ListingUsecase, stager uploads.Stager) Controller {
	return &controller{
		service: conf.Server.Service,
		listing: listing,
		stager:  stager,
	}
}

func (h *controller) CreateProduct(c echo.Context, req CreateProductRequest) (*ProductResponse, error) {
	ctx := withCaller(c, req.StorefrontUserID)

	bedrooms, err := conv.Int(req.Bedrooms.String())
	if err != nil || bedrooms < 0 {
		return nil, models.NewValidationError("bedrooms must be a non-negative integer")
	}

	images, err := h.stager.Stage(ctx, req.Images)
	if err != nil {
		return nil, err
	}

	res, err := h.listing.CreateListing(ctx, models.CreateListingInput{
		CallerID: req.StorefrontUserID,
		Title:    req.Title,
		BodyHTML: req.BodyHTML,
		Price:    req.Price.String(),
		Size:     req.Size,
		Bedrooms: bedrooms,
		Baths:    req.Baths,
		Images:   images,
	})
	if err != nil {
		return nil, err
	}
	return created("Product created successfully", res), nil
}

func (h *controller) UpdateProduct(c echo.Context, req UpdateProductRequest) (*UpdateProductResponse, error) {
	ctx := withCaller(c, req.StorefrontUserID)

	images, err := h.stager.Stage(ctx, req.Images)
	if err != nil {
		return nil, err
	}

	res, err := h.listing.UpdateListing(ctx, models.UpdateListingInput{
		ProductID: req.ProductID,
		CallerID:  req.StorefrontUserID,
		Title:     req.Title,
		BodyHTML:  req.BodyHTML,
		Price:     req.Price.String(),
		Images:    images,
	})
	if err != nil {
		return nil, err
	}
	return updated("Product updated successfully", res), nil
}

func (h *controller) ListProducts(c echo.Context, req ListProductsRequest) (*ListProductsResponse, error) {
	callerID, err := url.PathUnescape(req.StorefrontUserID)
	if err != nil {
		return nil, models.NewValidationError("Invalid storefront_user_id")
	}
	ctx := withCaller(c, callerID)

	products, err := h.listing.ListListings(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return &ListProductsResponse{Products: products}, nil
}

func (h *controller) RemoveProduct(c echo.Context, req RemoveProductRequest) (*RemoveProductResponse, error) {
	ctx := withCaller(c, req.StorefrontUserID)

	if err := h.listing.DeleteListing(ctx, req.ProductID, req.StorefrontUserID); err != nil {
		return nil, err
	}
	return &RemoveProductResponse{Message: "Product removed successfully", ProductID: req.ProductID}, nil
}

func (h *controller) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, &HealthResponse{
		Status:  "healthy",
		Service: h.service,
	})
}

// withCaller records the caller for the access log and every log line of
// the request.
func withCaller(c echo.Context, callerID string) context.Context {
	ctx := c.Request().Context()
	ctxval.Set(ctx, callerIDKey{}, callerID)
	ctx = logctx.WithFields(ctx, "storefront_user_id", callerID)
	c.SetRequest(c.Request().WithContext(ctx))
	return ctx
}

func callerID(c echo.Context) (string, bool) {
	return ctxval.Get[callerIDKey, string](c.Request().Context(), callerIDKey{})
}
