package server

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"slices"

	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
)

const msgMissingFields = "Missing required fields"

// CreateProductRequest accepts multipart forms or JSON. Price and bedrooms
// take either a JSON number or a numeric string.
type CreateProductRequest struct {
	Title            string                  `json:"title" form:"title" validate:"required,notblank"`
	BodyHTML         string                  `json:"body_html" form:"body_html" validate:"required"`
	Price            json.Number             `json:"price" form:"price" validate:"required,numeric"`
	StorefrontUserID string                  `json:"storefront_user_id" form:"storefront_user_id" validate:"required,notblank"`
	Size             string                  `json:"size" form:"size" validate:"required"`
	Bedrooms         json.Number             `json:"bedrooms" form:"bedrooms" validate:"required,numeric"`
	Baths            string                  `json:"baths" form:"baths" validate:"required"`
	Images           []*multipart.FileHeader `json:"-" form:"-" file:"images"`
}

func (CreateProductRequest) ValidationMessage([]string) string { return msgMissingFields }

type UpdateProductRequest struct {
	ProductID        int64                   `param:"product_id" json:"-" form:"-" validate:"required,gt=0"`
	Title            string                  `json:"title" form:"title" validate:"required,notblank"`
	BodyHTML         string                  `json:"body_html" form:"body_html" validate:"required"`
	Price            json.Number             `json:"price" form:"price" validate:"required,numeric"`
	StorefrontUserID string                  `json:"storefront_user_id" form:"storefront_user_id" validate:"required,notblank"`
	Images           []*multipart.FileHeader `json:"-" form:"-" file:"images"`
}

func (UpdateProductRequest) ValidationMessage([]string) string { return msgMissingFields }

type ListProductsRequest struct {
	StorefrontUserID string `param:"storefront_user_id" validate:"required"`
}

type RemoveProductRequest struct {
	ProductID        int64  `param:"product_id" json:"-" form:"-" validate:"required,gt=0"`
	StorefrontUserID string `json:"storefront_user_id" validate:"required,notblank"`
}

func (RemoveProductRequest) ValidationMessage(fields []string) string {
	if slices.Contains(fields, "storefront_user_id") {
		return "Missing storefront_user_id in request body."
	}
	return "Invalid product_id"
}

type ProductResponse struct {
	status    int
	Message   string         `json:"message"`
	ProductID int64          `json:"productId"`
	Images    []models.Image `json:"images"`
}

func (r *ProductResponse) StatusCode() int { return r.status }

// UpdateProductResponse echoes the path id back as a string, like delete.
type UpdateProductResponse struct {
	Message   string         `json:"message"`
	ProductID int64          `json:"productId,string"`
	Images    []models.Image `json:"images"`
}

type ListProductsResponse struct {
	Products []models.ListingWithMetafields `json:"products"`
}

// RemoveProductResponse echoes the path id back as a string.
type RemoveProductResponse struct {
	Message   string `json:"message"`
	ProductID int64  `json:"product_id,string"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func created(msg string, res *models.ListingResult) *ProductResponse {
	return &ProductResponse{status: http.StatusCreated, Message: msg, ProductID: res.ProductID, Images: res.Images}
}

func updated(msg string, res *models.ListingResult) *UpdateProductResponse {
	return &UpdateProductResponse{Message: msg, ProductID: res.ProductID, Images: res.Images}
}
