package shopify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/nguyentranbao-ct/listing-proxy/internal/config"
	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
	"github.com/nguyentranbao-ct/listing-proxy/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

const accessTokenHeader = "X-Shopify-Access-Token"

// ErrStop ends IterateProducts early without reporting an error.
var ErrStop = errors.New("stop")

// Client is a typed wrapper over the Shopify Admin REST API. Failures are
// returned as *models.RemoteCatalogError and never interpreted here.
type Client interface {
	SearchCustomers(ctx context.Context, query string) ([]models.Customer, error)
	IterateProducts(ctx context.Context, fields []string, fn func(models.Listing) error) error
	ListProducts(ctx context.Context, fields []string) ([]models.Listing, error)
	GetProduct(ctx context.Context, productID int64) (*models.Listing, error)
	CreateProduct(ctx context.Context, in models.ProductInput) (*models.Listing, error)
	UpdateProduct(ctx context.Context, productID int64, in models.ProductInput) (*models.Listing, error)
	DeleteProduct(ctx context.Context, productID int64) error
	UploadImage(ctx context.Context, productID int64, in models.ImageInput) (*models.Image, error)
	DeleteImage(ctx context.Context, productID, imageID int64) error
	GetMetafields(ctx context.Context, productID int64) ([]models.Metafield, error)
}

type client struct {
	rest     *resty.Client
	limiter  *rate.Limiter
	pageSize int
	metrics  *prometheus.HistogramVec
}

func NewClient(cfg *config.Config) (Client, error) {
	conf := cfg.Shopify
	if conf.BaseURL == "" {
		return nil, fmt.Errorf("shopify base url is required")
	}
	if conf.AccessToken == "" {
		return nil, fmt.Errorf("shopify access token is required")
	}

	metrics, err := util.GetHistogramVec("shopify_request_duration_seconds", "op", "code")
	if err != nil {
		return nil, fmt.Errorf("get histogram vec: %w", err)
	}

	rest := util.NewRestyClient(util.RestyOptions{
		BaseURL:    strings.TrimRight(conf.BaseURL, "/"),
		Timeout:    conf.Timeout,
		RetryCount: conf.MaxRetries,
	}).
		SetHeader(accessTokenHeader, conf.AccessToken).
		SetHeader("Accept", "application/json")

	limit := rate.Inf
	if conf.RateLimit > 0 {
		limit = rate.Limit(conf.RateLimit)
	}
	burst := conf.RateBurst
	if burst <= 0 {
		burst = 1
	}

	pageSize := conf.PageSize
	if pageSize <= 0 || pageSize > 250 {
		pageSize = 250
	}

	return &client{
		rest:     rest,
		limiter:  rate.NewLimiter(limit, burst),
		pageSize: pageSize,
		metrics:  metrics,
	}, nil
}

type (
	customersEnvelope struct {
		Customers []models.Customer `json:"customers"`
	}
	productsEnvelope struct {
		Products []models.Listing `json:"products"`
	}
	productEnvelope struct {
		Product models.Listing `json:"product"`
	}
	productInputEnvelope struct {
		Product models.ProductInput `json:"product"`
	}
	imageEnvelope struct {
		Image models.Image `json:"image"`
	}
	imageInputEnvelope struct {
		Image models.ImageInput `json:"image"`
	}
	metafieldsEnvelope struct {
		Metafields []models.Metafield `json:"metafields"`
	}
)

type request struct {
	op     string
	method string
	path   string
	query  map[string]string
	body   any
	result any
}

func (c *client) do(ctx context.Context, r request) (*resty.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &models.RemoteCatalogError{Method: r.method, Path: r.path, Err: fmt.Errorf("rate limiter: %w", err)}
	}

	req := c.rest.R().SetContext(ctx)
	if len(r.query) > 0 {
		req.SetQueryParams(r.query)
	}
	if r.body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(r.body)
	}
	if r.result != nil {
		req.SetResult(r.result)
	}

	start := time.Now()
	resp, err := req.Execute(r.method, r.path)
	code := "error"
	if err == nil {
		code = strconv.Itoa(resp.StatusCode())
	}
	c.metrics.WithLabelValues(r.op, code).Observe(time.Since(start).Seconds())

	if err != nil {
		return resp, &models.RemoteCatalogError{Method: r.method, Path: r.path, Err: err}
	}
	if !resp.IsSuccess() {
		return resp, &models.RemoteCatalogError{
			Method: r.method,
			Path:   r.path,
			Status: resp.StatusCode(),
			Body:   resp.Body(),
		}
	}
	return resp, nil
}

func (c *client) SearchCustomers(ctx context.Context, query string) ([]models.Customer, error) {
	var out customersEnvelope
	_, err := c.do(ctx, request{
		op:     "search_customers",
		method: http.MethodGet,
		path:   "/customers/search.json",
		query:  map[string]string{"query": query, "fields": "id,email,note,tags"},
		result: &out,
	})
	if err != nil {
		return nil, err
	}
	return out.Customers, nil
}

// IterateProducts walks every product page by page, following the cursor in
// the Link header, and calls fn for each product in catalog order.
func (c *client) IterateProducts(ctx context.Context, fields []string, fn func(models.Listing) error) error {
	query := map[string]string{"limit": strconv.Itoa(c.pageSize)}
	if len(fields) > 0 {
		query["fields"] = strings.Join(fields, ",")
	}

	for page := 1; ; page++ {
		var out productsEnvelope
		resp, err := c.do(ctx, request{
			op:     "list_products",
			method: http.MethodGet,
			path:   "/products.json",
			query:  query,
			result: &out,
		})
		if err != nil {
			return fmt.Errorf("list products page %d: %w", page, err)
		}

		for _, p := range out.Products {
			if err := fn(p); err != nil {
				if errors.Is(err, ErrStop) {
					return nil
				}
				return err
			}
		}

		next, ok := nextPageQuery(resp.Header().Get("Link"))
		if !ok || len(out.Products) == 0 {
			return nil
		}
		query = next
	}
}

func (c *client) ListProducts(ctx context.Context, fields []string) ([]models.Listing, error) {
	products := make([]models.Listing, 0)
	err := c.IterateProducts(ctx, fields, func(p models.Listing) error {
		products = append(products, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (c *client) GetProduct(ctx context.Context, productID int64) (*models.Listing, error) {
	var out productEnvelope
	_, err := c.do(ctx, request{
		op:     "get_product",
		method: http.MethodGet,
		path:   fmt.Sprintf("/products/%d.json", productID),
		result: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out.Product, nil
}

func (c *client) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Listing, error) {
	var out productEnvelope
	_, err := c.do(ctx, request{
		op:     "create_product",
		method: http.MethodPost,
		path:   "/products.json",
		body:   productInputEnvelope{Product: in},
		result: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out.Product, nil
}

func (c *client) UpdateProduct(ctx context.Context, productID int64, in models.ProductInput) (*models.Listing, error) {
	in.ID = productID
	var out productEnvelope
	_, err := c.do(ctx, request{
		op:     "update_product",
		method: http.MethodPut,
		path:   fmt.Sprintf("/products/%d.json", productID),
		body:   productInputEnvelope{Product: in},
		result: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out.Product, nil
}

func (c *client) DeleteProduct(ctx context.Context, productID int64) error {
	_, err := c.do(ctx, request{
		op:     "delete_product",
		method: http.MethodDelete,
		path:   fmt.Sprintf("/products/%d.json", productID),
	})
	return err
}

func (c *client) UploadImage(ctx context.Context, productID int64, in models.ImageInput) (*models.Image, error) {
	var out imageEnvelope
	_, err := c.do(ctx, request{
		op:     "upload_image",
		method: http.MethodPost,
		path:   fmt.Sprintf("/products/%d/images.json", productID),
		body:   imageInputEnvelope{Image: in},
		result: &out,
	})
	if err != nil {
		return nil, err
	}
	return &out.Image, nil
}

func (c *client) DeleteImage(ctx context.Context, productID, imageID int64) error {
	_, err := c.do(ctx, request{
		op:     "delete_image",
		method: http.MethodDelete,
		path:   fmt.Sprintf("/products/%d/images/%d.json", productID, imageID),
	})
	return err
}

func (c *client) GetMetafields(ctx context.Context, productID int64) ([]models.Metafield, error) {
	var out metafieldsEnvelope
	_, err := c.do(ctx, request{
		op:     "get_metafields",
		method: http.MethodGet,
		path:   fmt.Sprintf("/products/%d/metafields.json", productID),
		result: &out,
	})
	if err != nil {
		return nil, err
	}
	if out.Metafields == nil {
		out.Metafields = []models.Metafield{}
	}
	return out.Metafields, nil
}
