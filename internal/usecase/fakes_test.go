package usecase

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/nguyentranbao-ct/listing-proxy/internal/config"
	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
	"github.com/nguyentranbao-ct/listing-proxy/internal/repo/shopify"
	"github.com/nguyentranbao-ct/listing-proxy/internal/repo/uploads"
	"github.com/stretchr/testify/require"
)

// fakeCatalog is an in-memory shopify.Client.
type fakeCatalog struct {
	mu         sync.Mutex
	nextID     int64
	customers  map[string]models.Customer
	products   map[int64]*models.Listing
	metafields map[int64][]models.Metafield

	searchErr    error
	getErr       error
	createErr    error
	updateErr    error
	deleteErr    error
	metafieldErr map[int64]error
	uploadErr    func(in models.ImageInput) error
	imageDelErr  func(imageID int64) error

	visited      int
	iterateCalls int
	updates      []models.ProductInput
}

var _ shopify.Client = (*fakeCatalog)(nil)

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		nextID:       100,
		customers:    map[string]models.Customer{},
		products:     map[int64]*models.Listing{},
		metafields:   map[int64][]models.Metafield{},
		metafieldErr: map[int64]error{},
	}
}

func upstreamErr(status int) error {
	return &models.RemoteCatalogError{Method: http.MethodPost, Path: "/x", Status: status, Body: []byte(`{"errors":"nope"}`)}
}

func (f *fakeCatalog) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeCatalog) addProduct(p models.Listing) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == 0 {
		p.ID = f.id()
	}
	f.products[p.ID] = cloneListing(&p)
	return p.ID
}

func (f *fakeCatalog) product(id int64) *models.Listing {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil
	}
	return cloneListing(p)
}

func cloneListing(p *models.Listing) *models.Listing {
	cp := *p
	cp.Images = append([]models.Image(nil), p.Images...)
	cp.Variants = append([]models.Variant(nil), p.Variants...)
	return &cp
}

func (f *fakeCatalog) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.products)
}

func (f *fakeCatalog) SearchCustomers(_ context.Context, query string) ([]models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	c, ok := f.customers[strings.TrimPrefix(query, "email:")]
	if !ok {
		return []models.Customer{}, nil
	}
	return []models.Customer{c}, nil
}

func (f *fakeCatalog) IterateProducts(_ context.Context, _ []string, fn func(models.Listing) error) error {
	f.mu.Lock()
	f.iterateCalls++
	ids := make([]int64, 0, len(f.products))
	for id := range f.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	items := make([]models.Listing, 0, len(ids))
	for _, id := range ids {
		items = append(items, *cloneListing(f.products[id]))
	}
	f.mu.Unlock()

	for _, p := range items {
		f.mu.Lock()
		f.visited++
		f.mu.Unlock()
		if err := fn(p); err != nil {
			if err == shopify.ErrStop {
				return nil
			}
			return err
		}
	}
	return nil
}

func (f *fakeCatalog) ListProducts(ctx context.Context, fields []string) ([]models.Listing, error) {
	var out []models.Listing
	err := f.IterateProducts(ctx, fields, func(p models.Listing) error {
		out = append(out, p)
		return nil
	})
	return out, err
}

func (f *fakeCatalog) GetProduct(_ context.Context, productID int64) (*models.Listing, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p := f.product(productID)
	if p == nil {
		return nil, upstreamErr(http.StatusNotFound)
	}
	return p, nil
}

func (f *fakeCatalog) CreateProduct(_ context.Context, in models.ProductInput) (*models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	p := &models.Listing{ID: f.id(), Title: in.Title, BodyHTML: in.BodyHTML, Tags: in.Tags}
	for _, v := range in.Variants {
		v.ID = f.id()
		p.Variants = append(p.Variants, v)
	}
	f.products[p.ID] = p
	f.metafields[p.ID] = append([]models.Metafield(nil), in.Metafields...)
	return cloneListing(p), nil
}

func (f *fakeCatalog) UpdateProduct(_ context.Context, productID int64, in models.ProductInput) (*models.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, in)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	p, ok := f.products[productID]
	if !ok {
		return nil, upstreamErr(http.StatusNotFound)
	}
	p.Title, p.BodyHTML, p.Tags = in.Title, in.BodyHTML, in.Tags
	for _, v := range in.Variants {
		found := false
		for i := range p.Variants {
			if p.Variants[i].ID == v.ID {
				p.Variants[i].Price = v.Price
				found = true
			}
		}
		if !found {
			v.ID = f.id()
			p.Variants = append(p.Variants, v)
		}
	}
	return cloneListing(p), nil
}

func (f *fakeCatalog) DeleteProduct(_ context.Context, productID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.products[productID]; !ok {
		return upstreamErr(http.StatusNotFound)
	}
	delete(f.products, productID)
	return nil
}

func (f *fakeCatalog) UploadImage(_ context.Context, productID int64, in models.ImageInput) (*models.Image, error) {
	if f.uploadErr != nil {
		if err := f.uploadErr(in); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return nil, upstreamErr(http.StatusNotFound)
	}
	src := in.Src
	if src == "" {
		src = "https://cdn.shopify.com/" + in.Filename
	}
	img := models.Image{ID: f.id(), ProductID: productID, Position: in.Position, Src: src}
	p.Images = append(p.Images, img)
	return &img, nil
}

func (f *fakeCatalog) DeleteImage(_ context.Context, productID, imageID int64) error {
	if f.imageDelErr != nil {
		if err := f.imageDelErr(imageID); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return upstreamErr(http.StatusNotFound)
	}
	for i, img := range p.Images {
		if img.ID == imageID {
			p.Images = append(p.Images[:i], p.Images[i+1:]...)
			return nil
		}
	}
	return upstreamErr(http.StatusNotFound)
}

func (f *fakeCatalog) GetMetafields(_ context.Context, productID int64) ([]models.Metafield, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.metafieldErr[productID]; err != nil {
		return nil, err
	}
	mfs := append([]models.Metafield{}, f.metafields[productID]...)
	return mfs, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	events []models.ListingEvent
}

func (p *fakePublisher) Publish(_ context.Context, event models.ListingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *fakePublisher) published() []models.ListingEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.ListingEvent(nil), p.events...)
}

func testConfig() *config.Config {
	return &config.Config{
		Listing: config.ListingConfig{
			OwnershipMatch:     MatchExact,
			Compensate:         true,
			MetafieldWorkers:   4,
			MetafieldNamespace: "custom",
		},
		Quota: config.QuotaConfig{PrivateLimit: 2},
	}
}

func newTestStager(t *testing.T) (uploads.Stager, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := uploads.NewStager(&config.Config{Upload: config.UploadConfig{Dir: dir, MaxFiles: 5, MaxFileSize: 1 << 20}})
	require.NoError(t, err)
	return s, dir
}

func stageFiles(t *testing.T, dir string, names ...string) []models.LocalImage {
	t.Helper()
	out := make([]models.LocalImage, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, "upload-"+name)
		require.NoError(t, os.WriteFile(path, []byte("img:"+name), 0o600))
		out = append(out, models.LocalImage{Path: path, Filename: name})
	}
	return out
}

func requireReleased(t *testing.T, files []models.LocalImage) {
	t.Helper()
	for _, f := range files {
		_, err := os.Stat(f.Path)
		require.True(t, os.IsNotExist(err), fmt.Sprintf("%s still staged", f.Path))
	}
}
