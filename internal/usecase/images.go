package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/nguyentranbao-ct/listing-proxy/internal/metrics"
	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
	"github.com/nguyentranbao-ct/listing-proxy/internal/repo/shopify"
	"github.com/nguyentranbao-ct/listing-proxy/internal/repo/uploads"
	"github.com/nguyentranbao-ct/listing-proxy/pkg/logger/logctx"
	"github.com/nguyentranbao-ct/listing-proxy/pkg/util"
	"golang.org/x/sync/errgroup"
)

const (
	imageOpUpload = "upload"
	imageOpDelete = "delete"
)

type imageReconciler struct {
	catalog shopify.Client
	stager  uploads.Stager
}

func NewImageReconciler(catalog shopify.Client, stager uploads.Stager) ImageReconciler {
	return &imageReconciler{catalog: catalog, stager: stager}
}

// UploadAll uploads every file concurrently. A failing upload does not cancel
// its siblings. The returned images keep the order of files.
func (r *imageReconciler) UploadAll(ctx context.Context, productID int64, files []models.LocalImage) ([]models.Image, error) {
	uploaded := make([]*models.Image, len(files))
	failed := make([]*models.FailedImage, len(files))

	var g errgroup.Group
	for i, f := range files {
		g.Go(func() error {
			defer r.stager.Release(ctx, []models.LocalImage{f})

			img, err := r.uploadOne(ctx, productID, f)
			metrics.ImageOperations.WithLabelValues(imageOpUpload, metrics.Result(err)).Inc()
			if err != nil {
				logctx.Warnw(ctx, "upload image failed", "product_id", productID, "filename", f.Filename, "error", err)
				failed[i] = &models.FailedImage{Filename: f.Filename, Err: err}
				return err
			}
			uploaded[i] = img
			return nil
		})
	}
	err := g.Wait()

	images := util.ConvertList(util.Filter(uploaded, notNil), util.Val[models.Image])
	if err != nil {
		return nil, &models.PartialUploadError{
			Op:        imageOpUpload,
			Total:     len(files),
			Failed:    collectFailed(failed),
			Succeeded: images,
		}
	}
	return images, nil
}

func (r *imageReconciler) uploadOne(ctx context.Context, productID int64, f models.LocalImage) (*models.Image, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read staged file: %w", err)
	}
	return r.catalog.UploadImage(ctx, productID, models.ImageInput{
		Attachment: base64.StdEncoding.EncodeToString(data),
		Filename:   f.Filename,
	})
}

// ReplaceAll drops every existing image of the listing and uploads files in
// their place. With no files the listing keeps its images. On a delete
// failure the returned PartialUploadError lists the images that were removed
// in Succeeded.
func (r *imageReconciler) ReplaceAll(ctx context.Context, listing *models.Listing, files []models.LocalImage) ([]models.Image, error) {
	if len(files) == 0 {
		return []models.Image{}, nil
	}
	if err := r.Remove(ctx, listing.ID, listing.Images); err != nil {
		r.stager.Release(ctx, files)
		return nil, err
	}
	return r.UploadAll(ctx, listing.ID, files)
}

// Remove deletes images concurrently.
func (r *imageReconciler) Remove(ctx context.Context, productID int64, images []models.Image) error {
	deleted := make([]bool, len(images))
	failed := make([]*models.FailedImage, len(images))

	var g errgroup.Group
	for i, img := range images {
		g.Go(func() error {
			err := r.catalog.DeleteImage(ctx, productID, img.ID)
			metrics.ImageOperations.WithLabelValues(imageOpDelete, metrics.Result(err)).Inc()
			if err != nil {
				logctx.Warnw(ctx, "delete image failed", "product_id", productID, "image_id", img.ID, "error", err)
				failed[i] = &models.FailedImage{ImageID: img.ID, Err: err}
				return err
			}
			deleted[i] = true
			return nil
		})
	}
	if err := g.Wait(); err == nil {
		return nil
	}

	removed := make([]models.Image, 0, len(images))
	for i, ok := range deleted {
		if ok {
			removed = append(removed, images[i])
		}
	}
	return &models.PartialUploadError{
		Op:        imageOpDelete,
		Total:     len(images),
		Failed:    collectFailed(failed),
		Succeeded: removed,
	}
}

// Restore re-attaches images by their source url, keeping positions.
func (r *imageReconciler) Restore(ctx context.Context, productID int64, images []models.Image) error {
	errs := make([]error, len(images))

	var g errgroup.Group
	for i, img := range images {
		g.Go(func() error {
			_, err := r.catalog.UploadImage(ctx, productID, models.ImageInput{
				Src:      img.Src,
				Position: img.Position,
			})
			metrics.ImageOperations.WithLabelValues("restore", metrics.Result(err)).Inc()
			if err != nil {
				errs[i] = fmt.Errorf("restore image %d: %w", img.ID, err)
			}
			return err
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func collectFailed(failed []*models.FailedImage) []models.FailedImage {
	return util.ConvertList(util.Filter(failed, notNil), util.Val[models.FailedImage])
}

func notNil[T any](v *T) bool { return v != nil }
