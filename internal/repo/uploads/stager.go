package uploads

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nguyentranbao-ct/listing-proxy/internal/config"
	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
	"github.com/nguyentranbao-ct/listing-proxy/pkg/logger/logctx"
)

// Stager copies multipart image parts to temporary files so the listing
// usecase only deals with readable paths that it deletes after use.
type Stager interface {
	Stage(ctx context.Context, files []*multipart.FileHeader) ([]models.LocalImage, error)
	Release(ctx context.Context, images []models.LocalImage)
}

type stager struct {
	dir         string
	maxFiles    int
	maxFileSize int64
}

func NewStager(cfg *config.Config) (Stager, error) {
	dir := cfg.Upload.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &stager{
		dir:         dir,
		maxFiles:    cfg.Upload.MaxFiles,
		maxFileSize: cfg.Upload.MaxFileSize,
	}, nil
}

func (s *stager) Stage(ctx context.Context, files []*multipart.FileHeader) ([]models.LocalImage, error) {
	if s.maxFiles > 0 && len(files) > s.maxFiles {
		return nil, models.NewValidationError("A maximum of %d images is allowed.", s.maxFiles)
	}

	staged := make([]models.LocalImage, 0, len(files))
	for _, fh := range files {
		img, err := s.stageOne(fh)
		if err != nil {
			s.Release(ctx, staged)
			return nil, err
		}
		staged = append(staged, img)
	}
	return staged, nil
}

func (s *stager) stageOne(fh *multipart.FileHeader) (models.LocalImage, error) {
	if s.maxFileSize > 0 && fh.Size > s.maxFileSize {
		return models.LocalImage{}, models.NewValidationError("Image %s exceeds %d bytes.", fh.Filename, s.maxFileSize)
	}

	src, err := fh.Open()
	if err != nil {
		return models.LocalImage{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return models.LocalImage{}, fmt.Errorf("detect type of %s: %w", fh.Filename, err)
	}
	if !strings.HasPrefix(mtype.String(), "image/") {
		return models.LocalImage{}, models.NewValidationError("File %s is not an image (%s).", fh.Filename, mtype.String())
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return models.LocalImage{}, fmt.Errorf("rewind upload %s: %w", fh.Filename, err)
	}

	dst, err := os.CreateTemp(s.dir, "upload-*"+mtype.Extension())
	if err != nil {
		return models.LocalImage{}, fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return models.LocalImage{}, fmt.Errorf("copy upload %s: %w", fh.Filename, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return models.LocalImage{}, fmt.Errorf("close temp file: %w", err)
	}

	return models.LocalImage{
		Path:     dst.Name(),
		Filename: filepath.Base(fh.Filename),
	}, nil
}

// Release removes staged files; missing files are ignored.
func (s *stager) Release(ctx context.Context, images []models.LocalImage) {
	for _, img := range images {
		if err := os.Remove(img.Path); err != nil && !os.IsNotExist(err) {
			logctx.Warnw(ctx, "failed to remove staged upload", "path", img.Path, "error", err)
		}
	}
}
