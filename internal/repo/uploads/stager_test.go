package uploads

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/nguyentranbao-ct/listing-proxy/internal/config"
	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

type part struct {
	name    string
	content []byte
}

func fileHeaders(t *testing.T, parts ...part) []*multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, p := range parts {
		fw, err := w.CreateFormFile("images", p.name)
		require.NoError(t, err)
		_, err = fw.Write(p.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["images"]
}

func newTestStager(t *testing.T) (Stager, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewStager(&config.Config{Upload: config.UploadConfig{Dir: dir, MaxFiles: 2, MaxFileSize: 1024}})
	require.NoError(t, err)
	return s, dir
}

func TestStage(t *testing.T) {
	ctx := context.Background()

	t.Run("stages images and releases them", func(t *testing.T) {
		s, dir := newTestStager(t)
		images, err := s.Stage(ctx, fileHeaders(t, part{"a.png", pngBytes}, part{"b.png", pngBytes}))
		require.NoError(t, err)
		require.Len(t, images, 2)
		for _, img := range images {
			assert.Equal(t, dir, filepath.Dir(img.Path))
			assert.Equal(t, ".png", filepath.Ext(img.Path))
			data, err := os.ReadFile(img.Path)
			require.NoError(t, err)
			assert.Equal(t, pngBytes, data)
		}
		assert.Equal(t, "a.png", images[0].Filename)

		s.Release(ctx, images)
		for _, img := range images {
			_, err := os.Stat(img.Path)
			assert.True(t, os.IsNotExist(err))
		}
		assert.NotPanics(t, func() { s.Release(ctx, images) })
	})

	t.Run("too many files", func(t *testing.T) {
		s, _ := newTestStager(t)
		_, err := s.Stage(ctx, fileHeaders(t, part{"a.png", pngBytes}, part{"b.png", pngBytes}, part{"c.png", pngBytes}))
		var verr *models.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("not an image cleans up staged files", func(t *testing.T) {
		s, dir := newTestStager(t)
		_, err := s.Stage(ctx, fileHeaders(t, part{"a.png", pngBytes}, part{"notes.txt", []byte("plain text")}))
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Message, "notes.txt")

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("file too large", func(t *testing.T) {
		s, _ := newTestStager(t)
		big := append(append([]byte{}, pngBytes...), make([]byte, 2048)...)
		_, err := s.Stage(ctx, fileHeaders(t, part{"big.png", big}))
		var verr *models.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("no files", func(t *testing.T) {
		s, _ := newTestStager(t)
		images, err := s.Stage(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, images)
	})
}
