package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_shop/internal/config"
)

func TestImageKey(t *testing.T) {
	key := ImageKey("Photo.JPG")

	assert.True(t, strings.HasPrefix(key, "uploads/products/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.NotEqual(t, key, ImageKey("Photo.JPG"))
}

func TestImageStore_URL(t *testing.T) {
	store, err := NewImageStore(context.Background(), &config.StorageConfig{Region: "ap-southeast-3", Bucket: "media"})
	require.NoError(t, err)

	assert.Equal(t, "https://media.s3.ap-southeast-3.amazonaws.com/uploads/products/a.png", store.URL("uploads/products/a.png"))
	assert.Empty(t, store.URL(""))
}

func TestImageStore_UploadWithoutCredentials(t *testing.T) {
	store, err := NewImageStore(context.Background(), &config.StorageConfig{Region: "ap-southeast-3", Bucket: "media"})
	require.NoError(t, err)

	key, err := store.Upload(context.Background(), "a.png", "image/png", strings.NewReader("png"))
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Empty(t, key)
}

func TestImageStore_UploadWithoutCredentialsInDevelopment(t *testing.T) {
	store, err := NewImageStore(context.Background(), &config.StorageConfig{
		Region:            "ap-southeast-3",
		Bucket:            "media",
		AllowUnconfigured: true,
	})
	require.NoError(t, err)

	key, err := store.Upload(context.Background(), "a.png", "image/png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "uploads/products/"))
}

func TestImageStore_UploadToEndpoint(t *testing.T) {
	var (
		mu     sync.Mutex
		method string
		path   string
		body   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		method, path = r.Method, r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store, err := NewImageStore(context.Background(), &config.StorageConfig{
		Region:          "us-east-1",
		Bucket:          "media",
		Endpoint:        srv.URL,
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)

	key, err := store.Upload(context.Background(), "photo.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/media/"+key, path)
	assert.Contains(t, body, "png-bytes")
	assert.Equal(t, srv.URL+"/media/"+key, store.URL(key))
}
