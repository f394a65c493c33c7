package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/storeops/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func validConfig(endpoint string) *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:       "exports",
		AccessKey:    "key",
		SecretKey:    "secret",
		Endpoint:     endpoint,
		UsePathStyle: true,
	}
}

func TestNewS3ExportStorage_Validation(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3ExportStorage(nil)
		assert.ErrorContains(t, err, "configuration is required")
	})

	t.Run("missing bucket", func(t *testing.T) {
		cfg := validConfig("")
		cfg.Bucket = ""
		_, err := NewS3ExportStorage(cfg)
		assert.ErrorContains(t, err, "bucket is required")
	})

	t.Run("missing access key", func(t *testing.T) {
		cfg := validConfig("")
		cfg.AccessKey = ""
		_, err := NewS3ExportStorage(cfg)
		assert.ErrorContains(t, err, "access key is required")
	})

	t.Run("missing secret key", func(t *testing.T) {
		cfg := validConfig("")
		cfg.SecretKey = ""
		_, err := NewS3ExportStorage(cfg)
		assert.ErrorContains(t, err, "secret key is required")
	})

	t.Run("defaults", func(t *testing.T) {
		s, err := NewS3ExportStorage(validConfig(""), WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, "exports", s.Bucket())
		assert.Equal(t, 15*time.Minute, s.presignExpiration)
	})

	t.Run("presign option", func(t *testing.T) {
		s, err := NewS3ExportStorage(validConfig(""), WithPresignExpiration(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, time.Hour, s.presignExpiration)
	})
}

func TestNormalizeEndpoint(t *testing.T) {
	cases := []struct {
		in     string
		ssl    bool
		expect string
	}{
		{"", false, "http://localhost:9000"},
		{"minio:9000", false, "http://minio:9000"},
		{"s3.example.com", true, "https://s3.example.com"},
		{"https://s3.example.com", false, "https://s3.example.com"},
	}
	for _, tc := range cases {
		got, err := normalizeEndpoint(tc.in, tc.ssl)
		require.NoError(t, err)
		assert.Equal(t, tc.expect, got, tc.in)
	}
}

func TestS3ExportStorage_GenerateDownloadURL(t *testing.T) {
	s, err := NewS3ExportStorage(validConfig("http://localhost:9000"))
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = s.GenerateDownloadURL(ctx, "", time.Minute)
	assert.ErrorIs(t, err, errEmptyKey)

	before := time.Now()
	link, expiresAt, err := s.GenerateDownloadURL(ctx, "exports/ledger/a.xlsx", 0)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "http://localhost:9000/exports/exports/ledger/a.xlsx?"))
	assert.Contains(t, link, "X-Amz-Signature=")
	assert.Contains(t, link, "X-Amz-Expires=900")
	assert.WithinDuration(t, before.Add(15*time.Minute), expiresAt, 5*time.Second)
}

// fakeS3 accepts path-style PUTs and records the stored objects
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.objects[r.URL.Path] = body
	f.types[r.URL.Path] = r.Header.Get("Content-Type")
	f.mu.Unlock()
	w.Header().Set("ETag", `"etag"`)
	w.WriteHeader(http.StatusOK)
}

func TestS3ExportStorage_Upload(t *testing.T) {
	backend := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(backend)
	defer srv.Close()

	s, err := NewS3ExportStorage(validConfig(srv.URL))
	require.NoError(t, err)

	assert.ErrorIs(t, s.Upload(context.Background(), "", nil, "text/plain"), errEmptyKey)

	require.NoError(t, s.Upload(context.Background(), "exports/ledger/b.xlsx", []byte("workbook"), "application/test"))
	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Contains(t, string(backend.objects["/exports/exports/ledger/b.xlsx"]), "workbook")
	assert.Equal(t, "application/test", backend.types["/exports/exports/ledger/b.xlsx"])
}

func TestS3ExportStorage_UploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s, err := NewS3ExportStorage(validConfig(srv.URL))
	require.NoError(t, err)
	err = s.Upload(context.Background(), "k", []byte("x"), "text/plain")
	assert.ErrorContains(t, err, "failed to upload object")
}
