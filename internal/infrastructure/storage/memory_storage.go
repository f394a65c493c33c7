package storage

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/storeops/backend/internal/application/inventory"
)

var _ inventory.ExportStorage = (*MemoryExportStorage)(nil)

// MemoryExportStorage keeps exports in process memory. Links point at
// BaseURL and are not served by anything; it exists for local runs and tests.
type MemoryExportStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]StoredObject
}

// StoredObject is one uploaded export
type StoredObject struct {
	Data        []byte
	ContentType string
}

// NewMemoryExportStorage creates an empty store
func NewMemoryExportStorage(baseURL string) *MemoryExportStorage {
	if baseURL == "" {
		baseURL = "http://localhost/exports"
	}
	return &MemoryExportStorage{BaseURL: baseURL, objects: make(map[string]StoredObject)}
}

// Upload stores a copy of data
func (s *MemoryExportStorage) Upload(_ context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errEmptyKey
	}
	obj := StoredObject{Data: append([]byte(nil), data...), ContentType: contentType}
	s.mu.Lock()
	s.objects[storageKey] = obj
	s.mu.Unlock()
	return nil
}

// GenerateDownloadURL returns an unsigned link carrying the expiry time
func (s *MemoryExportStorage) GenerateDownloadURL(_ context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errEmptyKey
	}
	expiresAt := time.Now().Add(expiresIn)
	link := s.BaseURL + "/" + storageKey + "?expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339))
	return link, expiresAt, nil
}

// Object returns what was uploaded under storageKey
func (s *MemoryExportStorage) Object(storageKey string) (StoredObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[storageKey]
	return obj, ok
}
