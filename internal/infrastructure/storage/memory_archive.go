package storage

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	appcatalog "github.com/clinicstock/backend/internal/application/catalog"
)

var _ appcatalog.ReportArchive = (*MemoryReportArchive)(nil)

// MemoryReportArchive keeps reports in process memory. Links point at BaseURL and are
// not signed; use it for development and tests.
type MemoryReportArchive struct {
	BaseURL string
	TTL     time.Duration

	mu      sync.RWMutex
	objects map[string]storedObject
}

type storedObject struct {
	data        []byte
	contentType string
}

// NewMemoryReportArchive creates an empty in-memory archive
func NewMemoryReportArchive() *MemoryReportArchive {
	return &MemoryReportArchive{
		BaseURL: "http://localhost/reports",
		TTL:     15 * time.Minute,
		objects: make(map[string]storedObject),
	}
}

// Store keeps a copy of data under key
func (m *MemoryReportArchive) Store(_ context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = storedObject{data: append([]byte(nil), data...), contentType: contentType}
	return nil
}

// DownloadURL returns BaseURL joined with key
func (m *MemoryReportArchive) DownloadURL(_ context.Context, key string) (string, time.Time, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", time.Time{}, errors.New("object not found")
	}
	link, err := url.JoinPath(m.BaseURL, key)
	if err != nil {
		return "", time.Time{}, err
	}
	return link, time.Now().Add(m.TTL), nil
}

// Get returns the stored object
func (m *MemoryReportArchive) Get(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj.data, obj.contentType, ok
}
