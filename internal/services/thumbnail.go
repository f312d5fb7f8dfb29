package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/drivehub/backend/internal/cache"
	"github.com/drivehub/backend/internal/config"
	"github.com/drivehub/backend/internal/drive"
)

// ErrThumbnailNotFound is the proxy's miss outcome. A miss is permanent
// until the next aggregation cycle repopulates the store; the proxy never
// falls back to the remote provider.
var ErrThumbnailNotFound = errors.New("thumbnail not found")

// ThumbnailService owns the thumbnail blob cache: the aggregator populates
// it through CacheIfAbsent and the proxy endpoint reads it through
// GetThumbnail. Nothing else touches the underlying keys.
type ThumbnailService struct {
	store cache.Store
	http  *http.Client
	ttl   time.Duration
}

func NewThumbnailService(store cache.Store, cfg config.DashboardConfig) *ThumbnailService {
	return &ThumbnailService{
		store: store,
		// One slow upstream image URL must not stall dashboard assembly.
		http: &http.Client{Timeout: cfg.FetchTimeout},
		ttl:  cfg.ThumbnailTTL,
	}
}

// ProxyURL is the local path serving a cached thumbnail.
func ProxyURL(userID, fileID string) string {
	return fmt.Sprintf("/api/thumbnail/%s/%s", userID, fileID)
}

// CacheIfAbsent fetches and stores the file's thumbnail unless a blob for
// it is already cached, then rewrites the file's preview reference to the
// local proxy. The rewrite happens on fresh stores and existing entries
// alike, so the client never sees a provider-signed URL for a cached file.
// Files without a preview reference are left untouched.
func (s *ThumbnailService) CacheIfAbsent(ctx context.Context, userID string, file *drive.File) error {
	if !file.HasThumbnail() {
		return nil
	}

	key := cache.ThumbKey(userID, file.ID)

	exists, err := s.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("failed checking thumbnail cache: %w", err)
	}

	if !exists {
		data, err := s.fetch(ctx, file.ThumbnailLink)
		if err != nil {
			return fmt.Errorf("failed fetching thumbnail: %w", err)
		}
		// Base64 keeps the blob intact through text-oriented backends.
		encoded := base64.StdEncoding.EncodeToString(data)
		if err := s.store.Put(ctx, key, encoded, s.ttl); err != nil {
			return fmt.Errorf("failed storing thumbnail: %w", err)
		}
	}

	file.ThumbnailLink = ProxyURL(userID, file.ID)
	return nil
}

// GetThumbnail returns the cached blob and its sniffed content type, or
// ErrThumbnailNotFound. It is a pure read: no remote fetch, no writes.
func (s *ThumbnailService) GetThumbnail(ctx context.Context, userID, fileID string) ([]byte, string, error) {
	encoded, err := s.store.Get(ctx, cache.ThumbKey(userID, fileID))
	if errors.Is(err, cache.ErrMiss) {
		return nil, "", ErrThumbnailNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed reading thumbnail cache: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", fmt.Errorf("failed decoding cached thumbnail: %w", err)
	}

	return data, SniffImageType(data), nil
}

func (s *ThumbnailService) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("thumbnail upstream returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// SniffImageType recovers an image encoding from its magic bytes. The store
// only holds bytes, so the original content type has to be reconstructed on
// the way out. Unrecognized data defaults to JPEG.
func SniffImageType(data []byte) string {
	if len(data) >= 2 {
		switch {
		case data[0] == 0xFF && data[1] == 0xD8:
			return "image/jpeg"
		case data[0] == 0x89 && data[1] == 0x50:
			return "image/png"
		case data[0] == 0x47 && data[1] == 0x49:
			return "image/gif"
		}
	}
	return "image/jpeg"
}
