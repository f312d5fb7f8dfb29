package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned by Get when a key is absent or expired. Callers treat
// a miss identically in both cases; expiry is never observable as an error.
var ErrMiss = errors.New("cache: miss")

// Store is a TTL'd key-value store holding text values. Binary payloads are
// base64-encoded by callers before Put so that text-oriented backends cannot
// corrupt them. A key either holds one immutable value until expiry or is
// absent; there is no update-in-place.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ViewKey addresses a user's precomputed dashboard view.
func ViewKey(userID string) string {
	return fmt.Sprintf("dashboard_view:%s", userID)
}

// ThumbKey addresses one cached thumbnail blob. File IDs are unique per
// Drive account and the key is namespaced per user, so collisions across
// tenants are impossible.
func ThumbKey(userID, fileID string) string {
	return fmt.Sprintf("thumb:%s:%s", userID, fileID)
}
