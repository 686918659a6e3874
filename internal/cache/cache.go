// Package cache stores short-lived CLI lookups such as account searches.
//
// Entries are JSON, scoped per resource, server and caller-provided key.
// The default backend writes files under the user cache directory; setting
// PRECOG_CACHE_REDIS_URL switches to Redis. Default TTL is 5 minutes.
// Disable with PRECOG_NO_CACHE=1.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultTTL = 5 * time.Minute

	EnvDisable  = "PRECOG_NO_CACHE"
	EnvRedisURL = "PRECOG_CACHE_REDIS_URL"

	dirName = "precog-cli"
)

// Store is a key/value cache of JSON-encodable values.
type Store interface {
	// Get loads the value for key into dst. It returns false on a miss,
	// an expired entry or any backend failure.
	Get(ctx context.Context, key string, dst any) bool
	// Put stores v under key. Failures are ignored.
	Put(ctx context.Context, key string, v any)
	// Delete removes a single key.
	Delete(ctx context.Context, key string)
	// Clear removes every entry owned by this store.
	Clear(ctx context.Context) error
}

type entry struct {
	CachedAt time.Time       `json:"cached_at"`
	Items    json.RawMessage `json:"items"`
}

func encodeEntry(v any, now time.Time) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(entry{CachedAt: now, Items: raw})
}

func decodeEntry(data []byte, ttl time.Duration, dst any) bool {
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return false
	}
	if ttl > 0 && time.Since(e.CachedAt) > ttl {
		return false
	}
	return json.Unmarshal(e.Items, dst) == nil
}

// Key builds a cache key from a resource name, the server base URL and a
// lookup value. Server and lookup are hashed so keys are filename-safe and
// do not leak emails onto disk.
func Key(resource, baseURL, lookup string) string {
	return sanitizeKey(resource) + "_" + shortHash(baseURL) + "_" + shortHash(lookup)
}

func shortHash(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:6])
}

// Open returns the store selected by the environment: Redis when
// PRECOG_CACHE_REDIS_URL is set, otherwise files under DefaultDir.
func Open() (Store, error) {
	if url := strings.TrimSpace(os.Getenv(EnvRedisURL)); url != "" {
		return NewRedisStoreFromURL(url, DefaultTTL)
	}
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	return NewFileStore(dir, DefaultTTL), nil
}

// DefaultDir returns the platform-appropriate cache directory.
// Returns "$XDG_CACHE_HOME/precog-cli" or equivalent.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, dirName), nil
}

// Disabled reports whether caching is turned off.
func Disabled() bool {
	return os.Getenv(EnvDisable) != ""
}

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return "cache"
	}
	key = strings.ReplaceAll(key, "/", "-")
	key = strings.ReplaceAll(key, "\\", "-")
	key = strings.ReplaceAll(key, "_", "-")
	return key
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// isKey reports whether s matches the "<resource>_<12hex>_<12hex>" scheme.
func isKey(s string) bool {
	parts := strings.Split(s, "_")
	if len(parts) != 3 || parts[0] == "" {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 12 || !isHex(p) {
			return false
		}
	}
	return true
}
