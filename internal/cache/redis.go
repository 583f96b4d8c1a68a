package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ProductsPrefix    = "products:"
	OrdersPrefix      = "orders:"
	SubmissionsPrefix = "submissions:"
	StatsPrefix       = "stats:"
	revokedPrefix     = "auth:revoked:"
)

// tablePatterns lists the cache namespaces a row change in each table stales.
var tablePatterns = map[string][]string{
	"products":         {ProductsPrefix + "*", StatsPrefix + "*"},
	"orders":           {OrdersPrefix + "*", StatsPrefix + "*"},
	"item_submissions": {SubmissionsPrefix + "*", StatsPrefix + "*"},
	"admin_users":      {StatsPrefix + "*"},
}

var client *redis.Client

// Init connects to Redis. On failure the client stays nil and every
// function in this package degrades to a no-op.
func Init(host, port, password string) error {
	if host == "" {
		host = "redis"
	}
	if port == "" {
		port = "6379"
	}

	c := redis.NewClient(&redis.Options{
		Addr:     host + ":" + port,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		client = nil
		return err
	}
	client = c
	return nil
}

// SetClient installs an existing client (nil disables caching).
func SetClient(c *redis.Client) {
	client = c
}

// GetClient returns the Redis client
func GetClient() *redis.Client {
	return client
}

func Close() error {
	if client == nil {
		return nil
	}
	err := client.Close()
	client = nil
	return err
}

// ============================================
// Generic Cache Functions
// ============================================

// GetCached returns cached data for a key
func GetCached(ctx context.Context, key string) ([]byte, bool) {
	if client == nil {
		return nil, false
	}
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores data with a TTL
func SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, data, ttl)
}

// Key builds a deterministic cache key from a namespace prefix and query
// parameters; empty values are ignored.
func Key(prefix string, params map[string]string) string {
	if len(params) == 0 {
		return prefix + "all"
	}
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return prefix + "all"
	}
	sort.Strings(keys)

	q := url.Values{}
	for _, k := range keys {
		q.Set(k, params[k])
	}
	h := sha256.Sum256([]byte(q.Encode()))
	return prefix + hex.EncodeToString(h[:])[:24]
}

// ============================================
// Cache Invalidation Functions
// ============================================

// InvalidatePattern removes all keys matching a glob pattern
func InvalidatePattern(ctx context.Context, pattern string) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, pattern, 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

// InvalidateKeys removes specific cache keys
func InvalidateKeys(ctx context.Context, keys ...string) {
	if client == nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}

// PatternsForTable reports the namespaces invalidated by a change to table.
func PatternsForTable(table string) []string {
	return tablePatterns[strings.ToLower(table)]
}

// InvalidateTable clears every cached query that reads from table.
// Called on local writes and on realtime change events.
func InvalidateTable(ctx context.Context, table string) {
	for _, p := range PatternsForTable(table) {
		InvalidatePattern(ctx, p)
	}
}

// ============================================
// Session Revocation
// ============================================

// RevokeToken denylists a session id until ttl elapses.
func RevokeToken(ctx context.Context, sessionID string, ttl time.Duration) {
	if client == nil || ttl <= 0 {
		return
	}
	client.Set(ctx, revokedPrefix+sessionID, "1", ttl)
}

// IsTokenRevoked reports a denylisted session. The second value is false
// when the cache could not answer and the caller must consult the database.
func IsTokenRevoked(ctx context.Context, sessionID string) (revoked bool, known bool) {
	if client == nil {
		return false, false
	}
	n, err := client.Exists(ctx, revokedPrefix+sessionID).Result()
	if err != nil {
		return false, false
	}
	return n > 0, n > 0
}

// IsHealthy returns true if Redis connection is working
func IsHealthy() bool {
	if client == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}

// Enabled reports whether a Redis client is configured.
func Enabled() bool {
	return client != nil
}
