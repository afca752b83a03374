package detection

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/corona10/goimagehash"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tomsarry/tubescope/models"
)

const (
	cacheKeyPrefix  = "det:"
	cacheMaxEntries = 256
)

// Cache remembers detections for images already seen, keyed by the exact
// pixel content so a re-upload of the same picture skips inference.
// L1 is in-memory. L2 is Redis when a URL is configured and reachable.
type Cache struct {
	mu  sync.Mutex
	l1  map[string]cacheEntry
	rdb *redis.Client // nil if Redis unavailable
	ttl time.Duration
	now func() time.Time
}

type cacheEntry struct {
	detections []models.Detection
	expiresAt  time.Time
}

// NewCache sets up the cache. A ttl <= 0 returns nil, which disables
// caching. redisURL can be empty to disable L2.
func NewCache(redisURL string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		return nil
	}
	c := &Cache{l1: make(map[string]cacheEntry), ttl: ttl, now: time.Now}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Warn().Err(err).Msg("detection cache: invalid redis URL, L2 disabled")
		} else {
			rdb := redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			if err := rdb.Ping(ctx).Err(); err != nil {
				log.Warn().Err(err).Msg("detection cache: redis unreachable, L2 disabled")
				_ = rdb.Close()
			} else {
				c.rdb = rdb
				log.Info().Str("addr", opts.Addr).Msg("detection cache: L2 redis connected")
			}
		}
	}

	log.Info().Dur("ttl", ttl).Bool("redis", c.rdb != nil).Msg("detection cache initialized")
	return c
}

// Key returns the cache key for an upright image. The sha256 of the pixels
// decides identity; the difference hash in front only groups near-duplicates
// under a common prefix when browsing L2. ok is false when the image can't
// be hashed.
func (c *Cache) Key(img image.Image) (string, bool) {
	if c == nil {
		return "", false
	}
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return "", false
	}
	b := img.Bounds()
	return fmt.Sprintf("%s%s:%s:%dx%d", cacheKeyPrefix, hash.ToString(), pixelDigest(img), b.Dx(), b.Dy()), true
}

func pixelDigest(img image.Image) string {
	rgba := toRGBA(img)
	h := sha256.New()
	row := 4 * rgba.Rect.Dx()
	for y := 0; y < rgba.Rect.Dy(); y++ {
		off := y * rgba.Stride
		h.Write(rgba.Pix[off : off+row])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get tries L1, then L2. An L2 hit populates L1.
func (c *Cache) Get(ctx context.Context, key string) ([]models.Detection, bool) {
	if c == nil || key == "" {
		return nil, false
	}

	c.mu.Lock()
	entry, ok := c.l1[key]
	if ok && c.now().After(entry.expiresAt) {
		delete(c.l1, key)
		ok = false
	}
	c.mu.Unlock()
	if ok {
		log.Debug().Str("key", key).Msg("detection cache: L1 hit")
		return entry.detections, true
	}

	if c.rdb == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Err(err).Msg("detection cache: L2 get failed")
		}
		return nil, false
	}
	var detections []models.Detection
	if err := json.Unmarshal(data, &detections); err != nil {
		return nil, false
	}
	log.Debug().Str("key", key).Msg("detection cache: L2 hit")
	c.storeL1(key, detections)
	return detections, true
}

// Set stores detections in both tiers.
func (c *Cache) Set(ctx context.Context, key string, detections []models.Detection) {
	if c == nil || key == "" {
		return
	}
	c.storeL1(key, detections)

	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(detections)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Debug().Err(err).Msg("detection cache: L2 set failed")
	}
}

func (c *Cache) storeL1(key string, detections []models.Detection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if len(c.l1) >= cacheMaxEntries {
		c.evictLocked(now)
	}
	c.l1[key] = cacheEntry{detections: detections, expiresAt: now.Add(c.ttl)}
}

// evictLocked drops expired entries, then the oldest one if still full.
func (c *Cache) evictLocked(now time.Time) {
	for k, e := range c.l1 {
		if now.After(e.expiresAt) {
			delete(c.l1, k)
		}
	}
	if len(c.l1) < cacheMaxEntries {
		return
	}
	var oldestKey string
	var oldestAt time.Time
	for k, e := range c.l1 {
		if oldestKey == "" || e.expiresAt.Before(oldestAt) {
			oldestKey, oldestAt = k, e.expiresAt
		}
	}
	delete(c.l1, oldestKey)
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
