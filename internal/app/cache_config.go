package app

import (
	"strings"

	"github.com/charlesng35/stackapp/internal/cache"
	"github.com/charlesng35/stackapp/internal/services"
)

const (
	CacheDriverRedis    = "redis"
	CacheDriverDatabase = "database"
	CacheDriverNone     = "none"
)

// NormalizedDriver returns the cache driver in canonical form; unknown or empty values disable
// caching.
func (c CacheConfig) NormalizedDriver() string {
	switch driver := strings.ToLower(strings.TrimSpace(c.Driver)); driver {
	case CacheDriverRedis, CacheDriverDatabase:
		return driver
	default:
		return CacheDriverNone
	}
}

// RedisClientConfig converts the application cache configuration into the cache package representation.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		URL:       strings.TrimSpace(c.Redis.URL),
		Address:   strings.TrimSpace(c.Redis.Address),
		Username:  strings.TrimSpace(c.Redis.Username),
		Password:  c.Redis.Password,
		DB:        c.Redis.DB,
		TLS:       c.Redis.TLS,
		Timeout:   c.Redis.Timeout,
		KeyPrefix: strings.TrimSpace(c.Redis.KeyPrefix),
	}
}

// ItemServiceConfig carries the listing TTL into the item service.
func (c CacheConfig) ItemServiceConfig() services.ItemServiceConfig {
	ttl := c.ItemsTTL
	if ttl <= 0 {
		ttl = services.DefaultRecentItemsTTL
	}
	return services.ItemServiceConfig{ListTTL: ttl}
}

