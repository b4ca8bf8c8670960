package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
)

// Cache interface defines caching operations
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, key string) (bool, error)
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Close() error
}

// RedisCache implements Cache interface using Redis
type RedisCache struct {
	client *redis.Client
}

// MemoryCache implements Cache interface using in-memory storage (fallback)
type MemoryCache struct {
	data map[string]cacheItem
	mu   sync.RWMutex
}

type cacheItem struct {
	value     string
	expiresAt time.Time
}

// CacheManager routes cache operations to Redis when configured, with an
// in-memory fallback that is always available.
type CacheManager struct {
	primary   Cache
	fallback  Cache
	keyPrefix string
}

// NewCacheManager creates a new cache manager
func NewCacheManager(cfg *viper.Viper) *CacheManager {
	manager := &CacheManager{
		keyPrefix: "gemvault:",
	}

	if cfg.GetString("cache.type") == "redis" {
		redisCache, err := NewRedisCache(cfg)
		if err == nil {
			manager.primary = redisCache
		}
	}

	// Always have memory cache as fallback
	manager.fallback = NewMemoryCache()

	return manager
}

// NewRedisCache creates a new Redis cache instance
func NewRedisCache(cfg *viper.Viper) (*RedisCache, error) {
	addr := fmt.Sprintf("%s:%d", cfg.GetString("cache.redis.host"), cfg.GetInt("cache.redis.port"))

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.GetString("cache.redis.password"),
		DB:           cfg.GetInt("cache.redis.db"),
		DialTimeout:  time.Second * 5,
		ReadTimeout:  time.Second * 3,
		WriteTimeout: time.Second * 3,
		PoolSize:     10,
		PoolTimeout:  time.Second * 4,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// NewMemoryCache creates a new in-memory cache instance
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]cacheItem),
	}
}

// CacheManager methods

func (cm *CacheManager) key(key string) string {
	return cm.keyPrefix + key
}

func (cm *CacheManager) Get(ctx context.Context, key string) (string, error) {
	fullKey := cm.key(key)

	if cm.primary != nil {
		value, err := cm.primary.Get(ctx, fullKey)
		if err == nil {
			return value, nil
		}
	}

	return cm.fallback.Get(ctx, fullKey)
}

func (cm *CacheManager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	fullKey := cm.key(key)

	if cm.primary != nil {
		if err := cm.primary.Set(ctx, fullKey, value, ttl); err == nil {
			return nil
		}
	}

	return cm.fallback.Set(ctx, fullKey, value, ttl)
}

func (cm *CacheManager) Delete(ctx context.Context, key string) error {
	fullKey := cm.key(key)

	if cm.primary != nil {
		cm.primary.Delete(ctx, fullKey)
	}
	cm.fallback.Delete(ctx, fullKey)

	return nil
}

func (cm *CacheManager) DeletePattern(ctx context.Context, pattern string) error {
	fullPattern := cm.key(pattern)

	if cm.primary != nil {
		cm.primary.DeletePattern(ctx, fullPattern)
	}
	cm.fallback.DeletePattern(ctx, fullPattern)

	return nil
}

func (cm *CacheManager) GetJSON(ctx context.Context, key string, dest interface{}) error {
	value, err := cm.Get(ctx, key)
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(value), dest)
}

func (cm *CacheManager) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return cm.Set(ctx, key, string(data), ttl)
}

func (cm *CacheManager) Close() error {
	if cm.primary != nil {
		cm.primary.Close()
	}
	if cm.fallback != nil {
		cm.fallback.Close()
	}
	return nil
}

// RedisCache methods

func (rc *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return rc.client.Get(ctx, key).Result()
}

func (rc *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return rc.client.Set(ctx, key, value, ttl).Err()
}

func (rc *RedisCache) Delete(ctx context.Context, key string) error {
	return rc.client.Del(ctx, key).Err()
}

func (rc *RedisCache) DeletePattern(ctx context.Context, pattern string) error {
	keys, err := rc.client.Keys(ctx, pattern).Result()
	if err != nil {
		return err
	}

	if len(keys) > 0 {
		return rc.client.Del(ctx, keys...).Err()
	}

	return nil
}

func (rc *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	count, err := rc.client.Exists(ctx, key).Result()
	return count > 0, err
}

func (rc *RedisCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := rc.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (rc *RedisCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rc.Set(ctx, key, string(data), ttl)
}

func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// MemoryCache methods

func (mc *MemoryCache) cleanExpired() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	now := time.Now()
	for key, item := range mc.data {
		if now.After(item.expiresAt) {
			delete(mc.data, key)
		}
	}
}

func (mc *MemoryCache) Get(ctx context.Context, key string) (string, error) {
	mc.cleanExpired()

	mc.mu.RLock()
	defer mc.mu.RUnlock()

	item, exists := mc.data[key]
	if !exists {
		return "", fmt.Errorf("key not found")
	}

	if time.Now().After(item.expiresAt) {
		return "", fmt.Errorf("key expired")
	}

	return item.value, nil
}

func (mc *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	mc.cleanExpired()

	var strValue string
	switch v := value.(type) {
	case string:
		strValue = v
	case []byte:
		strValue = string(v)
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return err
		}
		strValue = string(data)
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.data[key] = cacheItem{
		value:     strValue,
		expiresAt: time.Now().Add(ttl),
	}

	return nil
}

func (mc *MemoryCache) Delete(ctx context.Context, key string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	delete(mc.data, key)
	return nil
}

func (mc *MemoryCache) DeletePattern(ctx context.Context, pattern string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for key := range mc.data {
		if matchPattern(pattern, key) {
			delete(mc.data, key)
		}
	}
	return nil
}

func (mc *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	mc.cleanExpired()

	mc.mu.RLock()
	defer mc.mu.RUnlock()

	_, exists := mc.data[key]
	return exists, nil
}

func (mc *MemoryCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := mc.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (mc *MemoryCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return mc.Set(ctx, key, string(data), ttl)
}

func (mc *MemoryCache) Close() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.data = make(map[string]cacheItem)
	return nil
}

// Helper functions

func matchPattern(pattern, str string) bool {
	if pattern == "*" {
		return true
	}

	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(str, strings.TrimSuffix(pattern, "*"))
	}

	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(str, strings.TrimPrefix(pattern, "*"))
	}

	return pattern == str
}

// Cache TTL constants
const (
	TTLShort  = 5 * time.Minute
	TTLMedium = 30 * time.Minute
	TTLLong   = 2 * time.Hour
)

// DashboardKey returns the cache key for a tenant's dashboard summary
func DashboardKey(clientCode string) string {
	return fmt.Sprintf("dashboard:%s", clientCode)
}

// TenantPattern matches every cached entry belonging to a tenant
func TenantPattern(clientCode string) string {
	return fmt.Sprintf("*:%s", clientCode)
}
