// Package cache 提供元数据缓存
// 仓库层用它保证读写一致：持久化后失效，下一次读穿透到数据库
package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/anoixa/media-library/config"
)

// Cache 缓存接口
type Cache interface {
	// Set 设置缓存项
	Set(key string, value interface{}, expiration time.Duration) error

	// Get 获取缓存项
	Get(key string, dest interface{}) error

	// Delete 删除缓存项
	Delete(key string) error

	// Close 关闭缓存连接
	Close() error
}

// ErrCacheMiss 缓存未命中错误
var ErrCacheMiss = &cacheMissError{}

type cacheMissError struct{}

func (e *cacheMissError) Error() string {
	return "cache miss"
}

// IsCacheMiss 判断是否为缓存未命中错误
func IsCacheMiss(err error) bool {
	var miss *cacheMissError
	return errors.As(err, &miss)
}

// New 根据配置创建缓存提供者
func New(cfg *config.Config) (Cache, error) {
	switch cfg.CacheType {
	case "", "memory", "ristretto":
		return NewRistretto(RistrettoConfig{
			NumCounters: 100000,
			MaxCost:     64 << 20, // 64MB
			BufferItems: 64,
		})
	case "redis":
		return NewRedis(cfg.CacheRedisAddr, cfg.CacheRedisPassword, cfg.CacheRedisDB)
	case "none":
		return nopCache{}, nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.CacheType)
	}
}

// nopCache 关闭缓存时的空实现
type nopCache struct{}

func (nopCache) Set(string, interface{}, time.Duration) error { return nil }
func (nopCache) Get(string, interface{}) error                { return ErrCacheMiss }
func (nopCache) Delete(string) error                          { return nil }
func (nopCache) Close() error                                 { return nil }
