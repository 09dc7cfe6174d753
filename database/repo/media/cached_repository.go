package media

import (
	"context"
	"fmt"
	"time"

	"github.com/anoixa/media-library/cache"
	"github.com/anoixa/media-library/database/models"
)

// DefaultCacheTTL 默认缓存过期时间
const DefaultCacheTTL = 5 * time.Minute

// cacheKey 构建缓存键
func cacheKey(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}

// CachedRepository 带缓存的媒体仓库装饰器
// 只缓存按 ID 的读取，写入后立即失效
type CachedRepository struct {
	repo  Repository
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedRepository 创建带缓存的媒体仓库
func NewCachedRepository(repo Repository, c cache.Cache, ttl time.Duration) *CachedRepository {
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedRepository{
		repo:  repo,
		cache: c,
		ttl:   ttl,
	}
}

// Find 通过 ID 获取媒体，优先读缓存
func (c *CachedRepository) Find(ctx context.Context, id uint) (*models.Media, error) {
	key := cacheKey("media:id:%d", id)

	// 缓存未命中或故障都回落到数据库
	var cached models.Media
	if err := c.cache.Get(key, &cached); err == nil {
		return &cached, nil
	}

	m, err := c.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Set(key, m, c.ttl)
	return m, nil
}

// FindHeadBySlug 透传
func (c *CachedRepository) FindHeadBySlug(ctx context.Context, parentID *uint, slug string) (*models.Media, error) {
	return c.repo.FindHeadBySlug(ctx, parentID, slug)
}

// FindByFilename 透传
func (c *CachedRepository) FindByFilename(ctx context.Context, filename string) (*models.Media, error) {
	return c.repo.FindByFilename(ctx, filename)
}

// All 透传
func (c *CachedRepository) All(ctx context.Context, scopes ...Scope) ([]*models.Media, error) {
	return c.repo.All(ctx, scopes...)
}

// Versions 透传
func (c *CachedRepository) Versions(ctx context.Context, headID uint) ([]*models.Media, error) {
	return c.repo.Versions(ctx, headID)
}

// Persist 保存媒体记录并清除缓存
func (c *CachedRepository) Persist(ctx context.Context, media *models.Media, createNewVersion bool) error {
	if err := c.repo.Persist(ctx, media, createNewVersion); err != nil {
		return err
	}
	c.invalidate(media.ID)
	return nil
}

// SlugExists 透传
func (c *CachedRepository) SlugExists(ctx context.Context, parentID *uint, slug string, excludeID uint) (bool, error) {
	return c.repo.SlugExists(ctx, parentID, slug, excludeID)
}

// Delete 软删除并清除缓存
func (c *CachedRepository) Delete(ctx context.Context, media *models.Media) error {
	if err := c.repo.Delete(ctx, media); err != nil {
		return err
	}
	c.invalidate(media.ID)
	return nil
}

// Restore 恢复并清除缓存
func (c *CachedRepository) Restore(ctx context.Context, id uint) (*models.Media, error) {
	m, err := c.repo.Restore(ctx, id)
	if err != nil {
		return nil, err
	}
	c.invalidate(id)
	return m, nil
}

// HardDelete 物理删除并清除缓存
func (c *CachedRepository) HardDelete(ctx context.Context, media *models.Media) error {
	if err := c.repo.HardDelete(ctx, media); err != nil {
		return err
	}
	c.invalidate(media.ID)
	return nil
}

// CountByFilename 透传
func (c *CachedRepository) CountByFilename(ctx context.Context, filename string, excludeID uint) (int64, error) {
	return c.repo.CountByFilename(ctx, filename, excludeID)
}

// LiveFilenames 透传
func (c *CachedRepository) LiveFilenames(ctx context.Context) (map[string]struct{}, error) {
	return c.repo.LiveFilenames(ctx)
}

func (c *CachedRepository) invalidate(id uint) {
	_ = c.cache.Delete(cacheKey("media:id:%d", id))
}
