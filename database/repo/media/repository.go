package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anoixa/media-library/database/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("media not found")
	// ErrAmbiguousResult 同一路径匹配到多条记录
	ErrAmbiguousResult = errors.New("ambiguous result: multiple media share this path")
)

// Scope 查询过滤条件
type Scope func(*gorm.DB) *gorm.DB

// ExcludeVersions 只保留当前版本（历史版本 head_version_id 非空）
func ExcludeVersions(db *gorm.DB) *gorm.DB {
	return db.Where("head_version_id IS NULL")
}

// OfType 按媒体类型过滤
func OfType(t models.MediaType) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("type = ?", t)
	}
}

// InDirectory 按父目录过滤，nil 表示根目录
func InDirectory(parentID *uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if parentID == nil {
			return db.Where("parent_directory_id IS NULL")
		}
		return db.Where("parent_directory_id = ?", *parentID)
	}
}

// Repository 媒体元数据仓库
type Repository interface {
	Find(ctx context.Context, id uint) (*models.Media, error)
	FindHeadBySlug(ctx context.Context, parentID *uint, slug string) (*models.Media, error)
	FindByFilename(ctx context.Context, filename string) (*models.Media, error)
	All(ctx context.Context, scopes ...Scope) ([]*models.Media, error)
	Versions(ctx context.Context, headID uint) ([]*models.Media, error)
	Persist(ctx context.Context, media *models.Media, createNewVersion bool) error
	SlugExists(ctx context.Context, parentID *uint, slug string, excludeID uint) (bool, error)
	Delete(ctx context.Context, media *models.Media) error
	Restore(ctx context.Context, id uint) (*models.Media, error)
	HardDelete(ctx context.Context, media *models.Media) error
	CountByFilename(ctx context.Context, filename string, excludeID uint) (int64, error)
	LiveFilenames(ctx context.Context) (map[string]struct{}, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository 创建媒体仓库
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// Find 通过 ID 获取媒体
func (r *gormRepository) Find(ctx context.Context, id uint) (*models.Media, error) {
	var m models.Media
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &m, nil
}

// FindHeadBySlug 在指定目录下按 slug 查找当前版本
// 同一目录下出现多条同名记录时返回 ErrAmbiguousResult
func (r *gormRepository) FindHeadBySlug(ctx context.Context, parentID *uint, slug string) (*models.Media, error) {
	var matches []*models.Media
	q := r.db.WithContext(ctx).Scopes(ExcludeVersions).Where("slug = ?", slug)
	q = InDirectory(parentID)(q)
	if err := q.Limit(2).Find(&matches).Error; err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: slug %q", ErrAmbiguousResult, slug)
	}
}

// FindByFilename 通过存储文件名查找当前版本
func (r *gormRepository) FindByFilename(ctx context.Context, filename string) (*models.Media, error) {
	var m models.Media
	err := r.db.WithContext(ctx).Scopes(ExcludeVersions).
		Where("filename = ?", filename).First(&m).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &m, nil
}

// All 列出媒体记录，scopes 逐个应用
func (r *gormRepository) All(ctx context.Context, scopes ...Scope) ([]*models.Media, error) {
	q := r.db.WithContext(ctx).Model(&models.Media{})
	for _, s := range scopes {
		q = s(q)
	}
	var items []*models.Media
	if err := q.Order("name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Versions 列出指向指定当前版本的历史记录，最新的在前
func (r *gormRepository) Versions(ctx context.Context, headID uint) ([]*models.Media, error) {
	var items []*models.Media
	err := r.db.WithContext(ctx).
		Where("head_version_id = ?", headID).
		Order("id desc").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Persist 保存媒体记录
// createNewVersion 为 true 时将数据库中的旧内容克隆为历史版本后再保存
func (r *gormRepository) Persist(ctx context.Context, media *models.Media, createNewVersion bool) error {
	db := r.db.WithContext(ctx)

	if media.ID == 0 {
		if media.LogicalID == "" {
			media.LogicalID = uuid.NewString()
		}
		return db.Create(media).Error
	}

	if !createNewVersion {
		return db.Save(media).Error
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var previous models.Media
		if err := tx.First(&previous, media.ID).Error; err != nil {
			return fmt.Errorf("failed to load previous version: %w", err)
		}

		// 旧内容另存为指向当前记录的历史版本
		previous.ID = 0
		previous.CreatedAt = time.Time{}
		previous.UpdatedAt = time.Time{}
		previous.HeadVersionID = &media.ID
		if err := tx.Create(&previous).Error; err != nil {
			return fmt.Errorf("failed to archive previous version: %w", err)
		}

		return tx.Save(media).Error
	})
}

// SlugExists 检查目录下是否已有同 slug 的当前版本，excludeID 排除自身
func (r *gormRepository) SlugExists(ctx context.Context, parentID *uint, slug string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Media{}).
		Scopes(ExcludeVersions).Where("slug = ?", slug)
	q = InDirectory(parentID)(q)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete 软删除（回收站）
func (r *gormRepository) Delete(ctx context.Context, media *models.Media) error {
	return r.db.WithContext(ctx).Delete(media).Error
}

// Restore 从回收站恢复
func (r *gormRepository) Restore(ctx context.Context, id uint) (*models.Media, error) {
	var m models.Media
	if err := r.db.WithContext(ctx).Unscoped().First(&m, id).Error; err != nil {
		return nil, translateErr(err)
	}
	if err := r.db.WithContext(ctx).Unscoped().Model(&m).
		Update("deleted_at", nil).Error; err != nil {
		return nil, err
	}
	m.DeletedAt = gorm.DeletedAt{}
	return &m, nil
}

// HardDelete 物理删除记录及其历史版本
func (r *gormRepository) HardDelete(ctx context.Context, media *models.Media) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("head_version_id = ?", media.ID).
			Delete(&models.Media{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(media).Error
	})
}

// CountByFilename 统计引用某存储文件的记录数（含软删除与历史版本）
// 用于硬删除前判断文件是否仍被共享
func (r *gormRepository) CountByFilename(ctx context.Context, filename string, excludeID uint) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Unscoped().Model(&models.Media{}).
		Where("filename = ? OR alternative_files LIKE ?", filename, "%"+filename+"%")
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// LiveFilenames 收集所有未物理删除记录引用的文件名（原始文件 + 变体）
// 软删除与历史版本也算存活，它们的文件不参与回收
func (r *gormRepository) LiveFilenames(ctx context.Context) (map[string]struct{}, error) {
	var items []*models.Media
	if err := r.db.WithContext(ctx).Unscoped().Find(&items).Error; err != nil {
		return nil, err
	}

	live := make(map[string]struct{}, len(items))
	for _, m := range items {
		live[m.Filename] = struct{}{}
		for _, v := range m.AlternativeFiles {
			live[v.Filename] = struct{}{}
		}
	}
	return live, nil
}

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
