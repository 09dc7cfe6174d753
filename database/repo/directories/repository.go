package directories

import (
	"context"
	"errors"
	"fmt"

	"github.com/anoixa/media-library/database/models"
	"gorm.io/gorm"
)

var (
	// ErrNotFound 目录不存在
	ErrNotFound = errors.New("directory not found")
	// ErrAmbiguousResult 同一路径匹配到多个目录
	ErrAmbiguousResult = errors.New("ambiguous result: multiple directories share this path")
)

// Repository 媒体目录仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建目录仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Find 通过 ID 获取目录
func (r *Repository) Find(ctx context.Context, id uint) (*models.MediaDirectory, error) {
	var dir models.MediaDirectory
	if err := r.db.WithContext(ctx).First(&dir, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &dir, nil
}

// FindBySlug 在指定父目录下按 slug 查找，nil 表示根目录
func (r *Repository) FindBySlug(ctx context.Context, parentID *uint, slug string) (*models.MediaDirectory, error) {
	var matches []*models.MediaDirectory
	q := r.db.WithContext(ctx).Where("slug = ?", slug)
	q = scopeParent(q, parentID)
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

// Children 列出子目录
func (r *Repository) Children(ctx context.Context, parentID *uint) ([]*models.MediaDirectory, error) {
	var dirs []*models.MediaDirectory
	q := scopeParent(r.db.WithContext(ctx), parentID)
	if err := q.Order("name asc").Find(&dirs).Error; err != nil {
		return nil, err
	}
	return dirs, nil
}

// All 列出所有目录
func (r *Repository) All(ctx context.Context) ([]*models.MediaDirectory, error) {
	var dirs []*models.MediaDirectory
	if err := r.db.WithContext(ctx).Order("name asc").Find(&dirs).Error; err != nil {
		return nil, err
	}
	return dirs, nil
}

// AncestorChain 返回从该目录到根的目录链（含自身，自底向上）
func (r *Repository) AncestorChain(ctx context.Context, dir *models.MediaDirectory) ([]*models.MediaDirectory, error) {
	chain := []*models.MediaDirectory{dir}
	seen := map[uint]struct{}{dir.ID: {}}

	current := dir
	for current.ParentDirectoryID != nil {
		parent, err := r.Find(ctx, *current.ParentDirectoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to walk ancestor chain of directory %d: %w", dir.ID, err)
		}
		if _, ok := seen[parent.ID]; ok {
			return nil, fmt.Errorf("directory %d has a cyclic ancestor chain", dir.ID)
		}
		seen[parent.ID] = struct{}{}
		chain = append(chain, parent)
		current = parent
	}
	return chain, nil
}

// SlugExists 检查父目录下是否已有同 slug 的目录，excludeID 排除自身
func (r *Repository) SlugExists(ctx context.Context, parentID *uint, slug string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.MediaDirectory{}).Where("slug = ?", slug)
	q = scopeParent(q, parentID)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create 创建目录
func (r *Repository) Create(ctx context.Context, dir *models.MediaDirectory) error {
	return r.db.WithContext(ctx).Create(dir).Error
}

// Save 保存目录
func (r *Repository) Save(ctx context.Context, dir *models.MediaDirectory) error {
	return r.db.WithContext(ctx).Save(dir).Error
}

// Delete 删除目录，子目录与文件重新挂到其父目录下
func (r *Repository) Delete(ctx context.Context, dir *models.MediaDirectory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.MediaDirectory{}).
			Where("parent_directory_id = ?", dir.ID).
			Update("parent_directory_id", dir.ParentDirectoryID).Error; err != nil {
			return fmt.Errorf("failed to re-parent child directories: %w", err)
		}
		if err := tx.Model(&models.Media{}).
			Where("parent_directory_id = ?", dir.ID).
			Update("parent_directory_id", dir.ParentDirectoryID).Error; err != nil {
			return fmt.Errorf("failed to re-parent child media: %w", err)
		}
		return tx.Delete(dir).Error
	})
}

func scopeParent(q *gorm.DB, parentID *uint) *gorm.DB {
	if parentID == nil {
		return q.Where("parent_directory_id IS NULL")
	}
	return q.Where("parent_directory_id = ?", *parentID)
}
