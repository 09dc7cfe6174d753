// Package media 实现媒体的上传、编辑、移动与删除
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/anoixa/media-library/config"
	"github.com/anoixa/media-library/database/models"
	"github.com/anoixa/media-library/database/repo/directories"
	mediarepo "github.com/anoixa/media-library/database/repo/media"
	"github.com/anoixa/media-library/internal/imaging"
	"github.com/anoixa/media-library/internal/macro"
	"github.com/anoixa/media-library/internal/variants"
	"github.com/anoixa/media-library/internal/worker"
	"github.com/anoixa/media-library/storage"
	"github.com/anoixa/media-library/utils"
	"github.com/anoixa/media-library/utils/mime"
)

var (
	// ErrUnsupportedType 扩展名不在受支持的媒体类型中
	ErrUnsupportedType = errors.New("unsupported media type")
	// ErrNotImage 操作只适用于图片
	ErrNotImage = errors.New("media is not an image")
	// ErrSlugTaken 目标目录下已有同名媒体
	ErrSlugTaken = errors.New("slug already exists in target directory")
)

// Service 媒体服务
type Service struct {
	repo      mediarepo.Repository
	dirs      *directories.Repository
	store     *storage.ContentStore
	generator *variants.Generator
	codec     imaging.Codec
	cfg       *config.Config
}

// NewService 创建媒体服务
func NewService(repo mediarepo.Repository, dirs *directories.Repository, store *storage.ContentStore,
	generator *variants.Generator, codec imaging.Codec, cfg *config.Config) *Service {
	return &Service{
		repo:      repo,
		dirs:      dirs,
		store:     store,
		generator: generator,
		codec:     codec,
		cfg:       cfg,
	}
}

// UploadInput 上传参数
type UploadInput struct {
	Reader            io.Reader
	OriginalName      string
	ParentDirectoryID *uint
	Author            string
	Caption           string
	Description       string
}

// Upload 保存上传内容并创建媒体记录，图片异步补全变体
func (s *Service) Upload(ctx context.Context, input UploadInput) (*models.Media, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(input.OriginalName), "."))
	if !mime.IsSupportedExtension(ext) {
		return nil, fmt.Errorf("%w: .%s", ErrUnsupportedType, ext)
	}

	if input.ParentDirectoryID != nil {
		if _, err := s.dirs.Find(ctx, *input.ParentDirectoryID); err != nil {
			return nil, fmt.Errorf("invalid parent directory: %w", err)
		}
	}

	filename, err := s.store.Store(ctx, input.Reader, ext)
	if err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	baseName := strings.TrimSuffix(path.Base(input.OriginalName), path.Ext(input.OriginalName))
	m := &models.Media{
		Name:              baseName,
		Slug:              utils.Slugify(baseName),
		Filename:          filename,
		Type:              models.MediaType(mime.KindByExtension(ext)),
		Author:            input.Author,
		Caption:           input.Caption,
		Description:       input.Description,
		ParentDirectoryID: input.ParentDirectoryID,
	}

	// 同名上传沿用 "name 2"/"slug-2" 递增方案
	for {
		exists, err := s.repo.SlugExists(ctx, m.ParentDirectoryID, m.Slug, 0)
		if err != nil {
			return nil, err
		}
		if !exists {
			break
		}
		m.Name = m.NewName()
		m.Slug = m.NewSlug()
	}

	if err := s.repo.Persist(ctx, m, false); err != nil {
		return nil, fmt.Errorf("failed to create media record: %w", err)
	}

	if m.Type == models.TypeImage {
		s.queueVariants(m.ID)
	}
	return m, nil
}

// queueVariants 把变体补全排进后台队列
func (s *Service) queueVariants(id uint) {
	worker.Submit(&worker.VariantTask{
		MediaID:   id,
		Repo:      s.repo,
		Generator: s.generator,
	})
}

// Edit 对图片执行编辑管线，结果保存为新版本并重新生成变体
func (s *Service) Edit(ctx context.Context, m *models.Media, macroDocument []byte) (*models.Media, error) {
	if m.Type != models.TypeImage {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, m.Name)
	}

	pipeline, err := macro.Parse(macroDocument)
	if err != nil {
		return nil, err
	}

	reader, err := s.store.Open(ctx, m.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open original '%s': %w", m.Filename, err)
	}

	img, err := s.codec.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode '%s': %w", m.Filename, err)
	}
	defer img.Close()

	if err := pipeline.Apply(img); err != nil {
		return nil, err
	}

	format, ok := imaging.FormatByExtension(m.Extension())
	if !ok {
		return nil, fmt.Errorf("%w: cannot re-encode .%s", ErrNotImage, m.Extension())
	}
	data, err := img.Export(format)
	if err != nil {
		return nil, fmt.Errorf("failed to encode edited image: %w", err)
	}

	filename, err := s.store.StoreBytes(ctx, data, string(format))
	if err != nil {
		return nil, err
	}

	// 旧内容成为历史版本，新内容从零开始补全变体
	m.Filename = filename
	m.ClearVariants()
	if err := s.repo.Persist(ctx, m, true); err != nil {
		return nil, fmt.Errorf("failed to persist edited media: %w", err)
	}

	s.queueVariants(m.ID)
	return m, nil
}

// Rename 重命名媒体，slug 跟随名称变化
func (s *Service) Rename(ctx context.Context, m *models.Media, newName string) error {
	slug := utils.Slugify(newName)
	exists, err := s.repo.SlugExists(ctx, m.ParentDirectoryID, slug, m.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %q", ErrSlugTaken, slug)
	}

	m.Name = newName
	m.Slug = slug
	return s.repo.Persist(ctx, m, false)
}

// Move 把媒体移动到另一个目录，nil 表示根目录
func (s *Service) Move(ctx context.Context, m *models.Media, newParentID *uint) error {
	if newParentID != nil {
		if _, err := s.dirs.Find(ctx, *newParentID); err != nil {
			return fmt.Errorf("invalid target directory: %w", err)
		}
	}

	exists, err := s.repo.SlugExists(ctx, newParentID, m.Slug, m.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %q", ErrSlugTaken, m.Slug)
	}

	m.ParentDirectoryID = newParentID
	return s.repo.Persist(ctx, m, false)
}

// Delete 软删除媒体（进入回收站），文件保留
func (s *Service) Delete(ctx context.Context, m *models.Media) error {
	return s.repo.Delete(ctx, m)
}

// Restore 从回收站恢复
func (s *Service) Restore(ctx context.Context, id uint) (*models.Media, error) {
	return s.repo.Restore(ctx, id)
}

// HardDelete 物理删除记录及历史版本，不再被引用的文件随之删除
func (s *Service) HardDelete(ctx context.Context, m *models.Media) error {
	// 先收集候选文件（含历史版本的），记录删除后再按引用数清理
	seen := make(map[string]struct{})
	var candidates []string
	collect := func(rec *models.Media) {
		for _, v := range rec.Variants() {
			if _, ok := seen[v.Filename]; ok {
				continue
			}
			seen[v.Filename] = struct{}{}
			candidates = append(candidates, v.Filename)
		}
	}
	collect(m)

	versions, err := s.repo.Versions(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("failed to list versions of media %d: %w", m.ID, err)
	}
	for _, version := range versions {
		collect(version)
	}

	if err := s.repo.HardDelete(ctx, m); err != nil {
		return err
	}

	for _, filename := range candidates {
		count, err := s.repo.CountByFilename(ctx, filename, 0)
		if err != nil {
			return fmt.Errorf("failed to count references of '%s': %w", filename, err)
		}
		if count > 0 {
			continue
		}
		if err := s.store.Delete(ctx, filename); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to delete file '%s': %w", filename, err)
		}
	}
	return nil
}
