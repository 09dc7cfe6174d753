// Package mediatree 维护目录层级：路径解析、完整路径生成、目录移动
package mediatree

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/anoixa/media-library/database/models"
	"github.com/anoixa/media-library/database/repo/directories"
	"github.com/anoixa/media-library/database/repo/media"
	"github.com/anoixa/media-library/utils"
)

var (
	// ErrNotFound 路径没有对应的媒体或目录
	ErrNotFound = errors.New("path not found")
	// ErrInvalidHierarchy 目录不能移动到自身或自己的后代下
	ErrInvalidHierarchy = errors.New("cannot move a directory into itself or its own descendant")
)

// Node 路径解析结果，Media 与 Directory 恰好一个非空
type Node struct {
	Media     *models.Media
	Directory *models.MediaDirectory
}

// IsMedia 是否解析到媒体文件
func (n Node) IsMedia() bool {
	return n.Media != nil
}

// Tree 目录树服务
type Tree struct {
	media media.Repository
	dirs  *directories.Repository

	// 目录结构变更串行化，防止并发移动造成环
	mu sync.Mutex
}

// New 创建目录树服务
func New(mediaRepo media.Repository, dirRepo *directories.Repository) *Tree {
	return &Tree{media: mediaRepo, dirs: dirRepo}
}

// ResolvePath 把 "a/b/c.png" 解析为媒体或目录
// 前面的段必须是目录 slug，最后一段优先按媒体解析，其次按目录
func (t *Tree) ResolvePath(ctx context.Context, p string) (Node, error) {
	p = strings.Trim(p, "/")
	if p == "" {
		return Node{}, fmt.Errorf("%w: empty path", ErrNotFound)
	}
	segments := strings.Split(p, "/")

	var parentID *uint
	for _, seg := range segments[:len(segments)-1] {
		dir, err := t.dirs.FindBySlug(ctx, parentID, seg)
		if err != nil {
			if errors.Is(err, directories.ErrNotFound) {
				return Node{}, fmt.Errorf("%w: %s", ErrNotFound, p)
			}
			return Node{}, err
		}
		parentID = &dir.ID
	}

	last := segments[len(segments)-1]
	ext := strings.TrimPrefix(path.Ext(last), ".")
	slug := strings.TrimSuffix(last, path.Ext(last))

	m, err := t.media.FindHeadBySlug(ctx, parentID, slug)
	switch {
	case err == nil:
		if ext == "" || strings.EqualFold(ext, m.Extension()) {
			return Node{Media: m}, nil
		}
	case !errors.Is(err, media.ErrNotFound):
		return Node{}, err
	}

	// 带扩展名的段只可能是文件
	if ext != "" {
		return Node{}, fmt.Errorf("%w: %s", ErrNotFound, p)
	}

	dir, err := t.dirs.FindBySlug(ctx, parentID, last)
	if err != nil {
		if errors.Is(err, directories.ErrNotFound) {
			return Node{}, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return Node{}, err
	}
	return Node{Directory: dir}, nil
}

// DirectoryPath 返回目录的完整路径，如 "a/b/c"
func (t *Tree) DirectoryPath(ctx context.Context, dir *models.MediaDirectory) (string, error) {
	chain, err := t.dirs.AncestorChain(ctx, dir)
	if err != nil {
		return "", err
	}

	// 链是自底向上的，倒序拼接
	parts := make([]string, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		parts = append(parts, chain[i].Slug)
	}
	return strings.Join(parts, "/"), nil
}

// MediaPath 返回媒体的完整路径，如 "a/b/photo.png"
func (t *Tree) MediaPath(ctx context.Context, m *models.Media) (string, error) {
	name := m.Slug
	if ext := m.Extension(); ext != "" {
		name += "." + ext
	}

	if m.ParentDirectoryID == nil {
		return name, nil
	}

	parent, err := t.dirs.Find(ctx, *m.ParentDirectoryID)
	if err != nil {
		return "", err
	}
	prefix, err := t.DirectoryPath(ctx, parent)
	if err != nil {
		return "", err
	}
	return prefix + "/" + name, nil
}

// SetParent 把目录移动到新的父目录下，nil 表示移动到根
// 拒绝移动到自身或自己的后代下
func (t *Tree) SetParent(ctx context.Context, dir *models.MediaDirectory, newParent *models.MediaDirectory) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if newParent != nil {
		if newParent.ID == dir.ID {
			return ErrInvalidHierarchy
		}
		chain, err := t.dirs.AncestorChain(ctx, newParent)
		if err != nil {
			return err
		}
		for _, ancestor := range chain {
			if ancestor.ID == dir.ID {
				return ErrInvalidHierarchy
			}
		}
		dir.ParentDirectoryID = &newParent.ID
	} else {
		dir.ParentDirectoryID = nil
	}

	exists, err := t.dirs.SlugExists(ctx, dir.ParentDirectoryID, dir.Slug, dir.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("directory slug %q already exists in target directory", dir.Slug)
	}

	return t.dirs.Save(ctx, dir)
}

// CreateDirectory 在指定父目录下创建目录，nil 表示根目录
func (t *Tree) CreateDirectory(ctx context.Context, name string, parentID *uint) (*models.MediaDirectory, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if parentID != nil {
		if _, err := t.dirs.Find(ctx, *parentID); err != nil {
			return nil, fmt.Errorf("invalid parent directory: %w", err)
		}
	}

	slug := utils.Slugify(name)
	exists, err := t.dirs.SlugExists(ctx, parentID, slug, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("directory slug %q already exists in parent", slug)
	}

	dir := &models.MediaDirectory{
		Name:              name,
		Slug:              slug,
		ParentDirectoryID: parentID,
	}
	if err := t.dirs.Create(ctx, dir); err != nil {
		return nil, err
	}
	return dir, nil
}

// RenameDirectory 重命名目录，slug 跟随名称变化
func (t *Tree) RenameDirectory(ctx context.Context, dir *models.MediaDirectory, newName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	slug := utils.Slugify(newName)
	exists, err := t.dirs.SlugExists(ctx, dir.ParentDirectoryID, slug, dir.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("directory slug %q already exists in parent", slug)
	}

	dir.Name = newName
	dir.Slug = slug
	return t.dirs.Save(ctx, dir)
}

// DeleteDirectory 删除目录，其子目录与文件提升到父目录下
func (t *Tree) DeleteDirectory(ctx context.Context, dir *models.MediaDirectory) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dirs.Delete(ctx, dir)
}
