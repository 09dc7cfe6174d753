package mediatree

import (
	"context"
	"testing"

	"github.com/anoixa/media-library/database/models"
	"github.com/anoixa/media-library/database/repo/directories"
	mediarepo "github.com/anoixa/media-library/database/repo/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestTree(t *testing.T) (*Tree, mediarepo.Repository, *directories.Repository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.MediaDirectory{}, &models.Media{}))

	media := mediarepo.NewRepository(db)
	dirs := directories.NewRepository(db)
	return New(media, dirs), media, dirs
}

// TestPathRoundTrip resolvePath(fullPath(x)) 必须回到 x
func TestPathRoundTrip(t *testing.T) {
	tree, media, _ := newTestTree(t)
	ctx := context.Background()

	foo, err := tree.CreateDirectory(ctx, "Foo", nil)
	require.NoError(t, err)
	bar, err := tree.CreateDirectory(ctx, "Bar", &foo.ID)
	require.NoError(t, err)

	m := &models.Media{
		Name:              "Baz",
		Slug:              "baz",
		Filename:          "deadbeef.png",
		Type:              models.TypeImage,
		ParentDirectoryID: &bar.ID,
	}
	require.NoError(t, media.Persist(ctx, m, false))

	path, err := tree.MediaPath(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, "foo/bar/baz.png", path)

	node, err := tree.ResolvePath(ctx, path)
	require.NoError(t, err)
	require.True(t, node.IsMedia())
	assert.Equal(t, m.ID, node.Media.ID)

	dirNode, err := tree.ResolvePath(ctx, "foo/bar")
	require.NoError(t, err)
	require.False(t, dirNode.IsMedia())
	assert.Equal(t, bar.ID, dirNode.Directory.ID)
}

// TestResolvePathExtensionMustMatch 扩展名不匹配时不得解析到媒体
func TestResolvePathExtensionMustMatch(t *testing.T) {
	tree, media, _ := newTestTree(t)
	ctx := context.Background()

	m := &models.Media{Name: "Baz", Slug: "baz", Filename: "deadbeef.png", Type: models.TypeImage}
	require.NoError(t, media.Persist(ctx, m, false))

	_, err := tree.ResolvePath(ctx, "baz.jpg")
	assert.ErrorIs(t, err, ErrNotFound)

	// 不带扩展名也能按 slug 命中
	node, err := tree.ResolvePath(ctx, "baz")
	require.NoError(t, err)
	assert.True(t, node.IsMedia())
}

// TestSetParentRejectsCycles 目录不能移动到自身或后代下
func TestSetParentRejectsCycles(t *testing.T) {
	tree, _, _ := newTestTree(t)
	ctx := context.Background()

	a, err := tree.CreateDirectory(ctx, "A", nil)
	require.NoError(t, err)
	b, err := tree.CreateDirectory(ctx, "B", &a.ID)
	require.NoError(t, err)
	c, err := tree.CreateDirectory(ctx, "C", &b.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, tree.SetParent(ctx, a, a), ErrInvalidHierarchy)
	assert.ErrorIs(t, tree.SetParent(ctx, a, c), ErrInvalidHierarchy)

	// 合法移动：C 提升到根
	require.NoError(t, tree.SetParent(ctx, c, nil))
	path, err := tree.DirectoryPath(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "c", path)
}

// TestCreateDirectoryRejectsDuplicateSlug 同级目录 slug 唯一
func TestCreateDirectoryRejectsDuplicateSlug(t *testing.T) {
	tree, _, _ := newTestTree(t)
	ctx := context.Background()

	_, err := tree.CreateDirectory(ctx, "Docs", nil)
	require.NoError(t, err)
	_, err = tree.CreateDirectory(ctx, "Docs", nil)
	assert.Error(t, err)
}

// TestDeleteDirectoryReparentsChildren 删除目录后子项提升
func TestDeleteDirectoryReparentsChildren(t *testing.T) {
	tree, media, dirs := newTestTree(t)
	ctx := context.Background()

	parent, err := tree.CreateDirectory(ctx, "Parent", nil)
	require.NoError(t, err)
	child, err := tree.CreateDirectory(ctx, "Child", &parent.ID)
	require.NoError(t, err)

	m := &models.Media{Name: "F", Slug: "f", Filename: "aa.png", Type: models.TypeImage, ParentDirectoryID: &child.ID}
	require.NoError(t, media.Persist(ctx, m, false))

	require.NoError(t, tree.DeleteDirectory(ctx, child))

	reloaded, err := media.Find(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.ParentDirectoryID)
	assert.Equal(t, parent.ID, *reloaded.ParentDirectoryID)

	_, err = dirs.Find(ctx, child.ID)
	assert.ErrorIs(t, err, directories.ErrNotFound)
}
