package media

import (
	"context"
	"testing"

	"github.com/anoixa/media-library/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.MediaDirectory{}, &models.Media{}))
	return db
}

func intPtr(v int) *int { return &v }

func newImage(name, slug, filename string) *models.Media {
	return &models.Media{
		Name:     name,
		Slug:     slug,
		Filename: filename,
		Type:     models.TypeImage,
	}
}

// TestPersistAssignsLogicalID 新建记录自动获得逻辑 ID
func TestPersistAssignsLogicalID(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	m := newImage("photo", "photo", "aa.jpg")
	require.NoError(t, repo.Persist(ctx, m, false))

	assert.NotZero(t, m.ID)
	assert.NotEmpty(t, m.LogicalID)

	found, err := repo.Find(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.LogicalID, found.LogicalID)
}

// TestPersistCreatesVersion 保存新版本时旧内容成为历史记录
func TestPersistCreatesVersion(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	m := newImage("photo", "photo", "old.jpg")
	require.NoError(t, repo.Persist(ctx, m, false))

	m.Filename = "new.jpg"
	require.NoError(t, repo.Persist(ctx, m, true))

	versions, err := repo.Versions(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.Equal(t, "old.jpg", versions[0].Filename)
	assert.Equal(t, m.ID, *versions[0].HeadVersionID)
	assert.Equal(t, m.LogicalID, versions[0].LogicalID)

	// 历史版本不参与 slug 查找
	head, err := repo.FindHeadBySlug(ctx, nil, "photo")
	require.NoError(t, err)
	assert.Equal(t, "new.jpg", head.Filename)
}

// TestFindHeadBySlugAmbiguous 同目录同 slug 的多条当前版本报歧义
func TestFindHeadBySlugAmbiguous(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Persist(ctx, newImage("a", "dup", "a.jpg"), false))
	require.NoError(t, db.Create(newImage("b", "dup", "b.jpg")).Error)

	_, err := repo.FindHeadBySlug(ctx, nil, "dup")
	assert.ErrorIs(t, err, ErrAmbiguousResult)

	_, err = repo.FindHeadBySlug(ctx, nil, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSlugExists(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	m := newImage("photo", "photo", "aa.jpg")
	require.NoError(t, repo.Persist(ctx, m, false))

	exists, err := repo.SlugExists(ctx, nil, "photo", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	// 排除自身
	exists, err = repo.SlugExists(ctx, nil, "photo", m.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	parent := uint(42)
	exists, err = repo.SlugExists(ctx, &parent, "photo", 0)
	require.NoError(t, err)
	assert.False(t, exists)
}

// TestDeleteAndRestore 软删除后可恢复
func TestDeleteAndRestore(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	m := newImage("photo", "photo", "aa.jpg")
	require.NoError(t, repo.Persist(ctx, m, false))
	require.NoError(t, repo.Delete(ctx, m))

	_, err := repo.Find(ctx, m.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	restored, err := repo.Restore(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, restored.ID)

	found, err := repo.Find(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "photo", found.Slug)
}

// TestCountByFilename 统计包含变体引用在内的引用数
func TestCountByFilename(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	a := newImage("a", "a", "shared.jpg")
	require.NoError(t, repo.Persist(ctx, a, false))

	b := newImage("b", "b", "other.jpg")
	b.AddVariant("shared.jpg", intPtr(320), "image/jpeg")
	require.NoError(t, repo.Persist(ctx, b, false))

	count, err := repo.CountByFilename(ctx, "shared.jpg", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	count, err = repo.CountByFilename(ctx, "shared.jpg", a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// 软删除的记录仍算引用
	require.NoError(t, repo.Delete(ctx, a))
	count, err = repo.CountByFilename(ctx, "shared.jpg", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

// TestLiveFilenames 软删除与历史版本的文件都算存活
func TestLiveFilenames(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	m := newImage("photo", "photo", "v1.jpg")
	m.AddVariant("v1-320.webp", intPtr(320), "image/webp")
	require.NoError(t, repo.Persist(ctx, m, false))

	m.Filename = "v2.jpg"
	require.NoError(t, repo.Persist(ctx, m, true))
	require.NoError(t, repo.Delete(ctx, m))

	live, err := repo.LiveFilenames(ctx)
	require.NoError(t, err)

	assert.Contains(t, live, "v1.jpg")
	assert.Contains(t, live, "v1-320.webp")
	assert.Contains(t, live, "v2.jpg")
}

// TestHardDeleteRemovesVersions 物理删除连同历史版本
func TestHardDeleteRemovesVersions(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	m := newImage("photo", "photo", "v1.jpg")
	require.NoError(t, repo.Persist(ctx, m, false))
	m.Filename = "v2.jpg"
	require.NoError(t, repo.Persist(ctx, m, true))

	require.NoError(t, repo.HardDelete(ctx, m))

	live, err := repo.LiveFilenames(ctx)
	require.NoError(t, err)
	assert.Empty(t, live)
}
