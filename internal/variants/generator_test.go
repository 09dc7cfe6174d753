package variants

import (
	"context"
	"fmt"
	"testing"

	"github.com/anoixa/media-library/database/models"
	mediarepo "github.com/anoixa/media-library/database/repo/media"
	"github.com/anoixa/media-library/internal/imaging"
	"github.com/anoixa/media-library/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testSink struct {
	lines []string
}

func (s *testSink) Printf(format string, args ...interface{}) {
	s.lines = append(s.lines, fmt.Sprintf(format, args...))
}

func newTestGenerator(t *testing.T, widths []int) (*Generator, mediarepo.Repository, *storage.ContentStore) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.MediaDirectory{}, &models.Media{}))

	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	store := storage.NewContentStore(local, "/media")

	repo := mediarepo.NewRepository(db)
	gen := NewGenerator(repo, store, imaging.NewMemoryCodec(), Options{
		Widths:         widths,
		ModernFormat:   imaging.FormatWebP,
		FallbackFormat: imaging.FormatJPEG,
	})
	return gen, repo, store
}

func storeImage(t *testing.T, store *storage.ContentStore, width, height int, ext string) string {
	t.Helper()
	filename, err := store.StoreBytes(context.Background(), imaging.EncodeSize(width, height), ext)
	require.NoError(t, err)
	return filename
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// TestEnsureVariantsCompletesMatrix 每个宽度档位都要有原始格式、现代格式和兜底格式
func TestEnsureVariantsCompletesMatrix(t *testing.T) {
	gen, repo, store := newTestGenerator(t, []int{320, 640})
	ctx := context.Background()

	m := &models.Media{
		Name:     "photo",
		Slug:     "photo",
		Filename: storeImage(t, store, 1600, 1200, "jpg"),
		Type:     models.TypeImage,
	}
	require.NoError(t, repo.Persist(ctx, m, false))

	generated, err := gen.EnsureVariants(ctx, m)
	require.NoError(t, err)
	// 2 宽度 x (jpg + webp) + 原始尺寸的 webp
	assert.Equal(t, 5, generated)

	for _, width := range []*int{intPtr(320), intPtr(640), nil} {
		assert.True(t, m.HasVariant(width, strPtr("image/webp")))
		assert.True(t, m.HasVariant(width, strPtr("image/jpeg")))
	}

	// 每个变体的文件都已落盘
	for _, v := range m.Variants() {
		exists, err := store.Exists(ctx, v.Filename)
		require.NoError(t, err)
		assert.True(t, exists, v.Filename)
	}
}

// TestEnsureVariantsIdempotent 第二次调用不生成也不再保存新版本
func TestEnsureVariantsIdempotent(t *testing.T) {
	gen, repo, store := newTestGenerator(t, []int{320})
	ctx := context.Background()

	m := &models.Media{
		Name:     "photo",
		Slug:     "photo",
		Filename: storeImage(t, store, 1600, 1200, "jpg"),
		Type:     models.TypeImage,
	}
	require.NoError(t, repo.Persist(ctx, m, false))

	first, err := gen.EnsureVariants(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, 3, first)

	versions, err := repo.Versions(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)

	second, err := gen.EnsureVariants(ctx, m)
	require.NoError(t, err)
	assert.Zero(t, second)

	versions, err = repo.Versions(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

// TestEnsureVariantsNeverUpscales 超过原图宽度的档位按原尺寸编码，但仍按请求宽度记录
func TestEnsureVariantsNeverUpscales(t *testing.T) {
	gen, repo, store := newTestGenerator(t, []int{320, 640})
	ctx := context.Background()

	m := &models.Media{
		Name:     "small",
		Slug:     "small",
		Filename: storeImage(t, store, 500, 375, "png"),
		Type:     models.TypeImage,
	}
	require.NoError(t, repo.Persist(ctx, m, false))

	_, err := gen.EnsureVariants(ctx, m)
	require.NoError(t, err)

	assert.True(t, m.HasVariant(intPtr(640), strPtr("image/png")))

	found := false
	for _, v := range m.AlternativeFiles {
		if v.Width != nil && *v.Width == 640 && v.Mime == "image/png" {
			found = true
			reader, err := store.Open(ctx, v.Filename)
			require.NoError(t, err)
			img, err := imaging.NewMemoryCodec().Decode(reader)
			require.NoError(t, err)
			assert.Equal(t, 500, img.Width())
		}
	}
	assert.True(t, found)
}

func TestEnsureVariantsWrongType(t *testing.T) {
	gen, _, _ := newTestGenerator(t, []int{320})

	m := &models.Media{Name: "doc", Slug: "doc", Filename: "aa.pdf", Type: models.TypeDocument}
	_, err := gen.EnsureVariants(context.Background(), m)
	assert.ErrorIs(t, err, ErrWrongType)
}

// TestEnsureAll 跳过非图片、报告缺失原图、单项失败不中止
func TestEnsureAll(t *testing.T) {
	gen, repo, store := newTestGenerator(t, []int{320})
	ctx := context.Background()

	ok := &models.Media{
		Name: "ok", Slug: "ok",
		Filename: storeImage(t, store, 1600, 1200, "jpg"),
		Type:     models.TypeImage,
	}
	require.NoError(t, repo.Persist(ctx, ok, false))

	missing := &models.Media{
		Name: "gone", Slug: "gone",
		Filename: "0000000000000000000000000000000000000000000000000000000000000000.jpg",
		Type:     models.TypeImage,
	}
	require.NoError(t, repo.Persist(ctx, missing, false))

	doc := &models.Media{Name: "doc", Slug: "doc", Filename: "aa.pdf", Type: models.TypeDocument}
	require.NoError(t, repo.Persist(ctx, doc, false))

	sink := &testSink{}
	summary, err := gen.EnsureAll(ctx, sink)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Generated)
	assert.Equal(t, 1, summary.Missing)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.UpToDate)
	assert.Zero(t, summary.Failed)
	assert.NotEmpty(t, sink.lines)

	// 第二轮：矩阵已完整的图片单独计数，不算跳过
	summary, err = gen.EnsureAll(ctx, &testSink{})
	require.NoError(t, err)
	assert.Zero(t, summary.Generated)
	assert.Equal(t, 1, summary.UpToDate)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Missing)
}

// TestEnsureAllHonorsCancellation 取消后在两个媒体之间停止
func TestEnsureAllHonorsCancellation(t *testing.T) {
	gen, repo, store := newTestGenerator(t, []int{320})

	m := &models.Media{
		Name: "a", Slug: "a",
		Filename: storeImage(t, store, 800, 600, "jpg"),
		Type:     models.TypeImage,
	}
	require.NoError(t, repo.Persist(context.Background(), m, false))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.EnsureAll(ctx, &testSink{})
	assert.ErrorIs(t, err, context.Canceled)
}
