package media

import (
	"bytes"
	"context"
	"testing"

	"github.com/anoixa/media-library/config"
	"github.com/anoixa/media-library/database/models"
	"github.com/anoixa/media-library/database/repo/directories"
	mediarepo "github.com/anoixa/media-library/database/repo/media"
	"github.com/anoixa/media-library/internal/imaging"
	"github.com/anoixa/media-library/internal/variants"
	"github.com/anoixa/media-library/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	service *Service
	repo    mediarepo.Repository
	dirs    *directories.Repository
	store   *storage.ContentStore
}

func newTestEnv(t *testing.T) *testEnv {
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
	dirs := directories.NewRepository(db)
	codec := imaging.NewMemoryCodec()
	generator := variants.NewGenerator(repo, store, codec, variants.Options{
		Widths:         []int{320},
		ModernFormat:   imaging.FormatWebP,
		FallbackFormat: imaging.FormatJPEG,
	})

	return &testEnv{
		service: NewService(repo, dirs, store, generator, codec, &config.Config{}),
		repo:    repo,
		dirs:    dirs,
		store:   store,
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Upload(context.Background(), UploadInput{
		Reader:       bytes.NewReader([]byte("binary")),
		OriginalName: "setup.exe",
	})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestUploadRejectsUnknownParent(t *testing.T) {
	env := newTestEnv(t)

	missing := uint(99)
	_, err := env.service.Upload(context.Background(), UploadInput{
		Reader:            bytes.NewReader([]byte("audio-a")),
		OriginalName:      "song.mp3",
		ParentDirectoryID: &missing,
	})
	assert.Error(t, err)
}

// TestUploadDeduplicatesSlug 同目录同名上传按 "name 2"/"slug-2" 递增
func TestUploadDeduplicatesSlug(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.service.Upload(ctx, UploadInput{
		Reader:       bytes.NewReader([]byte("audio-a")),
		OriginalName: "My Song.mp3",
	})
	require.NoError(t, err)
	assert.Equal(t, "My Song", first.Name)
	assert.Equal(t, "my-song", first.Slug)
	assert.Equal(t, models.TypeAudio, first.Type)

	second, err := env.service.Upload(ctx, UploadInput{
		Reader:       bytes.NewReader([]byte("audio-b")),
		OriginalName: "My Song.mp3",
	})
	require.NoError(t, err)
	assert.Equal(t, "My Song 2", second.Name)
	assert.Equal(t, "my-song-2", second.Slug)

	// 文件名是内容寻址的，不同内容互不冲突
	assert.NotEqual(t, first.Filename, second.Filename)
}

func TestRenameRejectsTakenSlug(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a, err := env.service.Upload(ctx, UploadInput{
		Reader: bytes.NewReader([]byte("audio-a")), OriginalName: "alpha.mp3",
	})
	require.NoError(t, err)
	b, err := env.service.Upload(ctx, UploadInput{
		Reader: bytes.NewReader([]byte("audio-b")), OriginalName: "beta.mp3",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, env.service.Rename(ctx, b, "Alpha"), ErrSlugTaken)

	require.NoError(t, env.service.Rename(ctx, a, "Gamma"))
	assert.Equal(t, "gamma", a.Slug)
}

// TestMoveBetweenDirectories 移动校验目标目录与 slug 冲突
func TestMoveBetweenDirectories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	dir := &models.MediaDirectory{Name: "Albums", Slug: "albums"}
	require.NoError(t, env.dirs.Create(ctx, dir))

	m, err := env.service.Upload(ctx, UploadInput{
		Reader: bytes.NewReader([]byte("audio-a")), OriginalName: "song.mp3",
	})
	require.NoError(t, err)

	require.NoError(t, env.service.Move(ctx, m, &dir.ID))
	assert.Equal(t, dir.ID, *m.ParentDirectoryID)

	missing := uint(99)
	assert.Error(t, env.service.Move(ctx, m, &missing))

	// 目标目录下已有同 slug 的媒体
	other, err := env.service.Upload(ctx, UploadInput{
		Reader: bytes.NewReader([]byte("audio-b")), OriginalName: "song.mp3",
	})
	require.NoError(t, err)
	assert.ErrorIs(t, env.service.Move(ctx, other, &dir.ID), ErrSlugTaken)
}

// TestHardDeleteKeepsSharedFiles 物理删除只清理不再被引用的文件
func TestHardDeleteKeepsSharedFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	unique, err := env.store.StoreBytes(ctx, []byte("unique-bytes"), "jpg")
	require.NoError(t, err)
	shared, err := env.store.StoreBytes(ctx, []byte("shared-bytes"), "jpg")
	require.NoError(t, err)

	a := &models.Media{Name: "a", Slug: "a", Filename: unique, Type: models.TypeImage}
	a.AddVariant(shared, nil, "image/jpeg")
	require.NoError(t, env.repo.Persist(ctx, a, false))

	b := &models.Media{Name: "b", Slug: "b", Filename: shared, Type: models.TypeImage}
	require.NoError(t, env.repo.Persist(ctx, b, false))

	require.NoError(t, env.service.HardDelete(ctx, a))

	exists, err := env.store.Exists(ctx, unique)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = env.store.Exists(ctx, shared)
	require.NoError(t, err)
	assert.True(t, exists)
}

// TestHardDeleteRemovesVersionBlobs 历史版本的文件随物理删除一并清理
func TestHardDeleteRemovesVersionBlobs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	v1, err := env.store.StoreBytes(ctx, []byte("version-one"), "jpg")
	require.NoError(t, err)
	v2, err := env.store.StoreBytes(ctx, []byte("version-two"), "jpg")
	require.NoError(t, err)

	m := &models.Media{Name: "photo", Slug: "photo", Filename: v1, Type: models.TypeImage}
	require.NoError(t, env.repo.Persist(ctx, m, false))

	// 编辑把旧文件留在历史版本里
	m.Filename = v2
	require.NoError(t, env.repo.Persist(ctx, m, true))

	require.NoError(t, env.service.HardDelete(ctx, m))

	for _, filename := range []string{v1, v2} {
		exists, err := env.store.Exists(ctx, filename)
		require.NoError(t, err)
		assert.False(t, exists, filename)
	}
}

// TestSweepRemovesOrphans 只有不被任何记录引用的文件会被回收
func TestSweepRemovesOrphans(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	live, err := env.store.StoreBytes(ctx, []byte("live-bytes"), "jpg")
	require.NoError(t, err)
	orphan, err := env.store.StoreBytes(ctx, []byte("orphan-bytes"), "jpg")
	require.NoError(t, err)

	m := &models.Media{Name: "a", Slug: "a", Filename: live, Type: models.TypeImage}
	require.NoError(t, env.repo.Persist(ctx, m, false))

	gc := NewGarbageCollector(env.repo, env.store)

	// dry-run 只报告不删除
	removed, err := gc.Sweep(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, []string{orphan}, removed)
	exists, err := env.store.Exists(ctx, orphan)
	require.NoError(t, err)
	assert.True(t, exists)

	removed, err = gc.Sweep(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, []string{orphan}, removed)

	exists, err = env.store.Exists(ctx, orphan)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = env.store.Exists(ctx, live)
	require.NoError(t, err)
	assert.True(t, exists)
}
