package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anoixa/media-library/config"
	"github.com/anoixa/media-library/database/models"
	"github.com/anoixa/media-library/database/repo/directories"
	mediarepo "github.com/anoixa/media-library/database/repo/media"
	"github.com/anoixa/media-library/internal/mediatree"
	"github.com/anoixa/media-library/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newServeHandler(t *testing.T) (*Handler, mediarepo.Repository, *storage.ContentStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
	tree := mediatree.New(repo, dirs)

	return NewHandler(repo, nil, tree, nil, store, &config.Config{}), repo, store
}

func serveRequest(h *Handler, urlPath string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/media"+urlPath, nil)
	c.Params = gin.Params{{Key: "path", Value: urlPath}}
	h.Serve(c)
	return w
}

// TestServeContentAddressedFilename 渲染出的内容寻址地址必须可访问
func TestServeContentAddressedFilename(t *testing.T) {
	h, repo, store := newServeHandler(t)
	ctx := context.Background()

	content := []byte("original image bytes")
	filename, err := store.StoreBytes(ctx, content, "jpg")
	require.NoError(t, err)

	m := &models.Media{Name: "photo", Slug: "photo", Filename: filename, Type: models.TypeImage}
	require.NoError(t, repo.Persist(ctx, m, false))

	w := serveRequest(h, "/"+filename)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.Bytes())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "immutable")
}

// TestServeVariantWithoutRecord 变体文件没有独立的媒体记录，也要能按文件名访问
func TestServeVariantWithoutRecord(t *testing.T) {
	h, _, store := newServeHandler(t)

	content := []byte("resized webp bytes")
	filename, err := store.StoreBytes(context.Background(), content, "webp")
	require.NoError(t, err)

	w := serveRequest(h, "/"+filename)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.Bytes())
	assert.Equal(t, "image/webp", w.Header().Get("Content-Type"))
}

// TestServeLogicalPath 逻辑路径解析不受文件名直通影响
func TestServeLogicalPath(t *testing.T) {
	h, repo, store := newServeHandler(t)
	ctx := context.Background()

	content := []byte("logical path bytes")
	filename, err := store.StoreBytes(ctx, content, "png")
	require.NoError(t, err)

	m := &models.Media{Name: "photo", Slug: "photo", Filename: filename, Type: models.TypeImage}
	require.NoError(t, repo.Persist(ctx, m, false))

	w := serveRequest(h, "/photo.png")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, content, w.Body.Bytes())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestServeMissingFile(t *testing.T) {
	h, _, _ := newServeHandler(t)

	missing := strings.Repeat("0", 64) + ".jpg"
	w := serveRequest(h, "/"+missing)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serveRequest(h, "/no-such-slug.jpg")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
