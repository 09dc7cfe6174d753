package media

import (
	"errors"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/anoixa/media-library/api/common"
	"github.com/anoixa/media-library/database/models"
	mediarepo "github.com/anoixa/media-library/database/repo/media"
	"github.com/anoixa/media-library/internal/mediatree"
	"github.com/anoixa/media-library/storage"
	"github.com/anoixa/media-library/utils/mime"
	"github.com/gin-gonic/gin"
)

// Get 获取媒体元数据
// GET /api/v1/media/:id
func (h *Handler) Get(c *gin.Context) {
	m, ok := h.loadMedia(c)
	if !ok {
		return
	}
	common.RespondSuccess(c, h.view(m))
}

// List 列出媒体
// GET /api/v1/media?directory_id=&type=
func (h *Handler) List(c *gin.Context) {
	opts := []mediarepo.Scope{}

	if raw, present := c.GetQuery("directory_id"); present {
		if raw == "" {
			opts = append(opts, mediarepo.InDirectory(nil))
		} else {
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				common.RespondError(c, http.StatusBadRequest, "Invalid directory_id")
				return
			}
			parent := uint(id)
			opts = append(opts, mediarepo.InDirectory(&parent))
		}
	}
	if raw := c.Query("type"); raw != "" {
		kind, err := strconv.Atoi(raw)
		if err != nil {
			common.RespondError(c, http.StatusBadRequest, "Invalid type")
			return
		}
		opts = append(opts, mediarepo.OfType(models.MediaType(kind)))
	}

	items, err := h.repo.All(c.Request.Context(), append([]mediarepo.Scope{mediarepo.ExcludeVersions}, opts...)...)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to list media")
		return
	}

	views := make([]mediaView, 0, len(items))
	for _, m := range items {
		views = append(views, h.view(m))
	}
	common.RespondSuccess(c, views)
}

// Versions 列出媒体的历史版本
// GET /api/v1/media/:id/versions
func (h *Handler) Versions(c *gin.Context) {
	m, ok := h.loadMedia(c)
	if !ok {
		return
	}
	versions, err := h.repo.Versions(c.Request.Context(), m.ID)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to list versions")
		return
	}
	views := make([]mediaView, 0, len(versions))
	for _, v := range versions {
		views = append(views, h.view(v))
	}
	common.RespondSuccess(c, views)
}

// Resolve 解析逻辑路径
// GET /api/v1/resolve?path=a/b/c.png
func (h *Handler) Resolve(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		common.RespondError(c, http.StatusBadRequest, "Missing path")
		return
	}

	node, err := h.tree.ResolvePath(c.Request.Context(), path)
	if err != nil {
		switch {
		case errors.Is(err, mediatree.ErrNotFound):
			common.RespondError(c, http.StatusNotFound, "Path not found")
		case errors.Is(err, mediarepo.ErrAmbiguousResult):
			common.RespondError(c, http.StatusConflict, err.Error())
		default:
			common.RespondError(c, http.StatusInternalServerError, "Failed to resolve path")
		}
		return
	}

	if node.IsMedia() {
		common.RespondSuccess(c, gin.H{"kind": "media", "media": h.view(node.Media)})
		return
	}
	common.RespondSuccess(c, gin.H{"kind": "directory", "directory": node.Directory})
}

// Serve 输出文件内容，接受逻辑路径或内容寻址文件名
// GET /media/*path
func (h *Handler) Serve(c *gin.Context) {
	requested := strings.Trim(c.Param("path"), "/")

	// 渲染出的 URL 都是内容寻址文件名，变体文件没有独立的媒体记录，直接读存储
	if storage.IsContentAddressed(requested) {
		h.serveBlob(c, requested)
		return
	}

	node, err := h.tree.ResolvePath(c.Request.Context(), requested)
	if err != nil || !node.IsMedia() {
		common.RespondError(c, http.StatusNotFound, "Media not found")
		return
	}
	m := node.Media

	reader, err := h.store.Open(c.Request.Context(), m.Filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			common.RespondError(c, http.StatusNotFound, "File is missing from storage")
			return
		}
		common.RespondError(c, http.StatusInternalServerError, "Failed to open file")
		return
	}
	if closer, ok := reader.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	c.Header("Content-Type", m.MimeType())
	// 内容寻址意味着同一地址的内容永不变化
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(c.Writer, c.Request, m.Filename, m.UpdatedAt, reader)
}

// serveBlob 按存储文件名输出内容，MIME 与修改时间优先取对应的媒体记录
func (h *Handler) serveBlob(c *gin.Context, filename string) {
	reader, err := h.store.Open(c.Request.Context(), filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			common.RespondError(c, http.StatusNotFound, "File not found")
			return
		}
		common.RespondError(c, http.StatusInternalServerError, "Failed to open file")
		return
	}
	if closer, ok := reader.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	contentType := mime.ByExtension(strings.TrimPrefix(path.Ext(filename), "."))
	var modTime time.Time
	if m, err := h.repo.FindByFilename(c.Request.Context(), filename); err == nil {
		contentType = m.MimeType()
		modTime = m.UpdatedAt
	}

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(c.Writer, c.Request, filename, modTime, reader)
}

// loadMedia 从 :id 加载媒体并统一错误处理
func (h *Handler) loadMedia(c *gin.Context) (*models.Media, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid media id")
		return nil, false
	}

	m, err := h.repo.Find(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, mediarepo.ErrNotFound) {
			common.RespondError(c, http.StatusNotFound, "Media not found")
		} else {
			common.RespondError(c, http.StatusInternalServerError, "Failed to load media")
		}
		return nil, false
	}
	return m, true
}
