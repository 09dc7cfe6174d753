package media

import (
	"net/http"
	"strconv"

	"github.com/anoixa/media-library/api/common"
	"github.com/gin-gonic/gin"
)

// Delete 删除媒体，默认软删除，hard=1 时物理删除并清理文件
// DELETE /api/v1/media/:id
func (h *Handler) Delete(c *gin.Context) {
	m, ok := h.loadMedia(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if c.Query("hard") == "1" {
		if err := h.service.HardDelete(ctx, m); err != nil {
			common.RespondError(c, http.StatusInternalServerError, "Failed to delete media")
			return
		}
		common.RespondSuccessMessage(c, "Media permanently deleted", nil)
		return
	}

	if err := h.service.Delete(ctx, m); err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to delete media")
		return
	}
	common.RespondSuccessMessage(c, "Media moved to trash", nil)
}

// Restore 从回收站恢复
// POST /api/v1/media/:id/restore
func (h *Handler) Restore(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid media id")
		return
	}

	m, err := h.service.Restore(c.Request.Context(), uint(id))
	if err != nil {
		common.RespondError(c, http.StatusNotFound, "Media not found")
		return
	}
	common.RespondSuccess(c, h.view(m))
}
