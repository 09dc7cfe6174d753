package media

import (
	"errors"
	"io"
	"net/http"

	"github.com/anoixa/media-library/api/common"
	"github.com/anoixa/media-library/internal/macro"
	mediasvc "github.com/anoixa/media-library/internal/media"
	"github.com/gin-gonic/gin"
)

// updateRequest 重命名 / 移动参数
type updateRequest struct {
	Name              *string `json:"name"`
	ParentDirectoryID *uint   `json:"parent_directory_id"`
	MoveToRoot        bool    `json:"move_to_root"`
}

// Update 重命名或移动媒体
// PATCH /api/v1/media/:id
func (h *Handler) Update(c *gin.Context) {
	m, ok := h.loadMedia(c)
	if !ok {
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := c.Request.Context()
	if req.Name != nil {
		if err := h.service.Rename(ctx, m, *req.Name); err != nil {
			respondServiceError(c, err)
			return
		}
	}
	if req.ParentDirectoryID != nil || req.MoveToRoot {
		target := req.ParentDirectoryID
		if req.MoveToRoot {
			target = nil
		}
		if err := h.service.Move(ctx, m, target); err != nil {
			respondServiceError(c, err)
			return
		}
	}

	common.RespondSuccess(c, h.view(m))
}

// Edit 对图片执行编辑管线，结果保存为新版本
// POST /api/v1/media/:id/edit (body: macro JSON object)
func (h *Handler) Edit(c *gin.Context) {
	m, ok := h.loadMedia(c)
	if !ok {
		return
	}

	document, err := io.ReadAll(c.Request.Body)
	if err != nil || len(document) == 0 {
		common.RespondError(c, http.StatusBadRequest, "Missing macro document")
		return
	}

	edited, err := h.service.Edit(c.Request.Context(), m, document)
	if err != nil {
		var unknown *macro.ErrUnknownFilter
		var missing *macro.ErrMissingParameter
		switch {
		case errors.As(err, &unknown), errors.As(err, &missing):
			common.RespondError(c, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, mediasvc.ErrNotImage):
			common.RespondError(c, http.StatusUnprocessableEntity, err.Error())
		default:
			common.RespondError(c, http.StatusInternalServerError, "Failed to apply edit")
		}
		return
	}

	common.RespondSuccess(c, h.view(edited))
}

// respondServiceError 把服务层错误映射为 HTTP 状态
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, mediasvc.ErrSlugTaken):
		common.RespondError(c, http.StatusConflict, err.Error())
	default:
		common.RespondError(c, http.StatusInternalServerError, err.Error())
	}
}
