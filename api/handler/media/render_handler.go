package media

import (
	"github.com/anoixa/media-library/api/common"
	"github.com/anoixa/media-library/internal/presenter"
	"github.com/gin-gonic/gin"
)

// Render 返回媒体的响应式 HTML 片段
// GET /api/v1/media/:id/render?style=email&absolute=1
func (h *Handler) Render(c *gin.Context) {
	m, ok := h.loadMedia(c)
	if !ok {
		return
	}

	style := presenter.Style{
		Email:        c.Query("style") == "email",
		AbsoluteURLs: c.Query("absolute") == "1",
	}
	// 邮件 HTML 必须使用绝对地址
	if style.Email {
		style.AbsoluteURLs = true
	}

	common.RespondSuccess(c, gin.H{
		"html": h.presenter.Render(m, style),
	})
}
