package media

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anoixa/media-library/api/common"
	mediasvc "github.com/anoixa/media-library/internal/media"
	"github.com/anoixa/media-library/utils"
	"github.com/anoixa/media-library/utils/format"
	"github.com/gin-gonic/gin"
)

// Upload 处理单文件上传
// POST /api/v1/media (multipart: file, directory_id?, author?, caption?, description?)
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Missing file in request")
		return
	}

	maxSize := int64(h.cfg.UploadMaxSizeMB) << 20
	if maxSize > 0 && fileHeader.Size > maxSize {
		common.RespondError(c, http.StatusRequestEntityTooLarge, "File exceeds upload size limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	input := mediasvc.UploadInput{
		Reader:       file,
		OriginalName: fileHeader.Filename,
		Author:       c.PostForm("author"),
		Caption:      c.PostForm("caption"),
		Description:  c.PostForm("description"),
	}
	if raw := c.PostForm("directory_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			common.RespondError(c, http.StatusBadRequest, "Invalid directory_id")
			return
		}
		parent := uint(id)
		input.ParentDirectoryID = &parent
	}

	m, err := h.service.Upload(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, mediasvc.ErrUnsupportedType):
			common.RespondError(c, http.StatusUnsupportedMediaType, err.Error())
		default:
			common.RespondError(c, http.StatusInternalServerError, "Failed to store upload")
		}
		return
	}

	utils.LogIfDevf("Stored upload %s as %s (%s)", fileHeader.Filename, m.Filename,
		format.HumanReadableSize(fileHeader.Size))
	common.RespondSuccess(c, h.view(m))
}
