// Package dirs 目录相关的 HTTP 处理器
package dirs

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anoixa/media-library/api/common"
	"github.com/anoixa/media-library/database/models"
	"github.com/anoixa/media-library/database/repo/directories"
	"github.com/anoixa/media-library/internal/mediatree"
	"github.com/gin-gonic/gin"
)

// Handler 目录处理器
type Handler struct {
	repo *directories.Repository
	tree *mediatree.Tree
}

// NewHandler 创建目录处理器
func NewHandler(repo *directories.Repository, tree *mediatree.Tree) *Handler {
	return &Handler{repo: repo, tree: tree}
}

type directoryView struct {
	ID                uint   `json:"id"`
	Name              string `json:"name"`
	Slug              string `json:"slug"`
	ParentDirectoryID *uint  `json:"parent_directory_id"`
	Path              string `json:"path"`
}

func (h *Handler) view(c *gin.Context, dir *models.MediaDirectory) directoryView {
	path, err := h.tree.DirectoryPath(c.Request.Context(), dir)
	if err != nil {
		path = dir.Slug
	}
	return directoryView{
		ID:                dir.ID,
		Name:              dir.Name,
		Slug:              dir.Slug,
		ParentDirectoryID: dir.ParentDirectoryID,
		Path:              path,
	}
}

type createRequest struct {
	Name              string `json:"name" binding:"required"`
	ParentDirectoryID *uint  `json:"parent_directory_id"`
}

// Create 创建目录
// POST /api/v1/directories
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	dir, err := h.tree.CreateDirectory(c.Request.Context(), req.Name, req.ParentDirectoryID)
	if err != nil {
		common.RespondError(c, http.StatusConflict, err.Error())
		return
	}
	common.RespondSuccess(c, h.view(c, dir))
}

// List 列出子目录
// GET /api/v1/directories?parent_id=
func (h *Handler) List(c *gin.Context) {
	var parentID *uint
	if raw := c.Query("parent_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			common.RespondError(c, http.StatusBadRequest, "Invalid parent_id")
			return
		}
		parent := uint(id)
		parentID = &parent
	}

	dirs, err := h.repo.Children(c.Request.Context(), parentID)
	if err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to list directories")
		return
	}

	views := make([]directoryView, 0, len(dirs))
	for _, dir := range dirs {
		views = append(views, h.view(c, dir))
	}
	common.RespondSuccess(c, views)
}

type updateRequest struct {
	Name              *string `json:"name"`
	ParentDirectoryID *uint   `json:"parent_directory_id"`
	MoveToRoot        bool    `json:"move_to_root"`
}

// Update 重命名或移动目录
// PATCH /api/v1/directories/:id
func (h *Handler) Update(c *gin.Context) {
	dir, ok := h.loadDirectory(c)
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
		if err := h.tree.RenameDirectory(ctx, dir, *req.Name); err != nil {
			common.RespondError(c, http.StatusConflict, err.Error())
			return
		}
	}

	if req.ParentDirectoryID != nil || req.MoveToRoot {
		var newParent *models.MediaDirectory
		if !req.MoveToRoot && req.ParentDirectoryID != nil {
			parent, err := h.repo.Find(ctx, *req.ParentDirectoryID)
			if err != nil {
				common.RespondError(c, http.StatusBadRequest, "Target directory not found")
				return
			}
			newParent = parent
		}
		if err := h.tree.SetParent(ctx, dir, newParent); err != nil {
			if errors.Is(err, mediatree.ErrInvalidHierarchy) {
				common.RespondError(c, http.StatusUnprocessableEntity, err.Error())
				return
			}
			common.RespondError(c, http.StatusConflict, err.Error())
			return
		}
	}

	common.RespondSuccess(c, h.view(c, dir))
}

// Delete 删除目录，子项提升到其父目录
// DELETE /api/v1/directories/:id
func (h *Handler) Delete(c *gin.Context) {
	dir, ok := h.loadDirectory(c)
	if !ok {
		return
	}
	if err := h.tree.DeleteDirectory(c.Request.Context(), dir); err != nil {
		common.RespondError(c, http.StatusInternalServerError, "Failed to delete directory")
		return
	}
	common.RespondSuccessMessage(c, "Directory deleted", nil)
}

func (h *Handler) loadDirectory(c *gin.Context) (*models.MediaDirectory, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "Invalid directory id")
		return nil, false
	}
	dir, err := h.repo.Find(c.Request.Context(), uint(id))
	if err != nil {
		if errors.Is(err, directories.ErrNotFound) {
			common.RespondError(c, http.StatusNotFound, "Directory not found")
		} else {
			common.RespondError(c, http.StatusInternalServerError, "Failed to load directory")
		}
		return nil, false
	}
	return dir, true
}
