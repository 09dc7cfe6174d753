// Package media 媒体相关的 HTTP 处理器
package media

import (
	"github.com/anoixa/media-library/config"
	"github.com/anoixa/media-library/database/models"
	mediarepo "github.com/anoixa/media-library/database/repo/media"
	mediasvc "github.com/anoixa/media-library/internal/media"
	"github.com/anoixa/media-library/internal/mediatree"
	"github.com/anoixa/media-library/internal/presenter"
	"github.com/anoixa/media-library/storage"
)

// Handler 媒体处理器
type Handler struct {
	repo      mediarepo.Repository
	service   *mediasvc.Service
	tree      *mediatree.Tree
	presenter *presenter.Presenter
	store     *storage.ContentStore
	cfg       *config.Config
}

// NewHandler 创建媒体处理器
func NewHandler(repo mediarepo.Repository, service *mediasvc.Service, tree *mediatree.Tree,
	p *presenter.Presenter, store *storage.ContentStore, cfg *config.Config) *Handler {
	return &Handler{
		repo:      repo,
		service:   service,
		tree:      tree,
		presenter: p,
		store:     store,
		cfg:       cfg,
	}
}

// mediaView 接口返回的媒体表示
type mediaView struct {
	ID                uint             `json:"id"`
	LogicalID         string           `json:"logical_id"`
	Name              string           `json:"name"`
	Slug              string           `json:"slug"`
	Filename          string           `json:"filename"`
	Type              string           `json:"type"`
	Author            string           `json:"author,omitempty"`
	Caption           string           `json:"caption,omitempty"`
	Description       string           `json:"description,omitempty"`
	ParentDirectoryID *uint            `json:"parent_directory_id"`
	Variants          []models.Variant `json:"variants"`
	URL               string           `json:"url"`
}

func (h *Handler) view(m *models.Media) mediaView {
	return mediaView{
		ID:                m.ID,
		LogicalID:         m.LogicalID,
		Name:              m.Name,
		Slug:              m.Slug,
		Filename:          m.Filename,
		Type:              m.Type.String(),
		Author:            m.Author,
		Caption:           m.Caption,
		Description:       m.Description,
		ParentDirectoryID: m.ParentDirectoryID,
		Variants:          m.Variants(),
		URL:               h.store.Resolve(m.Filename),
	}
}
