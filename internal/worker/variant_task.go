package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/anoixa/media-library/database/repo/media"
	"github.com/anoixa/media-library/internal/variants"
	"github.com/anoixa/media-library/utils"
)

// defaultTaskTimeout 单个媒体变体补全的超时
const defaultTaskTimeout = 5 * time.Minute

// VariantTask 上传或编辑后的后台变体生成任务
type VariantTask struct {
	MediaID   uint
	Repo      media.Repository
	Generator *variants.Generator
	Timeout   time.Duration
}

// Execute 执行任务
func (t *VariantTask) Execute() {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = defaultTaskTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	m, err := t.Repo.Find(ctx, t.MediaID)
	if err != nil {
		log.Printf("[VariantTask] Failed to load media %d: %v", t.MediaID, err)
		return
	}

	generated, err := t.Generator.EnsureVariants(ctx, m)
	switch {
	case err == nil:
		if generated > 0 {
			utils.LogIfDevf("[VariantTask] Generated %d variants for media %d", generated, t.MediaID)
		}
	case errors.Is(err, variants.ErrWrongType):
		utils.LogIfDevf("[VariantTask] Media %d is not an image, skipped", t.MediaID)
	case utils.IsContextCanceled(err):
		utils.LogIfDevf("[VariantTask] Cancelled while processing media %d", t.MediaID)
	default:
		log.Printf("[VariantTask] Variant generation failed for media %d: %v", t.MediaID, err)
	}
}
