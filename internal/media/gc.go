package media

import (
	"context"
	"fmt"
	"log"

	mediarepo "github.com/anoixa/media-library/database/repo/media"
	"github.com/anoixa/media-library/storage"
)

// GarbageCollector 清理存储中不再被任何记录引用的文件
// 软删除与历史版本仍算存活，只有物理删除后的孤儿文件会被回收
type GarbageCollector struct {
	repo  mediarepo.Repository
	store *storage.ContentStore
}

// NewGarbageCollector 创建回收器
func NewGarbageCollector(repo mediarepo.Repository, store *storage.ContentStore) *GarbageCollector {
	return &GarbageCollector{repo: repo, store: store}
}

// Sweep 扫描存储并删除孤儿文件，返回被删除的文件名
// dryRun 为 true 时只报告不删除
func (g *GarbageCollector) Sweep(ctx context.Context, dryRun bool) ([]string, error) {
	live, err := g.repo.LiveFilenames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to collect live filenames: %w", err)
	}

	stored, err := g.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage: %w", err)
	}

	var removed []string
	for _, filename := range stored {
		select {
		case <-ctx.Done():
			return removed, ctx.Err()
		default:
		}

		if _, ok := live[filename]; ok {
			continue
		}
		if !dryRun {
			if err := g.store.Delete(ctx, filename); err != nil {
				log.Printf("GC: failed to delete orphan '%s': %v", filename, err)
				continue
			}
		}
		removed = append(removed, filename)
	}
	return removed, nil
}
