// Package variants 负责补全媒体的响应式变体矩阵
package variants

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/anoixa/media-library/config"
	"github.com/anoixa/media-library/database/models"
	"github.com/anoixa/media-library/database/repo/media"
	"github.com/anoixa/media-library/internal/imaging"
	"github.com/anoixa/media-library/storage"
	"golang.org/x/sync/semaphore"
)

var (
	// ErrWrongType 非图片媒体不生成变体
	ErrWrongType = errors.New("variants can only be generated for images")
	// ErrMissingOriginal 原始文件在存储中不存在
	ErrMissingOriginal = errors.New("original file is missing from storage")
)

// fallbackMimes 这些格式视为兼容性兜底，任意一个存在即满足 fallback 档位
var fallbackMimes = []string{"image/jpeg", "image/png"}

// Options 变体矩阵配置
type Options struct {
	// Widths 目标宽度，升序；原始尺寸（width 为 null）总是隐含在内
	Widths []int
	// ModernFormat 现代格式档位，默认 webp
	ModernFormat imaging.Format
	// FallbackFormat fallback 档位缺失时生成的格式，默认 jpg
	FallbackFormat imaging.Format
}

// OptionsFromConfig 从全局配置构建变体配置
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		Widths:         cfg.ResponsiveWidths(),
		ModernFormat:   imaging.Format(cfg.VariantModernFormat),
		FallbackFormat: imaging.Format(cfg.VariantFallbackFormat),
	}
	if opts.ModernFormat == "" {
		opts.ModernFormat = imaging.FormatWebP
	}
	if opts.FallbackFormat == "" {
		opts.FallbackFormat = imaging.FormatJPEG
	}
	return opts
}

// Generator 变体生成器
type Generator struct {
	repo  media.Repository
	store *storage.ContentStore
	codec imaging.Codec
	opts  Options

	// vips 并发上限，nil 表示不限制
	sem *semaphore.Weighted

	// 同一资源的并发生成请求串行化
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// NewGenerator 创建变体生成器
func NewGenerator(repo media.Repository, store *storage.ContentStore, codec imaging.Codec, opts Options) *Generator {
	return &Generator{
		repo:  repo,
		store: store,
		codec: codec,
		opts:  opts,
		locks: make(map[uint]*sync.Mutex),
	}
}

// WithConcurrencyLimit 限制同时进行的图像解码/编码数量
func (g *Generator) WithConcurrencyLimit(n int) *Generator {
	if n > 0 {
		g.sem = semaphore.NewWeighted(int64(n))
	}
	return g
}

// EnsureVariants 补全单个媒体的变体矩阵，返回新生成的变体数量
// 已经完整的矩阵是空操作；只有生成了内容才保存为新版本
func (g *Generator) EnsureVariants(ctx context.Context, m *models.Media) (int, error) {
	if m.Type != models.TypeImage {
		return 0, fmt.Errorf("%w: %s is %s", ErrWrongType, m.Name, m.Type)
	}

	lock := g.assetLock(m.ID)
	lock.Lock()
	defer lock.Unlock()

	reader, err := g.store.Open(ctx, m.Filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, fmt.Errorf("%w: %s", ErrMissingOriginal, m.Filename)
		}
		return 0, fmt.Errorf("failed to open original '%s': %w", m.Filename, err)
	}
	original, err := io.ReadAll(reader)
	if err != nil {
		return 0, fmt.Errorf("failed to read original '%s': %w", m.Filename, err)
	}

	originalWidth, err := g.probeWidth(ctx, original)
	if err != nil {
		return 0, fmt.Errorf("failed to decode original '%s': %w", m.Filename, err)
	}

	generated := 0
	for _, width := range g.targetWidths() {
		for _, format := range g.targetFormats(m) {
			ok, err := g.ensureCell(ctx, m, original, originalWidth, width, format)
			if err != nil {
				return generated, err
			}
			if ok {
				generated++
			}
		}
	}

	if generated == 0 {
		return 0, nil
	}
	if err := g.repo.Persist(ctx, m, true); err != nil {
		return generated, fmt.Errorf("failed to persist variants of media %d: %w", m.ID, err)
	}
	return generated, nil
}

// targetWidths 返回目标宽度列表，nil 结尾表示原始尺寸
func (g *Generator) targetWidths() []*int {
	widths := make([]*int, 0, len(g.opts.Widths)+1)
	for i := range g.opts.Widths {
		widths = append(widths, &g.opts.Widths[i])
	}
	return append(widths, nil)
}

// targetFormats 返回目标格式档位：原始格式、现代格式、fallback 伪格式（空串）
func (g *Generator) targetFormats(m *models.Media) []imaging.Format {
	formats := make([]imaging.Format, 0, 3)
	if f, ok := imaging.FormatByExtension(m.Extension()); ok {
		formats = append(formats, f)
	}
	formats = append(formats, g.opts.ModernFormat, formatFallback)
	return formats
}

// formatFallback 伪格式：保证该宽度下存在 jpeg 或 png
const formatFallback imaging.Format = ""

// ensureCell 补全矩阵中的一格，返回是否实际生成了变体
func (g *Generator) ensureCell(ctx context.Context, m *models.Media, original []byte, originalWidth int, width *int, format imaging.Format) (bool, error) {
	exportFormat := format
	if format == formatFallback {
		for _, mime := range fallbackMimes {
			if m.HasVariant(width, &mime) {
				return false, nil
			}
		}
		exportFormat = g.opts.FallbackFormat
	} else {
		mime := format.Mime()
		if m.HasVariant(width, &mime) {
			return false, nil
		}
	}

	data, err := g.render(ctx, original, originalWidth, width, exportFormat)
	if err != nil {
		return false, fmt.Errorf("failed to generate %s variant of media %d: %w", exportFormat, m.ID, err)
	}

	filename, err := g.store.StoreBytes(ctx, data, string(exportFormat))
	if err != nil {
		return false, err
	}

	m.AddVariant(filename, width, exportFormat.Mime())
	return true, nil
}

// render 生成单个变体的字节
// 目标宽度超过原图时不放大，但仍按请求的宽度记录
func (g *Generator) render(ctx context.Context, original []byte, originalWidth int, width *int, format imaging.Format) ([]byte, error) {
	if err := g.acquire(ctx); err != nil {
		return nil, err
	}
	defer g.release()

	img, err := g.codec.Decode(bytes.NewReader(original))
	if err != nil {
		return nil, err
	}
	defer img.Close()

	if width != nil && *width < originalWidth {
		if err := img.Resize(*width, 0); err != nil {
			return nil, err
		}
	}
	return img.Export(format)
}

// probeWidth 读取原图宽度
func (g *Generator) probeWidth(ctx context.Context, original []byte) (int, error) {
	if err := g.acquire(ctx); err != nil {
		return 0, err
	}
	defer g.release()

	img, err := g.codec.Decode(bytes.NewReader(original))
	if err != nil {
		return 0, err
	}
	defer img.Close()
	return img.Width(), nil
}

func (g *Generator) acquire(ctx context.Context) error {
	if g.sem == nil {
		return nil
	}
	return g.sem.Acquire(ctx, 1)
}

func (g *Generator) release() {
	if g.sem != nil {
		g.sem.Release(1)
	}
}

func (g *Generator) assetLock(id uint) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[id] = lock
	}
	return lock
}

// Sink 批量生成的进度输出
type Sink interface {
	Printf(format string, args ...interface{})
}

// Summary 批量生成结果统计
// UpToDate 是矩阵已完整的图片，Skipped 是非图片
type Summary struct {
	UpToDate  int
	Skipped   int
	Generated int
	Missing   int
	Failed    int
}

// EnsureAll 为所有当前版本的媒体补全变体
// 非图片跳过，原图缺失记录后跳过，单个失败不会中止整批
func (g *Generator) EnsureAll(ctx context.Context, sink Sink) (Summary, error) {
	var summary Summary

	assets, err := g.repo.All(ctx, media.ExcludeVersions)
	if err != nil {
		return summary, fmt.Errorf("failed to list media: %w", err)
	}

	for _, m := range assets {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		n, err := g.EnsureVariants(ctx, m)
		summary.Generated += n
		switch {
		case err == nil:
			if n == 0 {
				summary.UpToDate++
			} else {
				sink.Printf("generated %d variants for %s", n, m.Name)
			}
		case errors.Is(err, ErrWrongType):
			summary.Skipped++
		case errors.Is(err, ErrMissingOriginal):
			summary.Missing++
			sink.Printf("missing original for %s (%s)", m.Name, m.Filename)
		default:
			summary.Failed++
			sink.Printf("failed to process %s: %v", m.Name, err)
			log.Printf("Variant generation failed for media %d: %v", m.ID, err)
		}
	}

	return summary, nil
}
