// Package presenter 把媒体渲染为响应式 HTML 片段
package presenter

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/anoixa/media-library/config"
	"github.com/anoixa/media-library/database/models"
	"github.com/anoixa/media-library/storage"
)

// loadOrder 浏览器端 source 的优先顺序
var loadOrder = []string{"image/webp", "image/png", "image/gif", "image/jpeg"}

// fallbackOrder 不支持 picture 的环境使用的兜底格式顺序
var fallbackOrder = []string{"image/png", "image/gif", "image/jpeg"}

// Source 单个变体来源
type Source struct {
	Filename string
	Width    *int
}

// Style 渲染风格
type Style struct {
	// Email 为邮件 HTML 生成裸 img 标签
	Email bool
	// AbsoluteURLs 生成带域名的绝对地址
	AbsoluteURLs bool
}

// Presenter 媒体渲染器
type Presenter struct {
	store *storage.ContentStore
	cfg   *config.Config
}

// New 创建渲染器
func New(store *storage.ContentStore, cfg *config.Config) *Presenter {
	return &Presenter{store: store, cfg: cfg}
}

// ImageSources 把媒体的变体按 MIME 类型分组，组内按宽度升序，原始尺寸在最后
func (p *Presenter) ImageSources(m *models.Media) map[string][]Source {
	sources := make(map[string][]Source)
	for _, v := range m.Variants() {
		sources[v.Mime] = append(sources[v.Mime], Source{
			Filename: v.Filename,
			Width:    v.Width,
		})
	}
	for mime := range sources {
		group := sources[mime]
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Width == nil {
				return false
			}
			if group[j].Width == nil {
				return true
			}
			return *group[i].Width < *group[j].Width
		})
	}
	return sources
}

// FallbackSource 选择兜底图片地址
// 按兜底格式顺序找宽度不小于 idealMinWidth 的最小变体，其次原始尺寸条目，
// 该格式没有可用来源时继续尝试下一个格式；全部落空返回空串并记录警告
func (p *Presenter) FallbackSource(m *models.Media, sources map[string][]Source, idealMinWidth int, style Style) string {
	for _, mime := range fallbackOrder {
		// 组内升序，第一个达到理想宽度的即最小满足者
		for _, s := range sources[mime] {
			if s.Width != nil && *s.Width >= idealMinWidth {
				return p.url(s.Filename, style)
			}
		}
		for _, s := range sources[mime] {
			if s.Width == nil {
				return p.url(s.Filename, style)
			}
		}
	}

	log.Printf("Warning: media %d (%s) has no fallback-compatible variant", m.ID, m.Name)
	return ""
}

// srcset 构建 srcset 属性值，原始尺寸条目不带宽度描述符
func (p *Presenter) srcset(group []Source, style Style) string {
	parts := make([]string, 0, len(group))
	for _, s := range group {
		if s.Width != nil {
			parts = append(parts, fmt.Sprintf("%s %dw", p.url(s.Filename, style), *s.Width))
		} else {
			parts = append(parts, p.url(s.Filename, style))
		}
	}
	return strings.Join(parts, ", ")
}

// url 把存储文件名映射为访问地址
func (p *Presenter) url(filename string, style Style) string {
	u := p.store.Resolve(filename)
	if style.AbsoluteURLs {
		u = strings.TrimRight(p.cfg.BaseURL(), "/") + u
	}
	return u
}

// idealFallbackWidth 按渲染风格返回理想兜底宽度
func (p *Presenter) idealFallbackWidth(style Style) int {
	if style.Email {
		if w := p.cfg.PresenterEmailFallbackWidth; w > 0 {
			return w
		}
		return 600
	}
	if w := p.cfg.PresenterWebFallbackWidth; w > 0 {
		return w
	}
	return 1000
}

// Render 渲染单个媒体为 HTML 片段
func (p *Presenter) Render(m *models.Media, style Style) string {
	switch m.Type {
	case models.TypeImage:
		return p.renderImage(m, style)
	case models.TypeAudio:
		return p.renderAudio(m, style)
	default:
		return p.renderLink(m, style)
	}
}

// renderImage 生成 picture 元素；邮件风格退化为裸 img
func (p *Presenter) renderImage(m *models.Media, style Style) string {
	sources := p.ImageSources(m)
	fallback := p.FallbackSource(m, sources, p.idealFallbackWidth(style), style)

	img := tag("img", attrs{
		{"src", fallback},
		{"alt", m.Name},
	})
	if style.Email {
		return img
	}

	var b strings.Builder
	b.WriteString("<picture>")
	for _, mime := range loadOrder {
		group := sources[mime]
		if len(group) == 0 {
			continue
		}
		b.WriteString(tag("source", attrs{
			{"type", mime},
			{"srcset", p.srcset(group, style)},
		}))
	}
	b.WriteString(img)
	b.WriteString("</picture>")
	return b.String()
}

// renderAudio 生成 audio 元素，每个变体一个 source
func (p *Presenter) renderAudio(m *models.Media, style Style) string {
	var b strings.Builder
	b.WriteString(`<audio controls>`)
	for _, v := range m.Variants() {
		b.WriteString(tag("source", attrs{
			{"src", p.url(v.Filename, style)},
			{"type", v.Mime},
		}))
	}
	b.WriteString(escape(m.Name))
	b.WriteString("</audio>")
	return b.String()
}

// renderLink 文档类媒体渲染为下载链接
func (p *Presenter) renderLink(m *models.Media, style Style) string {
	return tag("a", attrs{{"href", p.url(m.Filename, style)}}) + escape(m.Name) + "</a>"
}
