package models

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/anoixa/media-library/utils/mime"
	"gorm.io/gorm"
)

// MediaType 媒体类型
type MediaType int8

const (
	TypeImage    MediaType = 0
	TypeDocument MediaType = 1
	TypeAudio    MediaType = 2
)

// String 返回类型名称
func (t MediaType) String() string {
	switch t {
	case TypeImage:
		return "Image"
	case TypeAudio:
		return "Audio"
	case TypeDocument:
		return "Document"
	default:
		return "Unknown"
	}
}

// Variant 响应式变体记录，序列化为 {filename,width,mime}
// width 为 null 表示原始尺寸
type Variant struct {
	Filename string `json:"filename"`
	Width    *int   `json:"width"`
	Mime     string `json:"mime"`
}

// Media 媒体资源
// Filename 始终为内容 SHA-256 + 扩展名，同一份字节只存一次
type Media struct {
	gorm.Model
	LogicalID   string    `gorm:"size:36;index:idx_logical;not null"` // 版本链共享的逻辑 ID
	Name        string    `gorm:"not null"`
	Slug        string    `gorm:"not null;index:idx_slug"`
	Filename    string    `gorm:"not null;index:idx_filename"`
	Type        MediaType `gorm:"not null"`
	Author      string
	Caption     string `gorm:"type:text"`
	Description string `gorm:"type:text"`

	AlternativeFiles []Variant `gorm:"serializer:json"`

	ParentDirectoryID *uint `gorm:"index"`
	HeadVersionID     *uint `gorm:"index"` // null = 当前版本
}

// IsHead 是否为当前版本
func (m *Media) IsHead() bool {
	return m.HeadVersionID == nil
}

// Extension 返回存储文件的扩展名
func (m *Media) Extension() string {
	return strings.TrimPrefix(path.Ext(m.Filename), ".")
}

// MimeType 返回原始文件的 MIME 类型
func (m *Media) MimeType() string {
	return mime.ByExtension(m.Extension())
}

// Variants 返回所有变体，包含原始文件本身（width 为 null）
func (m *Media) Variants() []Variant {
	variants := make([]Variant, 0, len(m.AlternativeFiles)+1)
	for _, v := range m.AlternativeFiles {
		if v.Mime == "" {
			v.Mime = mime.ByExtension(strings.TrimPrefix(path.Ext(v.Filename), "."))
		}
		variants = append(variants, v)
	}
	variants = append(variants, Variant{
		Filename: m.Filename,
		Width:    nil,
		Mime:     m.MimeType(),
	})
	return variants
}

// AddVariant 追加一个变体记录
func (m *Media) AddVariant(filename string, width *int, mimeType string) {
	m.AlternativeFiles = append(m.AlternativeFiles, Variant{
		Filename: filename,
		Width:    width,
		Mime:     mimeType,
	})
}

// ClearVariants 清空变体记录
func (m *Media) ClearVariants() {
	m.AlternativeFiles = nil
}

// HasVariant 检查指定宽度（nil = 原始尺寸）和 MIME 类型（nil = 任意）的变体是否存在
func (m *Media) HasVariant(width *int, desiredMime *string) bool {
	for _, v := range m.Variants() {
		if !widthEqual(v.Width, width) {
			continue
		}
		if desiredMime == nil || v.Mime == *desiredMime {
			return true
		}
	}
	return false
}

func widthEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

var trailingNumber = regexp.MustCompile(`^(.*?)(\d+)$`)

// NewName 返回副本名称，如 "photo" -> "photo 2"、"photo 2" -> "photo 3"
func (m *Media) NewName() string {
	return incrementSuffix(m.Name, " ")
}

// NewSlug 返回副本 slug，如 "photo" -> "photo-2"
func (m *Media) NewSlug() string {
	return incrementSuffix(m.Slug, "-")
}

func incrementSuffix(s, sep string) string {
	if match := trailingNumber.FindStringSubmatch(s); match != nil {
		n, _ := strconv.Atoi(match[2])
		return match[1] + strconv.Itoa(n+1)
	}
	return s + sep + "2"
}
