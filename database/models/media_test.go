package models

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

// TestVariantsIncludesOriginal 变体列表必须包含原始文件本身
func TestVariantsIncludesOriginal(t *testing.T) {
	m := &Media{
		Filename: "abc123.png",
		Type:     TypeImage,
	}
	m.AddVariant("def456.webp", intPtr(320), "image/webp")

	variants := m.Variants()
	assert.Len(t, variants, 2)

	last := variants[len(variants)-1]
	assert.Equal(t, "abc123.png", last.Filename)
	assert.Nil(t, last.Width)
	assert.Equal(t, "image/png", last.Mime)
}

func TestHasVariant(t *testing.T) {
	m := &Media{Filename: "abc123.jpg", Type: TypeImage}
	m.AddVariant("v1.webp", intPtr(320), "image/webp")
	m.AddVariant("v2.jpg", intPtr(320), "image/jpeg")

	tests := []struct {
		width *int
		mime  *string
		want  bool
	}{
		{intPtr(320), strPtr("image/webp"), true},
		{intPtr(320), strPtr("image/jpeg"), true},
		{intPtr(320), nil, true},
		{intPtr(640), strPtr("image/webp"), false},
		{nil, strPtr("image/jpeg"), true}, // 原始文件
		{nil, strPtr("image/webp"), false},
		{nil, nil, true},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			assert.Equal(t, tt.want, m.HasVariant(tt.width, tt.mime))
		})
	}
}

// TestClearVariants 清空后只剩合成的原始条目
func TestClearVariants(t *testing.T) {
	m := &Media{Filename: "abc.gif", Type: TypeImage}
	m.AddVariant("v.webp", intPtr(320), "image/webp")
	m.ClearVariants()

	assert.Len(t, m.Variants(), 1)
	assert.False(t, m.HasVariant(intPtr(320), nil))
}

func TestNewNameAndSlug(t *testing.T) {
	tests := []struct {
		name     string
		slug     string
		wantName string
		wantSlug string
	}{
		{"photo", "photo", "photo 2", "photo-2"},
		{"photo 2", "photo-2", "photo 3", "photo-3"},
		{"photo 9", "photo-9", "photo 10", "photo-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Media{Name: tt.name, Slug: tt.slug}
			assert.Equal(t, tt.wantName, m.NewName())
			assert.Equal(t, tt.wantSlug, m.NewSlug())
		})
	}
}

func TestExtensionAndMime(t *testing.T) {
	m := &Media{Filename: "deadbeef.JPG"}
	assert.Equal(t, "JPG", m.Extension())
	assert.Equal(t, "image/jpeg", m.MimeType())

	head := &Media{}
	assert.True(t, head.IsHead())
	id := uint(3)
	head.HeadVersionID = &id
	assert.False(t, head.IsHead())
}
