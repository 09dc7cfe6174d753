// Package imaging 定义图像编解码能力接口
// 变体生成与手动编辑管线都只依赖这里的接口，不直接依赖具体编解码库
package imaging

import "io"

// Format 导出格式
type Format string

const (
	FormatJPEG Format = "jpg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
	FormatGIF  Format = "gif"
)

// Mime 返回格式对应的 MIME 类型
func (f Format) Mime() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatWebP:
		return "image/webp"
	case FormatGIF:
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}

// FormatByExtension 将扩展名解析为导出格式
func FormatByExtension(ext string) (Format, bool) {
	switch ext {
	case "jpg", "jpeg":
		return FormatJPEG, true
	case "png":
		return FormatPNG, true
	case "webp":
		return FormatWebP, true
	case "gif":
		return FormatGIF, true
	default:
		return "", false
	}
}

// Anchor 九宫格锚点
type Anchor string

const (
	AnchorCenter      Anchor = "center"
	AnchorTop         Anchor = "top"
	AnchorBottom      Anchor = "bottom"
	AnchorLeft        Anchor = "left"
	AnchorRight       Anchor = "right"
	AnchorTopLeft     Anchor = "top-left"
	AnchorTopRight    Anchor = "top-right"
	AnchorBottomLeft  Anchor = "bottom-left"
	AnchorBottomRight Anchor = "bottom-right"
)

// ValidAnchor 检查锚点名称是否合法
func ValidAnchor(a Anchor) bool {
	switch a {
	case AnchorCenter, AnchorTop, AnchorBottom, AnchorLeft, AnchorRight,
		AnchorTopLeft, AnchorTopRight, AnchorBottomLeft, AnchorBottomRight:
		return true
	}
	return false
}

// FlipDirection 翻转方向
type FlipDirection string

const (
	FlipHorizontal FlipDirection = "horizontal"
	FlipVertical   FlipDirection = "vertical"
	FlipBoth       FlipDirection = "both"
)

// Color RGB 颜色，用于旋转时填充空角
type Color struct {
	R, G, B uint8
}

// White 默认背景色
var White = Color{R: 255, G: 255, B: 255}

// Image 解码后的单张图像
// 操作就地变换并返回错误，导出前的所有变换只存在于内存中
type Image interface {
	Width() int
	Height() int

	// Resize 调整尺寸，width 或 height 为 0 时按另一边等比推导
	Resize(width, height int) error
	// Crop 裁剪到 (x,y) 起始的 width x height 区域
	Crop(x, y, width, height int) error
	// Fit 等比缩放后按锚点裁剪，恰好覆盖 width x height
	Fit(width, height int, anchor Anchor) error
	Rotate(angle float64, background Color) error
	Flip(direction FlipDirection) error

	Blur(amount float64) error
	Sharpen(amount float64) error
	Pixelate(amount float64) error
	Brightness(delta float64) error
	Contrast(delta float64) error
	Gamma(value float64) error
	Colorize(r, g, b float64) error
	Greyscale() error
	Invert() error

	// Export 编码为目标格式
	Export(format Format) ([]byte, error)
	// Close 释放底层资源，调用后 Image 不可再使用
	Close()
}

// Codec 图像编解码器
type Codec interface {
	Decode(r io.Reader) (Image, error)
}
