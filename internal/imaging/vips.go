package imaging

import (
	"fmt"
	"io"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
)

var vipsOnce sync.Once

// VipsCodec 基于 libvips 的编解码实现
type VipsCodec struct{}

// NewVipsCodec 创建 vips 编解码器并初始化 libvips（进程内只执行一次）
func NewVipsCodec() *VipsCodec {
	vipsOnce.Do(func() {
		vips.LoggingSettings(nil, vips.LogLevelError)
		vips.Startup(nil)
	})
	return &VipsCodec{}
}

// Decode 从 reader 解码图像
func (c *VipsCodec) Decode(r io.Reader) (Image, error) {
	ref, err := vips.NewImageFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return &vipsImage{ref: ref}, nil
}

// vipsImage govips ImageRef 的包装
type vipsImage struct {
	ref *vips.ImageRef
}

func (i *vipsImage) Width() int  { return i.ref.Width() }
func (i *vipsImage) Height() int { return i.ref.Height() }

func (i *vipsImage) Resize(width, height int) error {
	if width <= 0 && height <= 0 {
		return fmt.Errorf("resize requires a positive width or height")
	}

	switch {
	case height <= 0:
		scale := float64(width) / float64(i.ref.Width())
		return i.ref.Resize(scale, vips.KernelAuto)
	case width <= 0:
		scale := float64(height) / float64(i.ref.Height())
		return i.ref.Resize(scale, vips.KernelAuto)
	default:
		hscale := float64(width) / float64(i.ref.Width())
		vscale := float64(height) / float64(i.ref.Height())
		return i.ref.ResizeWithVScale(hscale, vscale, vips.KernelAuto)
	}
}

func (i *vipsImage) Crop(x, y, width, height int) error {
	return i.ref.ExtractArea(x, y, width, height)
}

func (i *vipsImage) Fit(width, height int, anchor Anchor) error {
	if width <= 0 {
		width = i.ref.Width()
	}
	if height <= 0 {
		height = i.ref.Height()
	}

	// 先等比放缩到恰好覆盖目标区域
	scaleX := float64(width) / float64(i.ref.Width())
	scaleY := float64(height) / float64(i.ref.Height())
	scale := scaleX
	if scaleY > scale {
		scale = scaleY
	}
	if err := i.ref.Resize(scale, vips.KernelAuto); err != nil {
		return err
	}

	left, top := anchorOffset(anchor, i.ref.Width(), i.ref.Height(), width, height)
	return i.ref.ExtractArea(left, top, width, height)
}

// anchorOffset 计算九宫格锚点对应的裁剪起点
func anchorOffset(anchor Anchor, srcW, srcH, dstW, dstH int) (left, top int) {
	left = (srcW - dstW) / 2
	top = (srcH - dstH) / 2

	switch anchor {
	case AnchorTop, AnchorTopLeft, AnchorTopRight:
		top = 0
	case AnchorBottom, AnchorBottomLeft, AnchorBottomRight:
		top = srcH - dstH
	}
	switch anchor {
	case AnchorLeft, AnchorTopLeft, AnchorBottomLeft:
		left = 0
	case AnchorRight, AnchorTopRight, AnchorBottomRight:
		left = srcW - dstW
	}
	return left, top
}

func (i *vipsImage) Rotate(angle float64, background Color) error {
	bg := &vips.ColorRGBA{R: background.R, G: background.G, B: background.B, A: 255}
	return i.ref.Similarity(1.0, angle, bg, 0, 0, 0, 0)
}

func (i *vipsImage) Flip(direction FlipDirection) error {
	switch direction {
	case FlipHorizontal:
		return i.ref.Flip(vips.DirectionHorizontal)
	case FlipVertical:
		return i.ref.Flip(vips.DirectionVertical)
	case FlipBoth:
		if err := i.ref.Flip(vips.DirectionHorizontal); err != nil {
			return err
		}
		return i.ref.Flip(vips.DirectionVertical)
	default:
		return fmt.Errorf("unknown flip direction: %s", direction)
	}
}

func (i *vipsImage) Blur(amount float64) error {
	return i.ref.GaussianBlur(amount)
}

func (i *vipsImage) Sharpen(amount float64) error {
	return i.ref.Sharpen(amount, 1.0, 2.0)
}

// Pixelate 马赛克：先按块大小缩小，再用最近邻放大回原尺寸
func (i *vipsImage) Pixelate(amount float64) error {
	if amount <= 1 {
		return nil
	}

	width := i.ref.Width()
	height := i.ref.Height()

	if err := i.ref.Resize(1/amount, vips.KernelAuto); err != nil {
		return err
	}

	hscale := float64(width) / float64(i.ref.Width())
	vscale := float64(height) / float64(i.ref.Height())
	return i.ref.ResizeWithVScale(hscale, vscale, vips.KernelNearest)
}

// Brightness delta 取 -100..100，线性映射到像素加减
func (i *vipsImage) Brightness(delta float64) error {
	return i.ref.Linear1(1.0, delta*255/100)
}

// Contrast delta 取 -100..100，围绕中灰缩放
func (i *vipsImage) Contrast(delta float64) error {
	factor := (delta + 100) / 100
	return i.ref.Linear1(factor, 128*(1-factor))
}

func (i *vipsImage) Gamma(value float64) error {
	return i.ref.Gamma(value)
}

func (i *vipsImage) Colorize(r, g, b float64) error {
	return i.ref.Linear([]float64{1, 1, 1}, []float64{r, g, b})
}

func (i *vipsImage) Greyscale() error {
	return i.ref.ToColorSpace(vips.InterpretationBW)
}

func (i *vipsImage) Invert() error {
	return i.ref.Invert()
}

func (i *vipsImage) Export(format Format) ([]byte, error) {
	switch format {
	case FormatJPEG:
		data, _, err := i.ref.ExportJpeg(vips.NewJpegExportParams())
		return data, err
	case FormatPNG:
		data, _, err := i.ref.ExportPng(vips.NewPngExportParams())
		return data, err
	case FormatWebP:
		data, _, err := i.ref.ExportWebp(&vips.WebpExportParams{Quality: 85, Lossless: false})
		return data, err
	case FormatGIF:
		data, _, err := i.ref.ExportGIF(vips.NewGifExportParams())
		return data, err
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

func (i *vipsImage) Close() {
	i.ref.Close()
}
