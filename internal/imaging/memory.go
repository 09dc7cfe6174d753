package imaging

import (
	"fmt"
	"io"
	"strings"
)

// MemoryCodec 纯内存的编解码实现，测试用
// 图像内容形如 "img:800x600"，解码只解析尺寸，不做真实像素处理
type MemoryCodec struct{}

// NewMemoryCodec 创建内存编解码器
func NewMemoryCodec() *MemoryCodec {
	return &MemoryCodec{}
}

// EncodeSize 构造一段可被 MemoryCodec 解码的内容
func EncodeSize(width, height int) []byte {
	return []byte(fmt.Sprintf("img:%dx%d", width, height))
}

// Decode 解析 "img:WxH" 内容，无法解析时按 1600x1200 处理
func (c *MemoryCodec) Decode(r io.Reader) (Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	img := &MemoryImage{width: 1600, height: 1200}
	if strings.HasPrefix(string(data), "img:") {
		if _, err := fmt.Sscanf(string(data), "img:%dx%d", &img.width, &img.height); err != nil {
			return nil, fmt.Errorf("malformed memory image header: %q", data)
		}
	}
	return img, nil
}

// MemoryImage 记录尺寸与操作轨迹的假图像
type MemoryImage struct {
	width  int
	height int
	closed bool

	// Ops 按顺序记录施加的操作，测试断言用
	Ops []string
}

func (i *MemoryImage) Width() int  { return i.width }
func (i *MemoryImage) Height() int { return i.height }

func (i *MemoryImage) record(op string, args ...interface{}) {
	entry := op
	if len(args) > 0 {
		entry = fmt.Sprintf("%s(%v)", op, args)
	}
	i.Ops = append(i.Ops, entry)
}

func (i *MemoryImage) Resize(width, height int) error {
	if width <= 0 && height <= 0 {
		return fmt.Errorf("resize requires a positive width or height")
	}
	switch {
	case height <= 0:
		i.height = i.height * width / i.width
		i.width = width
	case width <= 0:
		i.width = i.width * height / i.height
		i.height = height
	default:
		i.width = width
		i.height = height
	}
	i.record("resize", width, height)
	return nil
}

func (i *MemoryImage) Crop(x, y, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("crop requires positive dimensions")
	}
	i.width = width
	i.height = height
	i.record("crop", x, y, width, height)
	return nil
}

func (i *MemoryImage) Fit(width, height int, anchor Anchor) error {
	if width > 0 {
		i.width = width
	}
	if height > 0 {
		i.height = height
	}
	i.record("fit", width, height, anchor)
	return nil
}

func (i *MemoryImage) Rotate(angle float64, background Color) error {
	i.record("rotate", angle, background)
	return nil
}

func (i *MemoryImage) Flip(direction FlipDirection) error {
	i.record("flip", direction)
	return nil
}

func (i *MemoryImage) Blur(amount float64) error       { i.record("blur", amount); return nil }
func (i *MemoryImage) Sharpen(amount float64) error    { i.record("sharpen", amount); return nil }
func (i *MemoryImage) Pixelate(amount float64) error   { i.record("pixelate", amount); return nil }
func (i *MemoryImage) Brightness(delta float64) error  { i.record("brightness", delta); return nil }
func (i *MemoryImage) Contrast(delta float64) error    { i.record("contrast", delta); return nil }
func (i *MemoryImage) Gamma(value float64) error       { i.record("gamma", value); return nil }
func (i *MemoryImage) Colorize(r, g, b float64) error  { i.record("colorize", r, g, b); return nil }
func (i *MemoryImage) Greyscale() error                { i.record("greyscale"); return nil }
func (i *MemoryImage) Invert() error                   { i.record("invert"); return nil }

// Export 生成确定性的内容，同样的尺寸+操作序列+格式得到同样的字节
func (i *MemoryImage) Export(format Format) ([]byte, error) {
	if i.closed {
		return nil, fmt.Errorf("image already closed")
	}
	payload := fmt.Sprintf("img:%dx%d", i.width, i.height)
	if len(i.Ops) > 0 {
		payload += ";ops=" + strings.Join(i.Ops, ",")
	}
	payload += ";fmt=" + string(format)
	return []byte(payload), nil
}

func (i *MemoryImage) Close() {
	i.closed = true
}
