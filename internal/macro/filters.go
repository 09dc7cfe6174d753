package macro

import (
	"encoding/json"
	"fmt"

	"github.com/anoixa/media-library/internal/imaging"
	"github.com/mitchellh/mapstructure"
)

// buildFunc 把原始参数校验为可执行的操作，nil 表示无操作
type buildFunc func(name string, value interface{}) (func(imaging.Image) error, error)

// filters 操作名到构造器的映射，新增操作在这里注册
var filters = map[string]buildFunc{
	"blur":       numberFilter(imaging.Image.Blur),
	"sharpen":    numberFilter(imaging.Image.Sharpen),
	"pixelate":   numberFilter(imaging.Image.Pixelate),
	"brightness": numberFilter(imaging.Image.Brightness),
	"contrast":   numberFilter(imaging.Image.Contrast),
	"gamma":      numberFilter(imaging.Image.Gamma),
	"colorize":   buildColorize,
	"greyscale":  boolFilter(imaging.Image.Greyscale),
	"invert":     boolFilter(imaging.Image.Invert),
	"crop":       buildCrop,
	"fit":        buildFit,
	"resize":     buildResize,
	"flip":       buildFlip,
	"rotate":     buildRotate,
}

// numberFilter 参数为单个数值的操作
func numberFilter(op func(imaging.Image, float64) error) buildFunc {
	return func(name string, value interface{}) (func(imaging.Image) error, error) {
		amount, ok := asNumber(value)
		if !ok {
			return nil, &ErrMissingParameter{Filter: name, Parameter: "amount"}
		}
		return func(img imaging.Image) error {
			return op(img, amount)
		}, nil
	}
}

// boolFilter 参数为布尔开关的操作，false 不执行
func boolFilter(op func(imaging.Image) error) buildFunc {
	return func(name string, value interface{}) (func(imaging.Image) error, error) {
		enabled, ok := value.(bool)
		if !ok {
			return nil, &ErrMissingParameter{Filter: name, Parameter: "enabled"}
		}
		if !enabled {
			return nil, nil
		}
		return op, nil
	}
}

type colorParams struct {
	R *float64 `mapstructure:"r"`
	G *float64 `mapstructure:"g"`
	B *float64 `mapstructure:"b"`
}

func buildColorize(name string, value interface{}) (func(imaging.Image) error, error) {
	var params colorParams
	if err := decodeParams(name, value, &params); err != nil {
		return nil, err
	}
	if params.R == nil {
		return nil, &ErrMissingParameter{Filter: name, Parameter: "r"}
	}
	if params.G == nil {
		return nil, &ErrMissingParameter{Filter: name, Parameter: "g"}
	}
	if params.B == nil {
		return nil, &ErrMissingParameter{Filter: name, Parameter: "b"}
	}
	return func(img imaging.Image) error {
		return img.Colorize(*params.R, *params.G, *params.B)
	}, nil
}

type cropParams struct {
	Width  *int `mapstructure:"width"`
	Height *int `mapstructure:"height"`
	X      *int `mapstructure:"x"`
	Y      *int `mapstructure:"y"`
}

func buildCrop(name string, value interface{}) (func(imaging.Image) error, error) {
	var params cropParams
	if err := decodeParams(name, value, &params); err != nil {
		return nil, err
	}
	if params.Width == nil {
		return nil, &ErrMissingParameter{Filter: name, Parameter: "width"}
	}
	if params.Height == nil {
		return nil, &ErrMissingParameter{Filter: name, Parameter: "height"}
	}
	return func(img imaging.Image) error {
		// 未指定起点时居中裁剪
		x, y := 0, 0
		if params.X != nil {
			x = *params.X
		} else {
			x = (img.Width() - *params.Width) / 2
		}
		if params.Y != nil {
			y = *params.Y
		} else {
			y = (img.Height() - *params.Height) / 2
		}
		if x < 0 {
			x = 0
		}
		if y < 0 {
			y = 0
		}
		return img.Crop(x, y, *params.Width, *params.Height)
	}, nil
}

type fitParams struct {
	Width    *int   `mapstructure:"width"`
	Height   *int   `mapstructure:"height"`
	Position string `mapstructure:"position"`
}

func buildFit(name string, value interface{}) (func(imaging.Image) error, error) {
	var params fitParams
	if err := decodeParams(name, value, &params); err != nil {
		return nil, err
	}
	if params.Width == nil && params.Height == nil {
		return nil, &ErrMissingParameter{Filter: name, Parameter: "width or height"}
	}
	anchor := imaging.AnchorCenter
	if params.Position != "" {
		anchor = imaging.Anchor(params.Position)
		if !imaging.ValidAnchor(anchor) {
			return nil, fmt.Errorf("filter %q: unknown position %q", name, params.Position)
		}
	}
	return func(img imaging.Image) error {
		width, height := deriveSize(img, params.Width, params.Height)
		return img.Fit(width, height, anchor)
	}, nil
}

type resizeParams struct {
	Width           *int `mapstructure:"width"`
	Height          *int `mapstructure:"height"`
	KeepAspectRatio bool `mapstructure:"keepAspectRatio"`
	PreventUpsize   bool `mapstructure:"preventUpsize"`
}

func buildResize(name string, value interface{}) (func(imaging.Image) error, error) {
	var params resizeParams
	if err := decodeParams(name, value, &params); err != nil {
		return nil, err
	}
	if params.Width == nil && params.Height == nil {
		return nil, &ErrMissingParameter{Filter: name, Parameter: "width or height"}
	}
	return func(img imaging.Image) error {
		width, height := 0, 0
		if params.Width != nil {
			width = *params.Width
		}
		if params.Height != nil {
			height = *params.Height
		}
		if params.KeepAspectRatio {
			// 等比缩放时只保留一条边，另一条由图像推导
			if width != 0 && height != 0 {
				height = 0
			}
		} else if width == 0 || height == 0 {
			width, height = deriveSize(img, params.Width, params.Height)
		}
		if params.PreventUpsize {
			if width > img.Width() {
				width = img.Width()
			}
			if height > img.Height() {
				height = img.Height()
			}
		}
		return img.Resize(width, height)
	}, nil
}

func buildFlip(name string, value interface{}) (func(imaging.Image) error, error) {
	direction, ok := value.(string)
	if !ok || direction == "" {
		return nil, &ErrMissingParameter{Filter: name, Parameter: "direction"}
	}
	switch imaging.FlipDirection(direction) {
	case imaging.FlipHorizontal, imaging.FlipVertical, imaging.FlipBoth:
	default:
		return nil, fmt.Errorf("filter %q: unknown direction %q", name, direction)
	}
	return func(img imaging.Image) error {
		return img.Flip(imaging.FlipDirection(direction))
	}, nil
}

type rotateParams struct {
	Angle      *float64     `mapstructure:"angle"`
	Background *colorParams `mapstructure:"background"`
}

func buildRotate(name string, value interface{}) (func(imaging.Image) error, error) {
	var params rotateParams
	if err := decodeParams(name, value, &params); err != nil {
		return nil, err
	}
	if params.Angle == nil {
		return nil, &ErrMissingParameter{Filter: name, Parameter: "angle"}
	}
	background := imaging.White
	if params.Background != nil {
		bg := params.Background
		if bg.R == nil || bg.G == nil || bg.B == nil {
			return nil, &ErrMissingParameter{Filter: name, Parameter: "background.r/g/b"}
		}
		background = imaging.Color{R: uint8(*bg.R), G: uint8(*bg.G), B: uint8(*bg.B)}
	}
	return func(img imaging.Image) error {
		return img.Rotate(*params.Angle, background)
	}, nil
}

// deriveSize 缺失的边按原图比例推导
func deriveSize(img imaging.Image, width, height *int) (int, int) {
	w, h := 0, 0
	if width != nil {
		w = *width
	}
	if height != nil {
		h = *height
	}
	if w == 0 && h != 0 && img.Height() > 0 {
		w = h * img.Width() / img.Height()
	}
	if h == 0 && w != 0 && img.Width() > 0 {
		h = w * img.Height() / img.Width()
	}
	return w, h
}

// decodeParams 把 JSON 对象参数解码到类型化结构
func decodeParams(name string, value interface{}, target interface{}) error {
	obj, ok := value.(map[string]interface{})
	if !ok {
		return &ErrMissingParameter{Filter: name, Parameter: "parameters"}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(obj); err != nil {
		return fmt.Errorf("filter %q has invalid parameters: %w", name, err)
	}
	return nil
}

// asNumber 提取 JSON 数值参数
func asNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
