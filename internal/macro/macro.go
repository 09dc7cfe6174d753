// Package macro 实现命名操作组成的图像编辑管线
// 整个管线先解析校验，全部合法后才开始执行
package macro

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/anoixa/media-library/internal/imaging"
)

// ErrUnknownFilter 未知的操作名
type ErrUnknownFilter struct {
	Name string
}

func (e *ErrUnknownFilter) Error() string {
	return fmt.Sprintf("unknown filter %q", e.Name)
}

// ErrMissingParameter 操作缺少必需参数
type ErrMissingParameter struct {
	Filter    string
	Parameter string
}

func (e *ErrMissingParameter) Error() string {
	return fmt.Sprintf("filter %q is missing required parameter %q", e.Filter, e.Parameter)
}

// step 单个已校验的操作
type step struct {
	name  string
	apply func(imaging.Image) error
}

// Macro 已解析校验的操作序列，按声明顺序执行
type Macro struct {
	steps []step
}

// Names 返回操作名列表，按执行顺序
func (m *Macro) Names() []string {
	names := make([]string, len(m.steps))
	for i, s := range m.steps {
		names[i] = s.name
	}
	return names
}

// Apply 依次对图像执行所有操作
func (m *Macro) Apply(img imaging.Image) error {
	for _, s := range m.steps {
		if err := s.apply(img); err != nil {
			return fmt.Errorf("filter %q failed: %w", s.name, err)
		}
	}
	return nil
}

// Parse 解析 JSON 对象形式的管线，键序即执行顺序
// 任何一个操作不合法时整个管线解析失败
func Parse(data []byte) (*Macro, error) {
	pairs, err := decodeOrdered(data)
	if err != nil {
		return nil, fmt.Errorf("invalid macro document: %w", err)
	}

	m := &Macro{steps: make([]step, 0, len(pairs))}
	for _, pair := range pairs {
		build, ok := filters[pair.key]
		if !ok {
			return nil, &ErrUnknownFilter{Name: pair.key}
		}
		apply, err := build(pair.key, pair.value)
		if err != nil {
			return nil, err
		}
		if apply == nil {
			// 布尔开关为 false 时不产生操作
			continue
		}
		m.steps = append(m.steps, step{name: pair.key, apply: apply})
	}
	return m, nil
}

type pair struct {
	key   string
	value interface{}
}

// decodeOrdered 按 token 流解码 JSON 对象，保留键的声明顺序
func decodeOrdered(data []byte) ([]pair, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("macro document must be a JSON object")
	}

	var pairs []pair
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", keyTok)
		}

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		pairs = append(pairs, pair{key: key, value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return pairs, nil
}
