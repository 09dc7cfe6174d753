package macro

import (
	"bytes"
	"errors"
	"testing"

	"github.com/anoixa/media-library/internal/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeImage(t *testing.T, width, height int) *imaging.MemoryImage {
	t.Helper()
	img, err := imaging.NewMemoryCodec().Decode(bytes.NewReader(imaging.EncodeSize(width, height)))
	require.NoError(t, err)
	return img.(*imaging.MemoryImage)
}

// TestParsePreservesOrder 键的声明顺序就是执行顺序
func TestParsePreservesOrder(t *testing.T) {
	doc := `{"blur": 2, "greyscale": true, "resize": {"width": 100}, "invert": true}`

	m, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []string{"blur", "greyscale", "resize", "invert"}, m.Names())

	img := decodeImage(t, 1600, 1200)
	require.NoError(t, m.Apply(img))
	assert.Equal(t, []string{
		"blur([2])",
		"greyscale",
		"resize([100 75])",
		"invert",
	}, img.Ops)
}

func TestParseUnknownFilter(t *testing.T) {
	_, err := Parse([]byte(`{"vignette": 1}`))
	require.Error(t, err)

	var unknown *ErrUnknownFilter
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "vignette", unknown.Name)
}

// TestParseMissingParameter 报错要指明操作名和参数名
func TestParseMissingParameter(t *testing.T) {
	cases := []struct {
		doc       string
		filter    string
		parameter string
	}{
		{`{"crop": {"width": 100}}`, "crop", "height"},
		{`{"rotate": {}}`, "rotate", "angle"},
		{`{"colorize": {"r": 1, "g": 2}}`, "colorize", "b"},
		{`{"blur": "soft"}`, "blur", "amount"},
		{`{"resize": {}}`, "resize", "width or height"},
		{`{"flip": 3}`, "flip", "direction"},
		{`{"crop": 7}`, "crop", "parameters"},
	}

	for _, tc := range cases {
		_, err := Parse([]byte(tc.doc))
		require.Error(t, err, tc.doc)

		var missing *ErrMissingParameter
		require.True(t, errors.As(err, &missing), tc.doc)
		assert.Equal(t, tc.filter, missing.Filter)
		assert.Equal(t, tc.parameter, missing.Parameter)
	}
}

// TestBoolFalseSkipped 布尔开关为 false 时不产生操作
func TestBoolFalseSkipped(t *testing.T) {
	m, err := Parse([]byte(`{"greyscale": false, "blur": 1}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"blur"}, m.Names())
}

// TestParseValidatesWholeDocument 任何一个非法操作让整个管线解析失败
func TestParseValidatesWholeDocument(t *testing.T) {
	m, err := Parse([]byte(`{"blur": 1, "bogus": true}`))
	assert.Error(t, err)
	assert.Nil(t, m)
}

func TestParseRejectsNonObject(t *testing.T) {
	_, err := Parse([]byte(`["blur"]`))
	assert.Error(t, err)
}

func TestResizePreventUpsize(t *testing.T) {
	m, err := Parse([]byte(`{"resize": {"width": 3000, "keepAspectRatio": true, "preventUpsize": true}}`))
	require.NoError(t, err)

	img := decodeImage(t, 1600, 1200)
	require.NoError(t, m.Apply(img))
	assert.Equal(t, 1600, img.Width())
	assert.Equal(t, 1200, img.Height())
}

// TestCropDefaultsToCenter 未指定起点时居中裁剪
func TestCropDefaultsToCenter(t *testing.T) {
	m, err := Parse([]byte(`{"crop": {"width": 400, "height": 300}}`))
	require.NoError(t, err)

	img := decodeImage(t, 1600, 1200)
	require.NoError(t, m.Apply(img))
	assert.Equal(t, []string{"crop([600 450 400 300])"}, img.Ops)
}

func TestFlipRejectsUnknownDirection(t *testing.T) {
	_, err := Parse([]byte(`{"flip": "diagonal"}`))
	assert.Error(t, err)

	m, err := Parse([]byte(`{"flip": "horizontal"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"flip"}, m.Names())
}

func TestFitRejectsUnknownPosition(t *testing.T) {
	_, err := Parse([]byte(`{"fit": {"width": 100, "position": "middle"}}`))
	assert.Error(t, err)
}

// TestApplyWrapsFilterFailure 执行期错误带上操作名
func TestApplyWrapsFilterFailure(t *testing.T) {
	m, err := Parse([]byte(`{"crop": {"width": -5, "height": 10}}`))
	require.NoError(t, err)

	img := decodeImage(t, 1600, 1200)
	err = m.Apply(img)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `filter "crop" failed`)
}
