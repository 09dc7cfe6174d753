package presenter

import (
	"testing"

	"github.com/anoixa/media-library/config"
	"github.com/anoixa/media-library/database/models"
	"github.com/anoixa/media-library/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPresenter(t *testing.T, cfg *config.Config) *Presenter {
	t.Helper()
	local, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	if cfg == nil {
		cfg = &config.Config{}
	}
	return New(storage.NewContentStore(local, "/media"), cfg)
}

func intPtr(v int) *int { return &v }

// TestImageSourcesGrouping 变体按 MIME 分组，组内升序，原始尺寸在最后
func TestImageSourcesGrouping(t *testing.T) {
	p := newTestPresenter(t, nil)

	m := &models.Media{Name: "Sunset", Filename: "aa.jpg", Type: models.TypeImage}
	m.AddVariant("big.webp", intPtr(640), "image/webp")
	m.AddVariant("small.webp", intPtr(320), "image/webp")
	m.AddVariant("small.jpg", intPtr(320), "image/jpeg")

	sources := p.ImageSources(m)

	require.Len(t, sources["image/webp"], 2)
	assert.Equal(t, "small.webp", sources["image/webp"][0].Filename)
	assert.Equal(t, "big.webp", sources["image/webp"][1].Filename)

	// 原始文件作为 jpeg 组的无宽度条目排在最后
	require.Len(t, sources["image/jpeg"], 2)
	assert.Equal(t, "small.jpg", sources["image/jpeg"][0].Filename)
	assert.Equal(t, "aa.jpg", sources["image/jpeg"][1].Filename)
	assert.Nil(t, sources["image/jpeg"][1].Width)
}

func TestFallbackSourceSmallestAboveIdeal(t *testing.T) {
	p := newTestPresenter(t, nil)

	m := &models.Media{Name: "Sunset", Filename: "aa.jpg", Type: models.TypeImage}
	m.AddVariant("s320.jpg", intPtr(320), "image/jpeg")
	m.AddVariant("s640.jpg", intPtr(640), "image/jpeg")
	m.AddVariant("s1280.jpg", intPtr(1280), "image/jpeg")

	url := p.FallbackSource(m, p.ImageSources(m), 600, Style{})
	assert.Equal(t, "/media/s640.jpg", url)
}

// TestFallbackSourceOriginalWhenAllTooSmall 没有达到理想宽度时退回原始尺寸条目
func TestFallbackSourceOriginalWhenAllTooSmall(t *testing.T) {
	p := newTestPresenter(t, nil)

	m := &models.Media{Name: "Sunset", Filename: "aa.jpg", Type: models.TypeImage}
	m.AddVariant("s320.jpg", intPtr(320), "image/jpeg")

	url := p.FallbackSource(m, p.ImageSources(m), 1000, Style{})
	assert.Equal(t, "/media/aa.jpg", url)
}

// TestFallbackSourceFallsThroughGroups 组内没有可用来源时继续尝试下一个格式
func TestFallbackSourceFallsThroughGroups(t *testing.T) {
	p := newTestPresenter(t, nil)

	// png 组全部小于理想宽度且没有原始条目，应落到 jpeg 组的原始文件
	m := &models.Media{Name: "Sunset", Filename: "aa.jpg", Type: models.TypeImage}
	m.AddVariant("s320.png", intPtr(320), "image/png")

	url := p.FallbackSource(m, p.ImageSources(m), 1200, Style{})
	assert.Equal(t, "/media/aa.jpg", url)
}

// TestFallbackSourceEmptyWhenNothingQualifies 既无达标宽度也无原始条目时返回空串
func TestFallbackSourceEmptyWhenNothingQualifies(t *testing.T) {
	p := newTestPresenter(t, nil)

	// 原始文件是 webp，不参与兜底格式；jpeg 组只有不足理想宽度的变体
	m := &models.Media{Name: "Sunset", Filename: "aa.webp", Type: models.TypeImage}
	m.AddVariant("s320.jpg", intPtr(320), "image/jpeg")
	m.AddVariant("s960.jpg", intPtr(960), "image/jpeg")

	url := p.FallbackSource(m, p.ImageSources(m), 1200, Style{})
	assert.Empty(t, url)
}

// TestFallbackSourceNoneCompatible 没有任何兼容格式时返回空串
func TestFallbackSourceNoneCompatible(t *testing.T) {
	p := newTestPresenter(t, nil)

	m := &models.Media{Name: "Sunset", Filename: "aa.webp", Type: models.TypeImage}
	m.AddVariant("s320.webp", intPtr(320), "image/webp")

	url := p.FallbackSource(m, p.ImageSources(m), 600, Style{})
	assert.Empty(t, url)
}

// TestRenderImagePicture source 顺序遵循 webp 优先的加载顺序
func TestRenderImagePicture(t *testing.T) {
	p := newTestPresenter(t, nil)

	m := &models.Media{Name: "Sunset", Filename: "aa.jpg", Type: models.TypeImage}
	m.AddVariant("bb.webp", intPtr(320), "image/webp")
	m.AddVariant("cc.jpg", intPtr(320), "image/jpeg")

	html := p.Render(m, Style{})
	assert.Equal(t,
		`<picture>`+
			`<source type="image/webp" srcset="/media/bb.webp 320w">`+
			`<source type="image/jpeg" srcset="/media/cc.jpg 320w, /media/aa.jpg">`+
			`<img src="/media/aa.jpg" alt="Sunset">`+
			`</picture>`,
		html)
}

// TestRenderImageEmail 邮件风格退化为绝对地址的裸 img
func TestRenderImageEmail(t *testing.T) {
	p := newTestPresenter(t, &config.Config{ServerDomain: "https://cdn.example.com"})

	m := &models.Media{Name: "Sunset", Filename: "aa.jpg", Type: models.TypeImage}
	m.AddVariant("dd.jpg", intPtr(640), "image/jpeg")

	html := p.Render(m, Style{Email: true, AbsoluteURLs: true})
	assert.Equal(t, `<img src="https://cdn.example.com/media/dd.jpg" alt="Sunset">`, html)
}

func TestRenderAudio(t *testing.T) {
	p := newTestPresenter(t, nil)

	m := &models.Media{Name: "Song", Filename: "ee.mp3", Type: models.TypeAudio}

	html := p.Render(m, Style{})
	assert.Equal(t, `<audio controls><source src="/media/ee.mp3" type="audio/mpeg">Song</audio>`, html)
}

func TestRenderLinkEscapesName(t *testing.T) {
	p := newTestPresenter(t, nil)

	m := &models.Media{Name: "Report & Notes", Filename: "ff.pdf", Type: models.TypeDocument}

	html := p.Render(m, Style{})
	assert.Equal(t, `<a href="/media/ff.pdf">Report &amp; Notes</a>`, html)
}
