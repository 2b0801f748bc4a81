package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{100, 50, 200, 100, 50},
		{400, 200, 100, 100, 50},
		{200, 400, 100, 50, 100},
		{1000, 1, 100, 100, 1},
		{300, 300, 0, 300, 300},
	}
	for _, tt := range tests {
		w, h := fit(tt.w, tt.h, tt.max)
		assert.Equal(t, tt.wantW, w, "%dx%d max %d", tt.w, tt.h, tt.max)
		assert.Equal(t, tt.wantH, h, "%dx%d max %d", tt.w, tt.h, tt.max)
	}
}

func TestThumbnail_ScalesGIF(t *testing.T) {
	t.Parallel()

	src := image.NewPaletted(image.Rect(0, 0, 300, 150), palette.Plan9)
	src.Set(10, 10, color.White)
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, src, nil))

	p := NewImageProcessor(zap.NewNop())
	out, ct, err := p.Thumbnail(buf.Bytes(), "image/gif", 100, 80)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", ct)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestThumbnail_UndecodableKeptAsIs(t *testing.T) {
	t.Parallel()

	data := []byte("not an image")
	out, ct, err := NewImageProcessor(zap.NewNop()).Thumbnail(data, "image/webp", 100, 80)
	require.NoError(t, err)
	assert.Equal(t, data, out)
	assert.Equal(t, "image/webp", ct)
}
