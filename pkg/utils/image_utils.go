package utils

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"go.uber.org/zap"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type ImageProcessor struct {
	log *zap.Logger
}

func NewImageProcessor(log *zap.Logger) *ImageProcessor {
	return &ImageProcessor{log: log}
}

// Thumbnail scales data down so neither side exceeds maxDim and encodes it
// as JPEG. Formats that cannot be decoded (SVG, corrupt files) are returned
// unchanged with their declared media type.
func (p *ImageProcessor) Thumbnail(data []byte, mediaType string, maxDim, quality int) ([]byte, string, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		p.log.Debug("Preview kept as original",
			zap.String("media_type", mediaType),
			zap.Error(err))
		return data, mediaType, nil
	}

	b := src.Bounds()
	w, h := fit(b.Dx(), b.Dy(), maxDim)

	var img image.Image = src
	if w != b.Dx() || h != b.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, "", fmt.Errorf("encode thumbnail: %w", err)
	}

	p.log.Debug("Preview thumbnail created",
		zap.String("format", format),
		zap.Int("width", w),
		zap.Int("height", h),
		zap.Int("size", buf.Len()))

	return buf.Bytes(), "image/jpeg", nil
}

// fit keeps the aspect ratio and never scales up.
func fit(w, h, maxDim int) (int, int) {
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return w, h
	}
	if w >= h {
		return maxDim, max(1, h*maxDim/w)
	}
	return max(1, w*maxDim/h), maxDim
}
