// Package preview holds the stores that turn a selected image into a
// displayable preview handle and release it again.
package preview

import (
	"errors"

	"shipcheck/pkg/utils"
)

// ErrUnknown is returned when releasing or reading a handle the store does
// not hold, including one that was already released.
var ErrUnknown = errors.New("unknown preview")

// Options control the thumbnail rendered for each preview.
type Options struct {
	MaxDimension int
	Quality      int
}

var DefaultOptions = Options{MaxDimension: 512, Quality: 80}

func render(proc *utils.ImageProcessor, opt Options, data []byte, mediaType string) ([]byte, string, error) {
	return proc.Thumbnail(data, mediaType, opt.MaxDimension, opt.Quality)
}
