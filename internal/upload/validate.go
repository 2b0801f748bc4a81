package upload

import (
	"slices"

	"shipcheck/internal/domain"
)

// Rules bounds what a candidate may be.
type Rules struct {
	MaxSize      int64
	AllowedTypes []string
}

// DefaultRules holds the 10MB ceiling and the fixed media-type list.
var DefaultRules = Rules{
	MaxSize:      domain.MaxImageSize,
	AllowedTypes: domain.AllowedMediaTypes,
}

// Validate checks c against DefaultRules.
func Validate(c domain.Candidate) error {
	return DefaultRules.Validate(c)
}

// Validate reports the first rule c breaks. Size is checked before type, so
// an oversized file of the wrong type is reported as too large.
func (r Rules) Validate(c domain.Candidate) error {
	if c.Size > r.MaxSize {
		return &domain.Error{Kind: domain.KindFileTooLarge, Message: domain.MsgFileTooLarge}
	}
	if !slices.Contains(r.AllowedTypes, c.MediaType) {
		return &domain.Error{Kind: domain.KindUnsupportedFormat, Message: domain.MsgUnsupportedFormat}
	}
	return nil
}
