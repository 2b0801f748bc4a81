package upload

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shipcheck/internal/domain"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		size      int64
		mediaType string
		wantKind  domain.ErrorKind
	}{
		{"jpeg at limit", domain.MaxImageSize, "image/jpeg", ""},
		{"empty png", 0, "image/png", ""},
		{"jpg alias", 1024, "image/jpg", ""},
		{"svg", 1024, "image/svg+xml", ""},
		{"one byte over", domain.MaxImageSize + 1, "image/jpeg", domain.KindFileTooLarge},
		{"oversized and wrong type", 15 << 20, "application/pdf", domain.KindFileTooLarge},
		{"pdf", 1024, "application/pdf", domain.KindUnsupportedFormat},
		{"upper case type", 1024, "IMAGE/JPEG", domain.KindUnsupportedFormat},
		{"heic", 1024, "image/heic", domain.KindUnsupportedFormat},
		{"empty type", 1024, "", domain.KindUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Validate(domain.Candidate{Name: "x", MediaType: tt.mediaType, Size: tt.size})
			if tt.wantKind == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			kind, ok := domain.KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestValidate_Messages(t *testing.T) {
	t.Parallel()

	err := Validate(domain.Candidate{MediaType: "image/png", Size: 15 << 20})
	assert.Equal(t, domain.MsgFileTooLarge, domain.UserMessage(err))
	assert.True(t, errors.Is(err, &domain.Error{Kind: domain.KindFileTooLarge}))

	err = Validate(domain.Candidate{MediaType: "text/plain", Size: 10})
	assert.Equal(t, domain.MsgUnsupportedFormat, domain.UserMessage(err))
}

func TestRules_Custom(t *testing.T) {
	t.Parallel()

	r := Rules{MaxSize: 100, AllowedTypes: []string{"image/png"}}

	assert.NoError(t, r.Validate(domain.Candidate{MediaType: "image/png", Size: 100}))

	kind, _ := domain.KindOf(r.Validate(domain.Candidate{MediaType: "image/png", Size: 101}))
	assert.Equal(t, domain.KindFileTooLarge, kind)

	kind, _ = domain.KindOf(r.Validate(domain.Candidate{MediaType: "image/jpeg", Size: 1}))
	assert.Equal(t, domain.KindUnsupportedFormat, kind)
}
