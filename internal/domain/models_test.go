package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLanguage(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"en", "ar"} {
		lang, ok := ParseLanguage(code)
		assert.True(t, ok, code)
		assert.Equal(t, Language(code), lang)
	}
	for _, code := range []string{"", "EN", "fr", "en-US"} {
		_, ok := ParseLanguage(code)
		assert.False(t, ok, code)
	}
}

func TestError_IsByKind(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: refused")
	err := fmt.Errorf("classify: %w", &Error{Kind: KindRequestFailed, Message: "x", Cause: cause})

	assert.ErrorIs(t, err, &Error{Kind: KindRequestFailed})
	assert.NotErrorIs(t, err, &Error{Kind: KindMalformedResponse})
	assert.ErrorIs(t, err, cause)

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindRequestFailed, kind)
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "model unavailable", UserMessage(&Error{Kind: KindRequestFailed, Message: "model unavailable"}))
	assert.Equal(t, MsgAnalyzeFailed, UserMessage(&Error{Kind: KindRequestFailed}))
	assert.Equal(t, MsgAnalyzeFailed, UserMessage(errors.New("boom")))
}

func TestCandidate_SizeMB(t *testing.T) {
	t.Parallel()

	c := NewCandidate("a.jpg", "image/jpeg", make([]byte, 3<<19))
	assert.Equal(t, int64(3<<19), c.Size)
	assert.InDelta(t, 1.5, c.SizeMB(), 1e-9)
}
