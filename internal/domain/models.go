package domain

import (
	"errors"
	"fmt"
)

// MaxImageSize is the largest candidate accepted for classification.
const MaxImageSize int64 = 10 * 1024 * 1024

// AllowedMediaTypes lists the declared media types a candidate may carry.
// Matching is exact and case-sensitive.
var AllowedMediaTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/webp",
	"image/gif",
	"image/bmp",
	"image/tiff",
	"image/svg+xml",
}

// Candidate is an image the user picked but which has not necessarily
// passed validation yet.
type Candidate struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Size      int64  `json:"size"`
	Content   []byte `json:"-"`
}

// NewCandidate builds a candidate whose size is the length of data.
func NewCandidate(name, mediaType string, data []byte) Candidate {
	return Candidate{
		Name:      name,
		MediaType: mediaType,
		Size:      int64(len(data)),
		Content:   data,
	}
}

// SizeMB is the size in mebibytes, as shown next to the file name.
func (c Candidate) SizeMB() float64 {
	return float64(c.Size) / (1024 * 1024)
}

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"

	DefaultLanguage = LanguageEnglish
)

// ParseLanguage accepts only the enumerated response languages.
func ParseLanguage(code string) (Language, bool) {
	switch Language(code) {
	case LanguageEnglish, LanguageArabic:
		return Language(code), true
	}
	return "", false
}

// Verdict is the classification service's answer for one submission.
type Verdict struct {
	CanShip bool   `json:"canShip"`
	Message string `json:"message"`
}

type Phase string

const (
	PhaseIdle       Phase = "IDLE"
	PhaseSubmitting Phase = "SUBMITTING"
	PhaseSucceeded  Phase = "SUCCEEDED"
	PhaseFailed     Phase = "FAILED"
)

// Preview is a handle to a renderable copy of a candidate. It must be
// released through the store that created it.
type Preview struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Snapshot is a read-only copy of an upload session.
type Snapshot struct {
	ID        string     `json:"id,omitempty"`
	Phase     Phase      `json:"phase"`
	Language  Language   `json:"language"`
	Candidate *Candidate `json:"candidate,omitempty"`
	Preview   *Preview   `json:"preview,omitempty"`
	InFlight  bool       `json:"in_flight"`
	Verdict   *Verdict   `json:"verdict,omitempty"`
	Error     string     `json:"error,omitempty"`
}

type ErrorKind string

const (
	KindFileTooLarge      ErrorKind = "FILE_TOO_LARGE"
	KindUnsupportedFormat ErrorKind = "UNSUPPORTED_FORMAT"
	KindRequestFailed     ErrorKind = "REQUEST_FAILED"
	KindMalformedResponse ErrorKind = "MALFORMED_RESPONSE"
)

const (
	MsgFileTooLarge      = "File too large. Maximum size is 10MB"
	MsgUnsupportedFormat = "Unsupported file format. Please use JPEG, PNG, WebP, GIF, BMP, TIFF, or SVG"
	MsgAnalyzeFailed     = "Failed to analyze image"
)

// Error is a user-visible failure of one upload attempt. Message is shown
// verbatim; Cause is kept for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same kind, so callers can test
// errors.Is(err, &domain.Error{Kind: domain.KindFileTooLarge}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

// UserMessage returns the text to show for err.
func UserMessage(err error) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return MsgAnalyzeFailed
}
