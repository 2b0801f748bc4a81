package upload

import (
	"context"
	"errors"

	"shipcheck/internal/domain"
)

var (
	ErrNoCandidate         = errors.New("no image selected")
	ErrSubmissionInFlight  = errors.New("submission already in flight")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrSessionClosed       = errors.New("session closed")
)

// Request is one classification call.
type Request struct {
	Image    domain.Candidate
	Language domain.Language
}

// Classifier asks the external service for a verdict. Failures should be
// returned as *domain.Error so the session can show their message.
type Classifier interface {
	Classify(ctx context.Context, req Request) (domain.Verdict, error)
}

// PreviewStore creates and releases preview handles.
type PreviewStore interface {
	Create(ctx context.Context, c domain.Candidate) (domain.Preview, error)
	Release(ctx context.Context, p domain.Preview) error
}
